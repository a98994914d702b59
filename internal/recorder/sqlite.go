package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"PaperTrader/internal/model"
)

// SQLiteRecorder persists analyses and positions to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *logrus.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id              TEXT PRIMARY KEY,
			symbol          TEXT NOT NULL,
			timeframe       TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			current_price   REAL,
			trend           TEXT,
			strength        REAL,
			recommendation  TEXT,
			confidence      REAL,
			support         REAL,
			resistance      REAL,
			rsi             REAL,
			macd            REAL,
			macd_signal     REAL,
			sma_fast        REAL,
			sma_slow        REAL,
			upper_band      REAL,
			lower_band      REAL,
			advisory_rec    TEXT,
			advisory_conf   REAL,
			advisory_note   TEXT,
			advisory_error  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS positions (
			id           INTEGER PRIMARY KEY,
			account_id   INTEGER,
			symbol       TEXT NOT NULL,
			side         TEXT NOT NULL,
			amount       REAL NOT NULL,
			leverage     INTEGER NOT NULL,
			entry_price  REAL NOT NULL,
			opened_at    INTEGER NOT NULL,
			status       TEXT NOT NULL,
			close_price  REAL,
			closed_at    INTEGER,
			realized_pnl REAL,
			source       TEXT,
			analysis_id  TEXT,
			binary       INTEGER,
			expires_at   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) SaveAnalysis(res *model.SignalResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var advRec, advNote string
	var advConf float64
	var advErr int
	if res.Advisory != nil {
		advRec = string(res.Advisory.Recommendation)
		advConf = res.Advisory.Confidence
		advNote = res.Advisory.Reasoning
		if res.Advisory.Err {
			advErr = 1
		}
	}

	ind := res.Indicators
	_, err := r.db.Exec(`INSERT OR REPLACE INTO analyses
		(id, symbol, timeframe, timestamp, current_price, trend, strength,
		 recommendation, confidence, support, resistance,
		 rsi, macd, macd_signal, sma_fast, sma_slow, upper_band, lower_band,
		 advisory_rec, advisory_conf, advisory_note, advisory_error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ID, res.Symbol, res.Timeframe, res.Timestamp.Unix(),
		res.CurrentPrice, string(res.Trend), res.Strength,
		string(res.Recommendation), res.Confidence, res.Support, res.Resistance,
		ind.RSI, ind.MACD, ind.MACDSignal, ind.SMAFast, ind.SMASlow,
		ind.UpperBand, ind.LowerBand,
		advRec, advConf, advNote, advErr,
	)
	return err
}

func (r *SQLiteRecorder) SavePosition(p *model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	binary := 0
	if p.Binary {
		binary = 1
	}
	var expiresAt int64
	if !p.ExpiresAt.IsZero() {
		expiresAt = p.ExpiresAt.Unix()
	}
	_, err := r.db.Exec(`INSERT OR REPLACE INTO positions
		(id, account_id, symbol, side, amount, leverage, entry_price, opened_at,
		 status, close_price, closed_at, realized_pnl, source, analysis_id, binary, expires_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.AccountID, p.Symbol, string(p.Side), p.Amount, p.Leverage,
		p.EntryPrice, p.OpenedAt.Unix(), string(p.Status),
		p.ClosePrice, closedAtUnix(p), p.RealizedPnL,
		string(p.Source), p.AnalysisID, binary, expiresAt,
	)
	return err
}

func (r *SQLiteRecorder) UpdatePosition(p *model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`UPDATE positions
		SET status=?, close_price=?, closed_at=?, realized_pnl=?
		WHERE id=?`,
		string(p.Status), p.ClosePrice, closedAtUnix(p), p.RealizedPnL, p.ID,
	)
	return err
}

func (r *SQLiteRecorder) FindOpenPositions(f Filter) ([]model.Position, error) {
	return r.findPositions(`status = 'open'`, f)
}

func (r *SQLiteRecorder) FindAllPositions(f Filter) ([]model.Position, error) {
	return r.findPositions(`1=1`, f)
}

func (r *SQLiteRecorder) findPositions(where string, f Filter) ([]model.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `SELECT id, account_id, symbol, side, amount, leverage, entry_price,
		opened_at, status, close_price, closed_at, realized_pnl, source,
		analysis_id, binary, expires_at
		FROM positions WHERE ` + where
	args := []any{}
	if f.AccountID != 0 {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	query += ` ORDER BY opened_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var out []model.Position
	for rows.Next() {
		var p model.Position
		var side, status, source string
		var openedAt, closedAt, expiresAt int64
		var binary int
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Symbol, &side, &p.Amount,
			&p.Leverage, &p.EntryPrice, &openedAt, &status, &p.ClosePrice,
			&closedAt, &p.RealizedPnL, &source, &p.AnalysisID, &binary, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.Side = model.Side(side)
		p.Status = model.PositionStatus(status)
		p.Source = model.TradeSource(source)
		p.OpenedAt = time.Unix(openedAt, 0)
		if closedAt != 0 {
			p.ClosedAt = time.Unix(closedAt, 0)
		}
		if expiresAt != 0 {
			p.ExpiresAt = time.Unix(expiresAt, 0)
		}
		p.Binary = binary == 1
		out = append(out, p)
	}
	return out, rows.Err()
}

func closedAtUnix(p *model.Position) int64 {
	if p.ClosedAt.IsZero() {
		return 0
	}
	return p.ClosedAt.Unix()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
