package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Simulator struct {
		Instruments []string `yaml:"instruments"`
		Timeframe   string   `yaml:"timeframe"`
		Periods     int      `yaml:"periods"`
		Seed        int64    `yaml:"seed"` // 0 means seed from the clock
	} `yaml:"simulator"`
	Advisory struct {
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		Model             string `yaml:"model"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		RateLimit         int    `yaml:"rate_limit"`
		RateWindowSeconds int    `yaml:"rate_window_seconds"`
	} `yaml:"advisory"`
	Cache struct {
		TTLMinutes int `yaml:"ttl_minutes"`
	} `yaml:"cache"`
	AutoTrade struct {
		Enabled bool    `yaml:"enabled"`
		Amount  float64 `yaml:"amount"`
		Cron    string  `yaml:"cron"`
	} `yaml:"auto_trade"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron"`
		ExpiryCron   string `yaml:"expiry_cron"`
	} `yaml:"schedule"`
	Account struct {
		ID              int64   `yaml:"id"`
		StartingBalance float64 `yaml:"starting_balance"`
	} `yaml:"account"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Advisory.APIKey = v
	}
	if v := os.Getenv("ADVISORY_BASE_URL"); v != "" {
		cfg.Advisory.BaseURL = v
	}
	if v := os.Getenv("ADVISORY_MODEL"); v != "" {
		cfg.Advisory.Model = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("AUTO_TRADE"); v != "" {
		cfg.AutoTrade.Enabled = v == "true"
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulator.Seed = seed
		}
	}

	// Defaults
	if len(cfg.Simulator.Instruments) == 0 {
		cfg.Simulator.Instruments = []string{"EURUSD", "XAUUSD", "BTCUSD"}
	}
	if cfg.Simulator.Timeframe == "" {
		cfg.Simulator.Timeframe = "1d"
	}
	if cfg.Simulator.Periods == 0 {
		cfg.Simulator.Periods = 100
	}
	if cfg.Advisory.BaseURL == "" {
		cfg.Advisory.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Advisory.Model == "" {
		cfg.Advisory.Model = "llama3-8b-8192"
	}
	if cfg.Advisory.TimeoutSeconds == 0 {
		cfg.Advisory.TimeoutSeconds = 20
	}
	if cfg.Advisory.RateLimit == 0 {
		cfg.Advisory.RateLimit = 5
	}
	if cfg.Advisory.RateWindowSeconds == 0 {
		cfg.Advisory.RateWindowSeconds = 60
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 10
	}
	if cfg.AutoTrade.Amount == 0 {
		cfg.AutoTrade.Amount = 1000
	}
	if cfg.AutoTrade.Cron == "" {
		cfg.AutoTrade.Cron = "0 30 * * * *"
	}
	if cfg.Schedule.AnalysisCron == "" {
		cfg.Schedule.AnalysisCron = "0 0 * * * *"
	}
	if cfg.Schedule.ExpiryCron == "" {
		cfg.Schedule.ExpiryCron = "0 * * * * *"
	}
	if cfg.Account.ID == 0 {
		cfg.Account.ID = 1
	}
	if cfg.Account.StartingBalance == 0 {
		cfg.Account.StartingBalance = 10000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	// The MACD signal line needs the longest warm-up of all indicators.
	if c.Simulator.Periods < 40 {
		return fmt.Errorf("simulator.periods must be at least 40, got %d", c.Simulator.Periods)
	}
	if c.AutoTrade.Enabled && c.AutoTrade.Amount <= 0 {
		return fmt.Errorf("auto_trade.amount must be positive")
	}
	if c.Advisory.RateLimit <= 0 || c.Advisory.RateWindowSeconds <= 0 {
		return fmt.Errorf("advisory rate limit and window must be positive")
	}
	if c.Account.StartingBalance < 0 {
		return fmt.Errorf("account.starting_balance must not be negative")
	}
	return nil
}
