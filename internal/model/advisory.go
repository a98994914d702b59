package model

// Advisory is the external collaborator's opinion on an instrument. It is
// never authoritative by itself; the signal engine only adopts it when its
// confidence beats the locally computed one.
type Advisory struct {
	Trend          Trend
	Strength       float64
	Recommendation Recommendation
	Confidence     float64
	Reasoning      string
	KeyFactors     []string
	RiskAssessment string
	Horizon        string // short_term, medium_term, long_term
	Err            bool   // retrieval or parsing failed; defaults were applied
}
