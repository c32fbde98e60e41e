package models

import "gorm.io/gorm"

// Session is a persisted self-assessment record: the inputs the trader gave,
// the decision the engine produced, and optional free-form notes.
type Session struct {
	gorm.Model
	SessionID         string  `json:"session_id" gorm:"uniqueIndex;size:26"`
	Timestamp         int64   `json:"timestamp"` // unix seconds of the evaluation
	ConsecutiveLosses int     `json:"consecutive_losses"`
	DailyLossPercent  float64 `json:"daily_loss_percent"`
	HardStopsPassed   bool    `json:"hard_stops_passed"`
	HardStopReason    string  `json:"hard_stop_reason,omitempty"`
	FinalScore        float64 `json:"final_score"`
	ShouldTrade       bool    `json:"should_trade"`
	RiskPercent       float64 `json:"risk_percent"`
	AccountBalance    float64 `json:"account_balance,omitempty"`
	StopLossPips      float64 `json:"stop_loss_pips,omitempty"`
	Instrument        string  `json:"instrument,omitempty"`
	LotSize           float64 `json:"lot_size,omitempty"`
	Answers           string  `json:"answers" gorm:"type:text"`         // raw answers, JSON object keyed by question id
	CategoryScores    string  `json:"category_scores" gorm:"type:text"` // per-category scores, JSON object
	Notes             string  `json:"notes,omitempty"`
}
