package risk

import (
	"fmt"
	"time"
)

// Answers maps question ids to the raw values a trader gave. Booleans arrive
// as bool, scales and numbers as numeric types. Evaluation coerces values
// permissively; strict shape checking is the caller's job via ValidateAnswers.
type Answers map[string]any

// Stats carries the account state the hard stops check before any scoring.
type Stats struct {
	ConsecutiveLosses int     `json:"consecutive_losses"`
	DailyLossPercent  float64 `json:"daily_loss_percent"`
}

// TradeDetails are the optional sizing inputs for a planned trade.
type TradeDetails struct {
	AccountBalance float64 `json:"account_balance"`
	StopLossPips   float64 `json:"stop_loss_pips"`
	Instrument     string  `json:"instrument"`
}

// Validate rejects sizing inputs the lot calculation cannot work with.
func (t TradeDetails) Validate() error {
	if t.AccountBalance <= 0 {
		return &ValidationError{Field: "account_balance", Reason: "must be positive"}
	}
	if t.StopLossPips <= 0 {
		return &ValidationError{Field: "stop_loss_pips", Reason: "must be positive"}
	}
	if t.Instrument == "" {
		return &ValidationError{Field: "instrument", Reason: "must not be empty"}
	}
	return nil
}

// AnswerRecord is the per-question detail behind a category score.
type AnswerRecord struct {
	QuestionID   string  `json:"question_id"`
	QuestionText string  `json:"question_text"`
	RawValue     any     `json:"raw_value"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
}

// HardStopOutcome reports the result of the hard-stop gate. Reason is set
// only when at least one check failed.
type HardStopOutcome struct {
	Passed       bool     `json:"passed"`
	FailedChecks []string `json:"failed_checks,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Decision is the complete result of one evaluation. Decisions are freshly
// allocated per evaluation and never mutated afterwards; callers treat them
// as read-only. LotSize is nil unless the decision allows trading and trade
// details were supplied.
type Decision struct {
	Timestamp      time.Time                 `json:"timestamp"`
	HardStops      HardStopOutcome           `json:"hard_stops"`
	FinalScore     float64                   `json:"final_score"`
	CategoryScores map[string]float64        `json:"category_scores"`
	Breakdown      map[string][]AnswerRecord `json:"breakdown,omitempty"`
	ShouldTrade    bool                      `json:"should_trade"`
	RiskPercent    float64                   `json:"risk_percent"`
	LotSize        *float64                  `json:"lot_size,omitempty"`
	TradeDetails   *TradeDetails             `json:"trade_details,omitempty"`
}

// ValidationError reports caller input rejected at the boundary. Evaluation
// itself never raises it for missing answers; those fall back to permissive
// defaults.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
