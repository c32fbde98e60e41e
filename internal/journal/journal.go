package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trading-risk-assistant-go/internal/id"
	"trading-risk-assistant-go/internal/models"
	"trading-risk-assistant-go/internal/risk"
)

// Store persists completed assessment sessions and answers the queries the
// coach, the CLI and the HTTP API need. The evaluation pipeline itself never
// reads the journal.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a journal store over an open database.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Summary aggregates journal activity over a trailing window of days.
type Summary struct {
	Days          int     `json:"days"`
	TotalSessions int     `json:"total_sessions"`
	TradesTaken   int     `json:"trades_taken"`
	AvgScore      float64 `json:"avg_score"`
	TradeRate     float64 `json:"trade_rate"` // percent of sessions that allowed a trade
	Risk2Count    int     `json:"risk_2_count"`
	Risk3Count    int     `json:"risk_3_count"`
	HardStopFails int     `json:"hard_stop_fails"`
}

// Append records a completed evaluation together with the raw answers and
// optional notes, and returns the stored session.
func (s *Store) Append(answers risk.Answers, stats risk.Stats, decision *risk.Decision, notes string) (*models.Session, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	scoresJSON, err := json.Marshal(decision.CategoryScores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode category scores: %w", err)
	}

	session := &models.Session{
		SessionID:         id.NewSession(),
		Timestamp:         decision.Timestamp.Unix(),
		ConsecutiveLosses: stats.ConsecutiveLosses,
		DailyLossPercent:  stats.DailyLossPercent,
		HardStopsPassed:   decision.HardStops.Passed,
		HardStopReason:    decision.HardStops.Reason,
		FinalScore:        decision.FinalScore,
		ShouldTrade:       decision.ShouldTrade,
		RiskPercent:       decision.RiskPercent,
		Answers:           string(answersJSON),
		CategoryScores:    string(scoresJSON),
		Notes:             notes,
	}
	if decision.TradeDetails != nil {
		session.AccountBalance = decision.TradeDetails.AccountBalance
		session.StopLossPips = decision.TradeDetails.StopLossPips
		session.Instrument = decision.TradeDetails.Instrument
	}
	if decision.LotSize != nil {
		session.LotSize = *decision.LotSize
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Session journaled",
		zap.String("session_id", session.SessionID),
		zap.Float64("final_score", session.FinalScore),
		zap.Bool("should_trade", session.ShouldTrade))
	return session, nil
}

// Recent returns the newest sessions first. A limit of 0 returns everything;
// tradedOnly restricts the listing to sessions where trading was allowed.
func (s *Store) Recent(limit int, tradedOnly bool) ([]models.Session, error) {
	query := s.db.Order("timestamp desc")
	if tradedOnly {
		query = query.Where("should_trade = ?", true)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return sessions, nil
}

// DaysSinceLastTrade reports how many days have passed since the newest
// session that allowed a trade. ok is false when the journal has none.
func (s *Store) DaysSinceLastTrade() (days int, ok bool, err error) {
	var session models.Session
	result := s.db.Where("should_trade = ?", true).Order("timestamp desc").First(&session)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if result.Error != nil {
		return 0, false, fmt.Errorf("failed to query last trade: %w", result.Error)
	}

	days = int(time.Since(time.Unix(session.Timestamp, 0)).Hours() / 24)
	return days, true, nil
}

// Stats aggregates the sessions of the trailing window. Blocked sessions
// count into the average with their zero score; that is the honest view of
// the week.
func (s *Store) Stats(days int) (*Summary, error) {
	since := time.Now().AddDate(0, 0, -days).Unix()

	var sessions []models.Session
	if err := s.db.Where("timestamp >= ?", since).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	summary := &Summary{Days: days, TotalSessions: len(sessions)}
	var scoreSum float64
	for _, session := range sessions {
		scoreSum += session.FinalScore
		if session.ShouldTrade {
			summary.TradesTaken++
		}
		if !session.HardStopsPassed {
			summary.HardStopFails++
		}
		switch session.RiskPercent {
		case risk.RiskPercentReduced:
			summary.Risk2Count++
		case risk.RiskPercentStandard:
			summary.Risk3Count++
		}
	}

	if summary.TotalSessions > 0 {
		summary.AvgScore = scoreSum / float64(summary.TotalSessions)
		summary.TradeRate = float64(summary.TradesTaken) / float64(summary.TotalSessions) * 100
	}
	return summary, nil
}

// DecodeAnswers unpacks the raw answers column of a stored session.
func DecodeAnswers(session models.Session) (risk.Answers, error) {
	answers := risk.Answers{}
	if session.Answers == "" {
		return answers, nil
	}
	if err := json.Unmarshal([]byte(session.Answers), &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers for session %s: %w", session.SessionID, err)
	}
	return answers, nil
}

// DecodeCategoryScores unpacks the category scores column of a stored session.
func DecodeCategoryScores(session models.Session) (map[string]float64, error) {
	scores := map[string]float64{}
	if session.CategoryScores == "" {
		return scores, nil
	}
	if err := json.Unmarshal([]byte(session.CategoryScores), &scores); err != nil {
		return nil, fmt.Errorf("failed to decode category scores for session %s: %w", session.SessionID, err)
	}
	return scores, nil
}
