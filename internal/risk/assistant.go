package risk

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/config"
)

// Assistant wires the hard-stop gate, the score engine and the risk decider
// into the full evaluation pipeline. It holds no per-session state: every
// call to Evaluate recomputes from its inputs and the loaded rules, so the
// same answers and stats always reproduce the same scores.
type Assistant struct {
	cfg     *config.Config
	logger  *zap.Logger
	gate    *HardStopGate
	scorer  *ScoreEngine
	decider *RiskDecider
}

// NewAssistant creates the evaluation pipeline for a loaded rule set.
func NewAssistant(cfg *config.Config, logger *zap.Logger) *Assistant {
	return &Assistant{
		cfg:     cfg,
		logger:  logger,
		gate:    NewHardStopGate(cfg.HardStops),
		scorer:  NewScoreEngine(cfg, logger),
		decider: NewRiskDecider(cfg),
	}
}

// RegisterCurve attaches a scoring curve to a number question id.
func (a *Assistant) RegisterCurve(questionID string, curve NumberCurve) {
	a.scorer.RegisterCurve(questionID, curve)
}

// Questions exposes the configured question lists per category so collectors
// (CLI prompts, API clients) can drive a session without reading the rule
// config themselves.
func (a *Assistant) Questions() map[string][]config.QuestionSpec {
	questions := make(map[string][]config.QuestionSpec, len(config.Categories()))
	for _, category := range config.Categories() {
		questions[category] = a.cfg.QuestionsFor(category)
	}
	return questions
}

// Evaluate runs one complete assessment. Hard stops run first; when any
// fail, scoring never runs and the decision comes back zeroed apart from the
// gate outcome and timestamp. Otherwise the final score decides the risk
// tier, and the lot size is computed only when trading is allowed and trade
// details were supplied. A failed gate is a valid decision, not an error;
// the only error path is invalid trade details.
func (a *Assistant) Evaluate(answers Answers, stats Stats, details *TradeDetails) (*Decision, error) {
	decision := &Decision{
		Timestamp:      time.Now(),
		CategoryScores: make(map[string]float64),
	}

	decision.HardStops = a.gate.Evaluate(answers, stats)
	if !decision.HardStops.Passed {
		a.logger.Warn("Hard stops failed, session blocked",
			zap.Strings("failed_checks", decision.HardStops.FailedChecks))
		return decision, nil
	}

	final, scores, breakdown := a.scorer.ScoreFinal(answers)
	decision.FinalScore = final
	decision.CategoryScores = scores
	decision.Breakdown = breakdown

	decision.ShouldTrade, decision.RiskPercent = a.decider.Decide(final)
	a.logger.Info("Evaluation complete",
		zap.Float64("final_score", final),
		zap.Bool("should_trade", decision.ShouldTrade),
		zap.Float64("risk_percent", decision.RiskPercent))

	if decision.ShouldTrade && details != nil {
		lot, err := a.decider.LotSize(decision.RiskPercent, *details)
		if err != nil {
			return nil, err
		}
		decision.LotSize = &lot
		detailsCopy := *details
		decision.TradeDetails = &detailsCopy
	}

	return decision, nil
}

// ValidateAnswers checks caller-supplied answers against the configured
// question shapes: booleans must be bool, scales and numbers must be numeric
// and within their bounds. Keys that match no configured question are
// ignored, the same way scoring ignores them.
func (a *Assistant) ValidateAnswers(answers Answers) error {
	for id, raw := range answers {
		q, ok := a.cfg.FindQuestion(id)
		if !ok {
			continue
		}

		switch q.Type {
		case config.QuestionTypeBoolean:
			if _, err := cast.ToBoolE(raw); err != nil {
				return &ValidationError{Field: id, Reason: "expected a boolean answer"}
			}
		case config.QuestionTypeScale, config.QuestionTypeNumber:
			v, err := cast.ToFloat64E(raw)
			if err != nil {
				return &ValidationError{Field: id, Reason: "expected a numeric answer"}
			}
			if min, max := q.Bounds(); v < min || v > max {
				return &ValidationError{
					Field:  id,
					Reason: fmt.Sprintf("value %v outside range %v..%v", raw, min, max),
				}
			}
		}
	}
	return nil
}
