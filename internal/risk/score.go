package risk

import (
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/config"
)

// NumberCurve maps a raw numeric answer onto the 0..100 scale. Curves are
// registered per question id; a number question without one scores 0.
type NumberCurve func(value float64) float64

// SleepCurve scores hours of sleep. A full night scores 100 and short
// nights degrade in steps; under five hours scores 0.
func SleepCurve(hours float64) float64 {
	switch {
	case hours >= 8:
		return 100
	case hours >= 6:
		return 70
	case hours >= 5:
		return 50
	default:
		return 0
	}
}

// ScoreEngine normalizes raw answers and aggregates weighted category and
// final scores.
type ScoreEngine struct {
	cfg    *config.Config
	logger *zap.Logger
	curves map[string]NumberCurve
}

// NewScoreEngine creates a scorer with the sleep curve registered for the
// configured sleep question.
func NewScoreEngine(cfg *config.Config, logger *zap.Logger) *ScoreEngine {
	e := &ScoreEngine{
		cfg:    cfg,
		logger: logger,
		curves: make(map[string]NumberCurve),
	}
	e.RegisterCurve(cfg.HardStops.SleepQuestion, SleepCurve)
	return e
}

// RegisterCurve attaches a scoring curve to a number question id, replacing
// any previous curve for that id.
func (e *ScoreEngine) RegisterCurve(questionID string, curve NumberCurve) {
	e.curves[questionID] = curve
}

// Normalize maps a raw answer onto 0..100 for its question. Booleans score
// 100 or 0 (flipped when reverse_score is set), scales rescale linearly
// between their bounds, and numbers go through their registered curve.
func (e *ScoreEngine) Normalize(q config.QuestionSpec, raw any) float64 {
	switch q.Type {
	case config.QuestionTypeBoolean:
		v := cast.ToBool(raw)
		if q.ReverseScore {
			v = !v
		}
		if v {
			return 100
		}
		return 0

	case config.QuestionTypeScale:
		min, max := q.Bounds()
		score := (cast.ToFloat64(raw) - min) / (max - min) * 100
		return clamp(score, 0, 100)

	case config.QuestionTypeNumber:
		curve, ok := e.curves[q.ID]
		if !ok {
			e.logger.Warn("Number question has no scoring curve, scoring 0",
				zap.String("question_id", q.ID))
			return 0
		}
		return clamp(curve(cast.ToFloat64(raw)), 0, 100)

	default:
		return 0
	}
}

// ScoreCategory computes the weighted mean over the configured questions the
// trader actually answered, in configured order. Unanswered questions are
// skipped, never defaulted. A category with no answered weight scores 0.
func (e *ScoreEngine) ScoreCategory(category string, answers Answers) (float64, []AnswerRecord) {
	var (
		weightedSum float64
		totalWeight float64
		records     []AnswerRecord
	)

	for _, q := range e.cfg.QuestionsFor(category) {
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}
		normalized := e.Normalize(q, raw)
		weight := q.EffectiveWeight()
		weightedSum += normalized * weight
		totalWeight += weight
		records = append(records, AnswerRecord{
			QuestionID:   q.ID,
			QuestionText: q.Question,
			RawValue:     raw,
			Normalized:   normalized,
			Weight:       weight,
		})
	}

	if totalWeight == 0 {
		return 0, records
	}
	return weightedSum / totalWeight, records
}

// ScoreFinal walks the category table in order and combines category scores
// into the final 0..100 score using the configured category weights. A
// category without a configured weight contributes nothing to either side of
// the mean.
func (e *ScoreEngine) ScoreFinal(answers Answers) (float64, map[string]float64, map[string][]AnswerRecord) {
	scores := make(map[string]float64, len(config.Categories()))
	breakdown := make(map[string][]AnswerRecord, len(config.Categories()))

	var weightedSum, totalWeight float64
	for _, category := range config.Categories() {
		score, records := e.ScoreCategory(category, answers)
		scores[category] = score
		if len(records) > 0 {
			breakdown[category] = records
		}

		weight := e.cfg.Scoring.Weights[category]
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0, scores, breakdown
	}
	return weightedSum / totalWeight, scores, breakdown
}
