package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"trading-risk-assistant-go/internal/risk"
)

// Outcome labels for the evaluations counter.
const (
	OutcomeHardStop = "hard_stop"
	OutcomeNoTrade  = "no_trade"
	OutcomeRisk2    = "risk_2"
	OutcomeRisk3    = "risk_3"
)

var (
	EvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_evaluations_total",
		Help: "Evaluations served, labeled by decision outcome",
	}, []string{"outcome"})

	FinalScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_final_score",
		Help:    "Final scores of evaluations that passed the hard stops",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	HardStopFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assistant_hard_stop_failures_total",
		Help: "Evaluations blocked by the hard-stop gate",
	})

	SessionsJournaled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assistant_sessions_journaled_total",
		Help: "Sessions persisted to the journal",
	})
)

func init() {
	prometheus.MustRegister(
		EvaluationsTotal,
		FinalScore,
		HardStopFailures,
		SessionsJournaled,
	)
}

// RecordDecision updates the evaluation metrics for one decision.
func RecordDecision(decision *risk.Decision) {
	EvaluationsTotal.WithLabelValues(Outcome(decision)).Inc()
	if !decision.HardStops.Passed {
		HardStopFailures.Inc()
		return
	}
	FinalScore.Observe(decision.FinalScore)
}

// Outcome maps a decision onto its counter label.
func Outcome(decision *risk.Decision) string {
	switch {
	case !decision.HardStops.Passed:
		return OutcomeHardStop
	case !decision.ShouldTrade:
		return OutcomeNoTrade
	case decision.RiskPercent >= risk.RiskPercentStandard:
		return OutcomeRisk3
	default:
		return OutcomeRisk2
	}
}
