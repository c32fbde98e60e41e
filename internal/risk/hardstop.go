package risk

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"trading-risk-assistant-go/internal/config"
)

// hardStopCheck is one row of the gate table. It returns a human-readable
// failure description, or an empty string when the check passes.
type hardStopCheck func(rules config.HardStops, answers Answers, stats Stats) string

// HardStopGate runs the non-negotiable checks that precede all scoring.
// Every check runs on every evaluation so the trader sees all failures at
// once, not just the first.
type HardStopGate struct {
	rules  config.HardStops
	checks []hardStopCheck
}

// NewHardStopGate creates a gate with the standard check table.
func NewHardStopGate(rules config.HardStops) *HardStopGate {
	return &HardStopGate{
		rules: rules,
		checks: []hardStopCheck{
			checkConsecutiveLosses,
			checkDailyLoss,
			checkSleep,
			checkMentalState,
			checkClearBias,
		},
	}
}

// Evaluate runs every check in order. Missing answer keys coerce to zero
// values rather than erroring, which fails the corresponding check.
func (g *HardStopGate) Evaluate(answers Answers, stats Stats) HardStopOutcome {
	var failed []string
	for _, check := range g.checks {
		if msg := check(g.rules, answers, stats); msg != "" {
			failed = append(failed, msg)
		}
	}

	outcome := HardStopOutcome{Passed: len(failed) == 0, FailedChecks: failed}
	if !outcome.Passed {
		outcome.Reason = "Hard stops failed: " + strings.Join(failed, "; ")
	}
	return outcome
}

func checkConsecutiveLosses(rules config.HardStops, _ Answers, stats Stats) string {
	if stats.ConsecutiveLosses >= rules.MaxConsecutiveLosses {
		return fmt.Sprintf("consecutive losses (%d) reached the limit (%d)",
			stats.ConsecutiveLosses, rules.MaxConsecutiveLosses)
	}
	return ""
}

func checkDailyLoss(rules config.HardStops, _ Answers, stats Stats) string {
	if stats.DailyLossPercent >= rules.MaxDailyLossPercent {
		return fmt.Sprintf("daily loss (%.1f%%) reached the limit (%.1f%%)",
			stats.DailyLossPercent, rules.MaxDailyLossPercent)
	}
	return ""
}

func checkSleep(rules config.HardStops, answers Answers, _ Stats) string {
	sleep := cast.ToFloat64(answers[rules.SleepQuestion])
	if sleep < rules.MinSleepHours {
		return fmt.Sprintf("slept %.1fh, minimum is %.1fh", sleep, rules.MinSleepHours)
	}
	return ""
}

func checkMentalState(rules config.HardStops, answers Answers, _ Stats) string {
	state := cast.ToFloat64(answers[rules.MentalStateQuestion])
	if state < rules.PsychologyMinScore {
		return fmt.Sprintf("mental state (%.1f) below the minimum (%.1f)", state, rules.PsychologyMinScore)
	}
	return ""
}

func checkClearBias(rules config.HardStops, answers Answers, _ Stats) string {
	if rules.RequireClearBias && !cast.ToBool(answers[rules.BiasQuestion]) {
		return "no clear directional bias"
	}
	return ""
}
