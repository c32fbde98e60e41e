package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trading-risk-assistant-go/internal/config"
)

func testHardStops() config.HardStops {
	return config.HardStops{
		MaxConsecutiveLosses: 3,
		MaxDailyLossPercent:  5,
		MinSleepHours:        6,
		PsychologyMinScore:   3,
		RequireClearBias:     true,
		SleepQuestion:        "sleep_quality",
		MentalStateQuestion:  "mental_state",
		BiasQuestion:         "clear_bias",
	}
}

func restedAnswers() Answers {
	return Answers{
		"sleep_quality": 8.0,
		"mental_state":  4,
		"clear_bias":    true,
	}
}

func TestHardStopGateEvaluate(t *testing.T) {
	testCases := []struct {
		name         string
		answers      Answers
		stats        Stats
		expectPassed bool
		expectChecks int
	}{
		{
			name:         "All checks pass",
			answers:      restedAnswers(),
			stats:        Stats{ConsecutiveLosses: 0, DailyLossPercent: 0},
			expectPassed: true,
			expectChecks: 0,
		},
		{
			name:         "Consecutive losses at the limit",
			answers:      restedAnswers(),
			stats:        Stats{ConsecutiveLosses: 3},
			expectPassed: false,
			expectChecks: 1,
		},
		{
			name:         "Daily loss at the limit",
			answers:      restedAnswers(),
			stats:        Stats{DailyLossPercent: 5},
			expectPassed: false,
			expectChecks: 1,
		},
		{
			name: "Too little sleep",
			answers: Answers{
				"sleep_quality": 4.5,
				"mental_state":  4,
				"clear_bias":    true,
			},
			expectPassed: false,
			expectChecks: 1,
		},
		{
			name: "Mental state below minimum",
			answers: Answers{
				"sleep_quality": 8.0,
				"mental_state":  2,
				"clear_bias":    true,
			},
			expectPassed: false,
			expectChecks: 1,
		},
		{
			name: "No directional bias",
			answers: Answers{
				"sleep_quality": 8.0,
				"mental_state":  4,
				"clear_bias":    false,
			},
			expectPassed: false,
			expectChecks: 1,
		},
		{
			name:         "Missing answers fail their checks",
			answers:      Answers{},
			stats:        Stats{},
			expectPassed: false,
			expectChecks: 3, // sleep, mental state and bias all read zero values
		},
		{
			name: "Multiple failures reported together",
			answers: Answers{
				"sleep_quality": 3.0,
				"mental_state":  1,
				"clear_bias":    false,
			},
			stats:        Stats{ConsecutiveLosses: 5, DailyLossPercent: 9},
			expectPassed: false,
			expectChecks: 5,
		},
	}

	gate := NewHardStopGate(testHardStops())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := gate.Evaluate(tc.answers, tc.stats)

			assert.Equal(t, tc.expectPassed, outcome.Passed)
			assert.Len(t, outcome.FailedChecks, tc.expectChecks)
			if tc.expectPassed {
				assert.Empty(t, outcome.Reason)
			} else {
				assert.Contains(t, outcome.Reason, "Hard stops failed: ")
			}
		})
	}
}

func TestHardStopGateReasonJoinsAllFailures(t *testing.T) {
	gate := NewHardStopGate(testHardStops())

	outcome := gate.Evaluate(Answers{
		"sleep_quality": 8.0,
		"mental_state":  4,
		"clear_bias":    false,
	}, Stats{ConsecutiveLosses: 4})

	assert.False(t, outcome.Passed)
	assert.Len(t, outcome.FailedChecks, 2)
	assert.Contains(t, outcome.Reason, "consecutive losses (4) reached the limit (3)")
	assert.Contains(t, outcome.Reason, "no clear directional bias")
	assert.Contains(t, outcome.Reason, "; ")
}

func TestHardStopGateBiasNotRequired(t *testing.T) {
	rules := testHardStops()
	rules.RequireClearBias = false
	gate := NewHardStopGate(rules)

	outcome := gate.Evaluate(Answers{
		"sleep_quality": 8.0,
		"mental_state":  4,
		// clear_bias deliberately missing
	}, Stats{})

	assert.True(t, outcome.Passed)
}
