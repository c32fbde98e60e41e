package coach

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/database"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/risk"
)

func testCoach(t *testing.T, cfg *config.Config) (*Coach, *journal.Store) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	store := journal.NewStore(db, zap.NewNop())
	return New(cfg, store, zap.NewNop(), rand.New(rand.NewSource(1))), store
}

func coachConfig() *config.Config {
	return &config.Config{
		Coach: config.Coach{
			DaysInactiveWarning:  3,
			PsychologyAnswerKeys: []string{"mental_state", "emotional_control"},
		},
	}
}

// appendTrade journals an allowed session aged by age, with the given final
// score, risk tier and raw psychology answers.
func appendTrade(t *testing.T, store *journal.Store, age time.Duration, score, riskPercent, mental float64) {
	t.Helper()
	decision := &risk.Decision{
		Timestamp:      time.Now().Add(-age),
		HardStops:      risk.HardStopOutcome{Passed: true},
		FinalScore:     score,
		CategoryScores: map[string]float64{},
		ShouldTrade:    true,
		RiskPercent:    riskPercent,
	}
	answers := risk.Answers{"mental_state": mental, "emotional_control": mental}
	_, err := store.Append(answers, risk.Stats{}, decision, "")
	require.NoError(t, err)
}

func appendBlocked(t *testing.T, store *journal.Store, age time.Duration) {
	t.Helper()
	decision := &risk.Decision{
		Timestamp:      time.Now().Add(-age),
		HardStops:      risk.HardStopOutcome{Passed: false, FailedChecks: []string{"slept 3.0h, minimum is 6.0h"}, Reason: "Hard stops failed: slept 3.0h, minimum is 6.0h"},
		CategoryScores: map[string]float64{},
	}
	_, err := store.Append(risk.Answers{"mental_state": 4.0}, risk.Stats{}, decision, "")
	require.NoError(t, err)
}

func findInsight(insights []Insight, kind string) *Insight {
	for i := range insights {
		if insights[i].Kind == kind {
			return &insights[i]
		}
	}
	return nil
}

func TestDailyMotivationIsDeterministicPerSeed(t *testing.T) {
	c1, _ := testCoach(t, coachConfig())
	c2, _ := testCoach(t, coachConfig())

	first := c1.DailyMotivation()

	assert.NotEmpty(t, first)
	assert.Contains(t, builtinMotivation, first)
	assert.Equal(t, first, c2.DailyMotivation()) // same seed, same pick
}

func TestInactivityNudge(t *testing.T) {
	t.Run("Empty journal stays quiet", func(t *testing.T) {
		coach, _ := testCoach(t, coachConfig())

		_, ok, err := coach.InactivityNudge()

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Recent trade stays quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		appendTrade(t, store, 24*time.Hour, 80, 3.0, 4)

		_, ok, err := coach.InactivityNudge()

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Long gap triggers the nudge with the day count", func(t *testing.T) {
		cfg := coachConfig()
		cfg.Coach.MotivationalMessages = []string{"Back to the desk: {days} days away."}
		coach, store := testCoach(t, cfg)
		appendTrade(t, store, 5*24*time.Hour, 80, 3.0, 4)

		msg, ok, err := coach.InactivityNudge()

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Back to the desk: 5 days away.", msg)
	})
}

func TestPsychologyPattern(t *testing.T) {
	t.Run("Low averages trigger the strong warning", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 4; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 80, 3.0, 2)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindPsychology)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "2.0/5")
	})

	t.Run("Middling averages trigger the mild warning", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 4; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 80, 3.0, 3.2)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindPsychology)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "middling")
	})

	t.Run("Healthy averages stay quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 4; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 80, 3.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		assert.Nil(t, findInsight(insights, KindPsychology))
	})

	t.Run("Too little data stays quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		appendTrade(t, store, time.Hour, 80, 3.0, 1)

		insights, err := coach.Insights()

		require.NoError(t, err)
		assert.Nil(t, findInsight(insights, KindPsychology))
	})
}

func TestRiskAppetite(t *testing.T) {
	t.Run("Mostly standard risk flags the high band", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 6; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 80, 3.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindRiskAppetite)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "6 of your last 6")
	})

	t.Run("Mostly reduced risk flags the low band", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 6; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 60, 2.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindRiskAppetite)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "Only 0 of your last 6")
	})

	t.Run("A mixed book stays quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 3; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 80, 3.0, 4)
		}
		for i := 3; i < 6; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 60, 2.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		assert.Nil(t, findInsight(insights, KindRiskAppetite))
	})

	t.Run("Too few trades stays quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 4; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 80, 3.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		assert.Nil(t, findInsight(insights, KindRiskAppetite))
	})
}

func TestScoreTrend(t *testing.T) {
	t.Run("Rising scores", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		// Oldest three at 50, newest three at 65.
		for i, score := range []float64{50, 50, 50, 65, 65, 65} {
			appendTrade(t, store, time.Duration(10-i)*time.Hour, score, 2.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindScoreTrend)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "trending up")
	})

	t.Run("Slipping scores", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i, score := range []float64{80, 80, 80, 60, 60, 60} {
			appendTrade(t, store, time.Duration(10-i)*time.Hour, score, 2.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindScoreTrend)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "slipping")
	})

	t.Run("Flat scores stay quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 6; i++ {
			appendTrade(t, store, time.Duration(10-i)*time.Hour, 70, 3.0, 4)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		assert.Nil(t, findInsight(insights, KindScoreTrend))
	})
}

func TestDiscipline(t *testing.T) {
	t.Run("Frequent hard stop failures get flagged", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 6; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 75, 3.0, 4)
		}
		for i := 6; i < 10; i++ {
			appendBlocked(t, store, time.Duration(i)*time.Hour)
		}

		insights, err := coach.Insights()

		require.NoError(t, err)
		insight := findInsight(insights, KindDiscipline)
		require.NotNil(t, insight)
		assert.Contains(t, insight.Message, "blocked 4 of your last 10")
	})

	t.Run("Occasional failures stay quiet", func(t *testing.T) {
		coach, store := testCoach(t, coachConfig())
		for i := 0; i < 8; i++ {
			appendTrade(t, store, time.Duration(i)*time.Hour, 75, 3.0, 4)
		}
		appendBlocked(t, store, 9*time.Hour)

		insights, err := coach.Insights()

		require.NoError(t, err)
		assert.Nil(t, findInsight(insights, KindDiscipline))
	})
}

func TestWeeklyReport(t *testing.T) {
	coach, store := testCoach(t, coachConfig())
	appendTrade(t, store, time.Hour, 80, 3.0, 4)
	appendTrade(t, store, 2*time.Hour, 60, 2.0, 4)
	appendBlocked(t, store, 3*time.Hour)

	report, err := coach.WeeklyReport()

	require.NoError(t, err)
	require.NotNil(t, report.Summary)
	assert.Equal(t, 3, report.Summary.TotalSessions)
	assert.Equal(t, 2, report.Summary.TradesTaken)
	assert.NotEmpty(t, report.Message)
}
