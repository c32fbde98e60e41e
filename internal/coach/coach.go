package coach

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/models"
)

// Insight kinds, used by renderers to pick an icon or a tone.
const (
	KindInactivity   = "inactivity"
	KindPsychology   = "psychology"
	KindRiskAppetite = "risk_appetite"
	KindScoreTrend   = "score_trend"
	KindDiscipline   = "discipline"
)

// Analysis windows and bands. The coach only speaks up once there is enough
// history to mean something.
const (
	psychologyWindow    = 7
	patternWindow       = 10
	minTradedSessions   = 5
	minTrendSessions    = 6
	psychologyLowBand   = 3.0
	psychologyMildBand  = 3.5
	maxRiskShareHigh    = 0.8
	maxRiskShareLow     = 0.2
	trendBand           = 10.0
	hardStopFailureRate = 0.3
)

// Insight is one finding the coach surfaces to the trader.
type Insight struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report is the weekly digest: journal numbers plus whatever patterns the
// coach found, closed with a motivational line.
type Report struct {
	Summary  *journal.Summary `json:"summary"`
	Insights []Insight        `json:"insights"`
	Message  string           `json:"message"`
}

var builtinMotivation = []string{
	"Process over outcome. Grade the execution, not the P&L.",
	"The market opens again tomorrow. Protecting capital is a position too.",
	"One clean setup beats five forced ones.",
	"Discipline is remembering what you wanted before the chart loaded.",
	"Small size, clear mind. You can always add when you earn the right.",
	"A red day with good decisions is a good day.",
	"Your edge only pays when you are there to take it calmly.",
	"Journal it now. Future you is the only reviewer who matters.",
}

// Coach derives behavioural insights from the journal. The random source is
// injected so message selection is reproducible in tests; it guards no
// shared state beyond the source itself, so one Coach serves one goroutine.
type Coach struct {
	cfg    *config.Config
	store  *journal.Store
	logger *zap.Logger
	rng    *rand.Rand
}

// New creates a coach over the journal.
func New(cfg *config.Config, store *journal.Store, logger *zap.Logger, rng *rand.Rand) *Coach {
	return &Coach{cfg: cfg, store: store, logger: logger, rng: rng}
}

// DailyMotivation picks one line from the built-in rotation.
func (c *Coach) DailyMotivation() string {
	return builtinMotivation[c.rng.Intn(len(builtinMotivation))]
}

// InactivityNudge reports whether the trader has been away long enough to
// deserve a nudge, and builds the message when so.
func (c *Coach) InactivityNudge() (string, bool, error) {
	days, ok, err := c.store.DaysSinceLastTrade()
	if err != nil {
		return "", false, err
	}
	if !ok || days < c.cfg.Coach.DaysInactiveWarning {
		return "", false, nil
	}

	messages := c.cfg.Coach.MotivationalMessages
	if len(messages) == 0 {
		messages = []string{"It has been {days} days since your last trade. Run a session when you see a setup, the routine matters more than the entry."}
	}
	msg := messages[c.rng.Intn(len(messages))]
	msg = strings.ReplaceAll(msg, "{days}", strconv.Itoa(days))
	return msg, true, nil
}

// Insights runs every analysis over the journal and returns the findings
// that cleared their bands, inactivity first.
func (c *Coach) Insights() ([]Insight, error) {
	var insights []Insight

	if msg, ok, err := c.InactivityNudge(); err != nil {
		return nil, err
	} else if ok {
		insights = append(insights, Insight{Kind: KindInactivity, Message: msg})
	}

	analyses := []func() (*Insight, error){
		c.psychologyPattern,
		c.riskAppetite,
		c.scoreTrend,
		c.discipline,
	}
	for _, analysis := range analyses {
		insight, err := analysis()
		if err != nil {
			return nil, err
		}
		if insight != nil {
			insights = append(insights, *insight)
		}
	}

	c.logger.Debug("Coach analysis complete", zap.Int("insights", len(insights)))
	return insights, nil
}

// WeeklyReport combines the 7-day journal summary with the current insights.
func (c *Coach) WeeklyReport() (*Report, error) {
	summary, err := c.store.Stats(7)
	if err != nil {
		return nil, err
	}
	insights, err := c.Insights()
	if err != nil {
		return nil, err
	}
	return &Report{
		Summary:  summary,
		Insights: insights,
		Message:  c.DailyMotivation(),
	}, nil
}

// psychologyPattern averages the raw psychology answers of the last week and
// warns when the trader keeps showing up in a bad state.
func (c *Coach) psychologyPattern() (*Insight, error) {
	sessions, err := c.store.Recent(psychologyWindow, false)
	if err != nil {
		return nil, err
	}

	keys := c.cfg.Coach.PsychologyAnswerKeys
	if len(keys) == 0 {
		keys = []string{"mental_state", "emotional_control"}
	}

	var sum float64
	var count int
	for _, session := range sessions {
		answers, err := journal.DecodeAnswers(session)
		if err != nil {
			c.logger.Warn("Skipping session with unreadable answers",
				zap.String("session_id", session.SessionID), zap.Error(err))
			continue
		}
		for _, key := range keys {
			raw, ok := answers[key]
			if !ok {
				continue
			}
			sum += cast.ToFloat64(raw)
			count++
		}
	}
	if count < 3 {
		return nil, nil
	}

	avg := sum / float64(count)
	switch {
	case avg < psychologyLowBand:
		return &Insight{
			Kind:    KindPsychology,
			Message: fmt.Sprintf("Your psychology answers averaged %.1f/5 this week. Trade smaller or take a day off before the market takes it from you.", avg),
		}, nil
	case avg < psychologyMildBand:
		return &Insight{
			Kind:    KindPsychology,
			Message: fmt.Sprintf("Psychology has been middling (%.1f/5 on average). Keep an eye on sleep and stress before sizing up.", avg),
		}, nil
	}
	return nil, nil
}

// riskAppetite looks at how often the recent traded sessions ran at the
// standard 3% and flags both extremes.
func (c *Coach) riskAppetite() (*Insight, error) {
	sessions, err := c.store.Recent(patternWindow, true)
	if err != nil {
		return nil, err
	}
	if len(sessions) < minTradedSessions {
		return nil, nil
	}

	var standard int
	for _, session := range sessions {
		if session.RiskPercent >= 3.0 {
			standard++
		}
	}
	share := float64(standard) / float64(len(sessions))

	switch {
	case share > maxRiskShareHigh:
		return &Insight{
			Kind:    KindRiskAppetite,
			Message: fmt.Sprintf("%d of your last %d trades ran at full 3%% risk. Strong scores are good; make sure the sizing still matches the setup quality.", standard, len(sessions)),
		}, nil
	case share < maxRiskShareLow:
		return &Insight{
			Kind:    KindRiskAppetite,
			Message: fmt.Sprintf("Only %d of your last %d trades reached 3%% risk. If the preparation scores keep coming in soft, look at what is dragging them.", standard, len(sessions)),
		}, nil
	}
	return nil, nil
}

// scoreTrend compares the newest three scores with the oldest three of the
// recent window.
func (c *Coach) scoreTrend() (*Insight, error) {
	sessions, err := c.store.Recent(patternWindow, false)
	if err != nil {
		return nil, err
	}
	if len(sessions) < minTrendSessions {
		return nil, nil
	}

	// Recent returns newest first: the head is now, the tail is then.
	newest := meanScore(sessions[:3])
	oldest := meanScore(sessions[len(sessions)-3:])
	diff := newest - oldest

	switch {
	case diff >= trendBand:
		return &Insight{
			Kind:    KindScoreTrend,
			Message: fmt.Sprintf("Your preparation scores are trending up (%.0f -> %.0f). Whatever changed, keep doing it.", oldest, newest),
		}, nil
	case diff <= -trendBand:
		return &Insight{
			Kind:    KindScoreTrend,
			Message: fmt.Sprintf("Your preparation scores are slipping (%.0f -> %.0f). Review the last few journals before the next session.", oldest, newest),
		}, nil
	}
	return nil, nil
}

// discipline flags a high hard-stop failure rate: showing up to evaluate is
// good, showing up in no state to trade is the pattern to break.
func (c *Coach) discipline() (*Insight, error) {
	sessions, err := c.store.Recent(patternWindow, false)
	if err != nil {
		return nil, err
	}
	if len(sessions) < minTradedSessions {
		return nil, nil
	}

	var failed int
	for _, session := range sessions {
		if !session.HardStopsPassed {
			failed++
		}
	}
	rate := float64(failed) / float64(len(sessions))
	if rate > hardStopFailureRate {
		return &Insight{
			Kind:    KindDiscipline,
			Message: fmt.Sprintf("Hard stops blocked %d of your last %d sessions. The blocks are doing their job; fix the inputs, not the rules.", failed, len(sessions)),
		}, nil
	}
	return nil, nil
}

func meanScore(sessions []models.Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, session := range sessions {
		sum += session.FinalScore
	}
	return sum / float64(len(sessions))
}
