package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/risk"
)

// numberValidator builds a survey validator for a numeric answer inside a range.
func numberValidator(min, max float64) survey.Validator {
	return func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected a number")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("please enter a valid number")
		}
		if v < min || v > max {
			return fmt.Errorf("value must be between %v and %v", min, max)
		}
		return nil
	}
}

// askNumber prompts for a float inside a range.
func askNumber(message string, min, max float64) (float64, error) {
	var raw string
	prompt := &survey.Input{
		Message: fmt.Sprintf("%s [%v-%v]:", message, min, max),
	}
	if err := survey.AskOne(prompt, &raw, survey.WithValidator(numberValidator(min, max))); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// askConfirm prompts for a yes/no answer.
func askConfirm(message string, def bool) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: message, Default: def}
	err := survey.AskOne(prompt, &answer)
	return answer, err
}

// CollectStats asks for the running account stats the hard stops check.
func CollectStats() (risk.Stats, error) {
	var stats risk.Stats

	losses, err := askNumber("How many consecutive losses are you on?", 0, 10)
	if err != nil {
		return stats, err
	}
	stats.ConsecutiveLosses = int(losses)

	stats.DailyLossPercent, err = askNumber("How much have you lost today, in percent?", 0, 100)
	return stats, err
}

// CollectAnswers walks the configured questions category by category and
// returns the raw answers keyed by question id.
func CollectAnswers(questions map[string][]config.QuestionSpec) (risk.Answers, error) {
	answers := risk.Answers{}

	for _, category := range config.Categories() {
		specs := questions[category]
		if len(specs) == 0 {
			continue
		}
		fmt.Printf("\n%s\n\n", CategoryTitle(category))

		for _, q := range specs {
			switch q.Type {
			case config.QuestionTypeBoolean:
				answer, err := askConfirm(q.Question, false)
				if err != nil {
					return nil, err
				}
				answers[q.ID] = answer

			case config.QuestionTypeScale:
				min, max := q.Bounds()
				answer, err := askNumber(q.Question, min, max)
				if err != nil {
					return nil, err
				}
				answers[q.ID] = int(answer)

			case config.QuestionTypeNumber:
				min, max := q.Bounds()
				answer, err := askNumber(q.Question, min, max)
				if err != nil {
					return nil, err
				}
				answers[q.ID] = answer
			}
		}
	}
	return answers, nil
}

// CollectTradeDetails asks for the sizing inputs of the planned trade.
func CollectTradeDetails() (*risk.TradeDetails, error) {
	balance, err := askNumber("Account balance (USD)", 1, 1_000_000)
	if err != nil {
		return nil, err
	}
	slPips, err := askNumber("Stop loss distance in pips", 1, 500)
	if err != nil {
		return nil, err
	}

	var instrument string
	prompt := &survey.Input{Message: "Instrument (e.g. EURUSD):"}
	err = survey.AskOne(prompt, &instrument, survey.WithValidator(survey.Required))
	if err != nil {
		return nil, err
	}

	return &risk.TradeDetails{
		AccountBalance: balance,
		StopLossPips:   slPips,
		Instrument:     strings.ToUpper(strings.TrimSpace(instrument)),
	}, nil
}

// CollectNotes asks for optional free-form journal notes.
func CollectNotes() (string, error) {
	var notes string
	prompt := &survey.Input{Message: "Notes for the journal (optional):"}
	err := survey.AskOne(prompt, &notes)
	return strings.TrimSpace(notes), err
}
