package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Question types understood by the scoring engine.
const (
	QuestionTypeBoolean = "boolean"
	QuestionTypeScale   = "scale"
	QuestionTypeNumber  = "number"
)

// Scored categories. Every evaluation walks these in order.
const (
	CategoryPsychology          = "psychology"
	CategoryMarketConditions    = "market_conditions"
	CategoryTechnicalConfluence = "technical_confluence"
)

// Categories returns the scored categories in evaluation order.
func Categories() []string {
	return []string{CategoryPsychology, CategoryMarketConditions, CategoryTechnicalConfluence}
}

// Config holds all configuration for the application.
type Config struct {
	HardStops      HardStops                 `mapstructure:"hard_stops"`
	Questions      map[string][]QuestionSpec `mapstructure:"questions"`
	Scoring        Scoring                   `mapstructure:"scoring"`
	LotCalculation LotCalculation            `mapstructure:"lot_calculation"`
	Coach          Coach                     `mapstructure:"coach"`
	Telegram       Telegram                  `mapstructure:"telegram"`
	Logger         Logger                    `mapstructure:"logger"`
	Server         Server                    `mapstructure:"server"`
	Database       Database                  `mapstructure:"database"`
}

// HardStops holds the non-negotiable limits checked before any scoring runs.
// The *Question fields name the answer keys the checks read.
type HardStops struct {
	MaxConsecutiveLosses int     `mapstructure:"max_consecutive_losses"`
	MaxDailyLossPercent  float64 `mapstructure:"max_daily_loss_percent"`
	MinSleepHours        float64 `mapstructure:"min_sleep_hours"`
	PsychologyMinScore   float64 `mapstructure:"psychology_min_score"`
	RequireClearBias     bool    `mapstructure:"require_clear_bias"`
	SleepQuestion        string  `mapstructure:"sleep_question"`
	MentalStateQuestion  string  `mapstructure:"mental_state_question"`
	BiasQuestion         string  `mapstructure:"bias_question"`
}

// QuestionSpec describes a single assessment question. The json tags serve
// the /api/questions collector contract.
type QuestionSpec struct {
	ID           string   `mapstructure:"id" json:"id"`
	Question     string   `mapstructure:"question" json:"question"`
	Type         string   `mapstructure:"type" json:"type"`
	Min          float64  `mapstructure:"min" json:"min,omitempty"`
	Max          float64  `mapstructure:"max" json:"max,omitempty"`
	Weight       *float64 `mapstructure:"weight" json:"weight,omitempty"`
	ReverseScore bool     `mapstructure:"reverse_score" json:"reverse_score,omitempty"`
}

// EffectiveWeight returns the configured weight, defaulting to 1.0 when the
// key is omitted. An explicit zero keeps the question out of the weighted mean.
func (q QuestionSpec) EffectiveWeight() float64 {
	if q.Weight == nil {
		return 1.0
	}
	return *q.Weight
}

// Bounds returns the answer range for scale and number questions. A question
// with neither bound set gets the 1..5 scale the rules assume by default.
func (q QuestionSpec) Bounds() (min, max float64) {
	if q.Min == 0 && q.Max == 0 {
		return 1, 5
	}
	return q.Min, q.Max
}

// Scoring holds the category weights and decision thresholds.
type Scoring struct {
	Weights    map[string]float64 `mapstructure:"weights"`
	Thresholds Thresholds         `mapstructure:"thresholds"`
}

// Thresholds are the final-score cutoffs between risk tiers.
type Thresholds struct {
	NoTrade      float64 `mapstructure:"no_trade"`
	Risk2Percent float64 `mapstructure:"risk_2_percent"`
}

// LotCalculation holds the position sizing parameters.
type LotCalculation struct {
	PipValues  map[string]float64 `mapstructure:"pip_values"`
	MinLotSize float64            `mapstructure:"min_lot_size"`
	MaxLotSize float64            `mapstructure:"max_lot_size"`
}

// PipValue returns the per-lot pip value for an instrument. Lookup is
// case-insensitive and unknown instruments fall back to 10.
func (l LotCalculation) PipValue(instrument string) float64 {
	if v, ok := l.PipValues[strings.ToUpper(instrument)]; ok {
		return v
	}
	return 10
}

// Coach holds the parameters for the coaching layer.
type Coach struct {
	DaysInactiveWarning  int      `mapstructure:"days_inactive_warning"`
	MotivationalMessages []string `mapstructure:"motivational_messages"`
	PsychologyAnswerKeys []string `mapstructure:"psychology_answer_keys"`
}

// Telegram holds the configuration for the Telegram client.
type Telegram struct {
	Enabled   bool    `mapstructure:"enabled"`
	Token     string  `mapstructure:"token"`
	ChatID    string  `mapstructure:"chat_id"`
	RateLimit float64 `mapstructure:"rate_limit"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port        int    `mapstructure:"port"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// ConfigError reports a rule configuration problem. It is fatal: the
// process must not start evaluating with a broken rule set.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// LoadConfig reads configuration from file or environment variables and
// validates it. The returned config is immutable for the process lifetime
// and safe to share across goroutines.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("hard_stops.max_consecutive_losses", 3)
	v.SetDefault("hard_stops.max_daily_loss_percent", 5.0)
	v.SetDefault("hard_stops.min_sleep_hours", 6)
	v.SetDefault("hard_stops.psychology_min_score", 3)
	v.SetDefault("hard_stops.require_clear_bias", true)
	v.SetDefault("hard_stops.sleep_question", "sleep_quality")
	v.SetDefault("hard_stops.mental_state_question", "mental_state")
	v.SetDefault("hard_stops.bias_question", "clear_bias")
	v.SetDefault("scoring.thresholds.no_trade", 50)
	v.SetDefault("scoring.thresholds.risk_2_percent", 70)
	v.SetDefault("lot_calculation.min_lot_size", 0.01)
	v.SetDefault("lot_calculation.max_lot_size", 10.0)
	v.SetDefault("coach.days_inactive_warning", 3)
	v.SetDefault("telegram.rate_limit", 1) // messages per second
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("database.dsn", "risk_assistant.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the loaded rule set and returns a *ConfigError for the
// first problem found.
func (c *Config) Validate() error {
	if c.HardStops.MaxConsecutiveLosses < 0 {
		return &ConfigError{Key: "hard_stops.max_consecutive_losses", Reason: "must not be negative"}
	}
	if c.HardStops.MaxDailyLossPercent < 0 {
		return &ConfigError{Key: "hard_stops.max_daily_loss_percent", Reason: "must not be negative"}
	}
	if c.HardStops.MinSleepHours < 0 {
		return &ConfigError{Key: "hard_stops.min_sleep_hours", Reason: "must not be negative"}
	}

	seen := make(map[string]bool)
	for category, questions := range c.Questions {
		for i, q := range questions {
			key := fmt.Sprintf("questions.%s[%d]", category, i)
			if q.ID == "" {
				return &ConfigError{Key: key + ".id", Reason: "missing question id"}
			}
			if seen[q.ID] {
				return &ConfigError{Key: key + ".id", Reason: fmt.Sprintf("duplicate question id %q", q.ID)}
			}
			seen[q.ID] = true
			if q.Question == "" {
				return &ConfigError{Key: key + ".question", Reason: "missing question text"}
			}
			switch q.Type {
			case QuestionTypeBoolean:
			case QuestionTypeScale, QuestionTypeNumber:
				if min, max := q.Bounds(); min >= max {
					return &ConfigError{Key: key, Reason: fmt.Sprintf("min %v must be below max %v", min, max)}
				}
			default:
				return &ConfigError{Key: key + ".type", Reason: fmt.Sprintf("unknown question type %q", q.Type)}
			}
			if q.EffectiveWeight() < 0 {
				return &ConfigError{Key: key + ".weight", Reason: "must not be negative"}
			}
		}
	}

	for category, weight := range c.Scoring.Weights {
		if weight < 0 {
			return &ConfigError{Key: "scoring.weights." + category, Reason: "must not be negative"}
		}
	}
	if c.Scoring.Thresholds.NoTrade < 0 {
		return &ConfigError{Key: "scoring.thresholds.no_trade", Reason: "must not be negative"}
	}
	if c.Scoring.Thresholds.NoTrade >= c.Scoring.Thresholds.Risk2Percent {
		return &ConfigError{
			Key:    "scoring.thresholds",
			Reason: fmt.Sprintf("no_trade %v must be below risk_2_percent %v", c.Scoring.Thresholds.NoTrade, c.Scoring.Thresholds.Risk2Percent),
		}
	}

	if c.LotCalculation.MinLotSize <= 0 {
		return &ConfigError{Key: "lot_calculation.min_lot_size", Reason: "must be positive"}
	}
	if c.LotCalculation.MaxLotSize < c.LotCalculation.MinLotSize {
		return &ConfigError{Key: "lot_calculation.max_lot_size", Reason: "must not be below min_lot_size"}
	}
	for instrument, value := range c.LotCalculation.PipValues {
		if value <= 0 {
			return &ConfigError{Key: "lot_calculation.pip_values." + instrument, Reason: "must be positive"}
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return &ConfigError{Key: "telegram.token", Reason: "required when telegram is enabled"}
		}
		if c.Telegram.ChatID == "" {
			return &ConfigError{Key: "telegram.chat_id", Reason: "required when telegram is enabled"}
		}
	}
	return nil
}

// QuestionsFor returns the configured questions for a category in their
// configured order.
func (c *Config) QuestionsFor(category string) []QuestionSpec {
	return c.Questions[category]
}

// FindQuestion looks a question up by id across all categories.
func (c *Config) FindQuestion(id string) (QuestionSpec, bool) {
	for _, questions := range c.Questions {
		for _, q := range questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return QuestionSpec{}, false
}
