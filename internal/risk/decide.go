package risk

import (
	"math"

	"trading-risk-assistant-go/internal/config"
)

// Risk tiers, in percent of account balance.
const (
	RiskPercentReduced  = 2.0
	RiskPercentStandard = 3.0
)

// RiskDecider maps a final score onto the risk tiers and sizes positions.
type RiskDecider struct {
	thresholds config.Thresholds
	lots       config.LotCalculation
}

// NewRiskDecider creates a decider from the configured thresholds and
// lot parameters.
func NewRiskDecider(cfg *config.Config) *RiskDecider {
	return &RiskDecider{
		thresholds: cfg.Scoring.Thresholds,
		lots:       cfg.LotCalculation,
	}
}

// Decide maps the final score to the trade/no-trade call and the allowed
// risk percent. Scores below the no-trade threshold block the session,
// scores below the 2% threshold trade reduced, everything above trades at
// the standard risk.
func (d *RiskDecider) Decide(finalScore float64) (shouldTrade bool, riskPercent float64) {
	switch {
	case finalScore < d.thresholds.NoTrade:
		return false, 0
	case finalScore < d.thresholds.Risk2Percent:
		return true, RiskPercentReduced
	default:
		return true, RiskPercentStandard
	}
}

// LotSize converts the allowed risk percent into a position size for the
// planned trade. The raw size is clamped to the configured lot range and
// rounded to two decimals, the broker's lot granularity.
func (d *RiskDecider) LotSize(riskPercent float64, details TradeDetails) (float64, error) {
	if err := details.Validate(); err != nil {
		return 0, err
	}

	riskAmount := details.AccountBalance * riskPercent / 100
	pipValue := d.lots.PipValue(details.Instrument)

	lot := riskAmount / (details.StopLossPips * pipValue)
	lot = clamp(lot, d.lots.MinLotSize, d.lots.MaxLotSize)
	return math.Round(lot*100) / 100, nil
}

// RiskAmount is the dollar amount put at risk for a balance at the given
// risk percent.
func RiskAmount(balance, riskPercent float64) float64 {
	return balance * riskPercent / 100
}
