package trader

import (
	"demo-options-trader/internal/config"
	"demo-options-trader/internal/models"
	"github.com/shopspring/decimal"
)

// OutcomeStrategy decides how a trade settles.
type OutcomeStrategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Decide maps a draw in [0,1) to a result and a signed payout for stake.
	Decide(stake decimal.Decimal, draw float64) (models.Result, decimal.Decimal)
}

// FixedOdds wins when the draw exceeds Threshold, paying ProfitRatio times the
// stake. A loss forfeits the whole stake. Neither stake nor balance affects
// the odds.
type FixedOdds struct {
	Threshold   float64
	ProfitRatio decimal.Decimal
}

// NewFixedOdds builds the strategy from the trading config.
func NewFixedOdds(cfg config.Trading) FixedOdds {
	return FixedOdds{
		Threshold:   cfg.WinThreshold,
		ProfitRatio: decimal.NewFromFloat(cfg.ProfitRatio),
	}
}

func (FixedOdds) Name() string { return "fixed_odds" }

func (f FixedOdds) Decide(stake decimal.Decimal, draw float64) (models.Result, decimal.Decimal) {
	if draw > f.Threshold {
		return models.ResultWin, stake.Mul(f.ProfitRatio)
	}
	return models.ResultLoss, stake.Neg()
}
