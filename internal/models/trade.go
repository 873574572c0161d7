package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the bettor's guess on price movement.
type Direction string

const (
	DirectionCall Direction = "CALL" // price goes up
	DirectionPut  Direction = "PUT"  // price goes down
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionCall || d == DirectionPut
}

// ParseDirection accepts "call"/"put" in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", ErrInvalidDirection
	}
	return d, nil
}

// Result is the outcome of a resolved trade.
type Result string

const (
	ResultWin  Result = "WIN"
	ResultLoss Result = "LOSS"
)

// Trade represents one bet. Result, Payout and ResolvedAt stay nil while the
// trade is active.
type Trade struct {
	ID         uuid.UUID        `json:"id"`
	Direction  Direction        `json:"direction"`
	Stake      decimal.Decimal  `json:"stake"`
	OpenedAt   time.Time        `json:"opened_at"`
	Result     *Result          `json:"result,omitempty"`
	Payout     *decimal.Decimal `json:"payout,omitempty"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// IsResolved returns true once a result has been assigned.
func (t Trade) IsResolved() bool {
	return t.Result != nil
}

// Clone returns a copy of t that shares no pointers with it.
func (t Trade) Clone() Trade {
	if t.Result != nil {
		r := *t.Result
		t.Result = &r
	}
	if t.Payout != nil {
		p := *t.Payout
		t.Payout = &p
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		t.ResolvedAt = &at
	}
	return t
}

// Resolved returns a copy of t carrying the final result and signed payout.
// The receiver is left untouched.
func (t Trade) Resolved(result Result, payout decimal.Decimal, at time.Time) Trade {
	t.Result = &result
	t.Payout = &payout
	t.ResolvedAt = &at
	return t
}

// ParseStake parses user input for a trade stake. Thousands separators and a
// leading "$" are tolerated. Positivity is checked by the engine, not here.
func ParseStake(s string) (decimal.Decimal, error) {
	v, ok := parseMoney(s)
	if !ok {
		return decimal.Zero, ErrInvalidStake
	}
	return v, nil
}

// ParseAmount parses a recharge amount the same way ParseStake does.
func ParseAmount(s string) (decimal.Decimal, error) {
	v, ok := parseMoney(s)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	return v, nil
}

const (
	// MoneyPlaces is the number of decimal places a stake or amount may carry.
	MoneyPlaces = 2

	maxMoneyInput  = 32
	maxMoneyExpAbs = maxMoneyInput
)

// MaxMoney is the largest stake or amount accepted.
var MaxMoney = decimal.New(1, 12)

// ValidMoney reports whether v is within MaxMoney and has no more than
// MoneyPlaces decimal places.
func ValidMoney(v decimal.Decimal) bool {
	// Rescaling a value with an extreme exponent is not cheap.
	if exp := v.Exponent(); exp < -maxMoneyExpAbs || exp > maxMoneyExpAbs {
		return false
	}
	return v.Equal(v.Truncate(MoneyPlaces)) && v.Abs().LessThanOrEqual(MaxMoney)
}

func parseMoney(s string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	if cleaned == "" || len(cleaned) > maxMoneyInput || strings.ContainsAny(cleaned, "eE") {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil || !ValidMoney(v) {
		return decimal.Zero, false
	}
	return v, true
}
