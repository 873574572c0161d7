package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Direction
		expectError bool
	}{
		{input: "CALL", expected: DirectionCall},
		{input: "put", expected: DirectionPut},
		{input: " Call ", expected: DirectionCall},
		{input: "up", expectError: true},
		{input: "", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			d, err := ParseDirection(tc.input)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidDirection)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestParseStake(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "Plain integer", input: "100", expected: "100"},
		{name: "Fractional", input: "12.5", expected: "12.5"},
		{name: "Dollar and separators", input: "$1,000,000", expected: "1000000"},
		{name: "Negative parses", input: "-5", expected: "-5"},
		{name: "Empty", input: "", expectError: true},
		{name: "Only symbols", input: "$,", expectError: true},
		{name: "Not a number", input: "abc", expectError: true},
		{name: "NaN", input: "NaN", expectError: true},
		{name: "Cents", input: "0.01", expected: "0.01"},
		{name: "Trailing zeros", input: "1.500", expected: "1.5"},
		{name: "Sub-cent", input: "0.001", expectError: true},
		{name: "Tiny exponent", input: "1e-3000000", expectError: true},
		{name: "Huge exponent", input: "1e3000000", expectError: true},
		{name: "Scientific notation", input: "1E2", expectError: true},
		{name: "At maximum", input: "1,000,000,000,000", expected: "1000000000000"},
		{name: "Above maximum", input: "1000000000000.01", expectError: true},
		{name: "Too long", input: "0000000000000000000000000000000001", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseStake(tc.input)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidStake)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(v), "got %s", v)
		})
	}
}

func TestParseAmount_UsesAmountError(t *testing.T) {
	_, err := ParseAmount("lots")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NotErrorIs(t, err, ErrInvalidStake)
}

func TestTrade_ResolvedReturnsCopy(t *testing.T) {
	opened := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	active := Trade{
		ID:        uuid.New(),
		Direction: DirectionCall,
		Stake:     decimal.NewFromInt(100),
		OpenedAt:  opened,
	}

	resolved := active.Resolved(ResultWin, decimal.NewFromInt(80), opened.Add(5*time.Second))

	assert.False(t, active.IsResolved())
	assert.Nil(t, active.Payout)
	assert.True(t, resolved.IsResolved())
	assert.Equal(t, ResultWin, *resolved.Result)
	assert.True(t, decimal.NewFromInt(80).Equal(*resolved.Payout))
	assert.Equal(t, active.ID, resolved.ID)
}

func TestTrade_CloneSharesNoPointers(t *testing.T) {
	opened := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	original := Trade{
		ID:        uuid.New(),
		Direction: DirectionCall,
		Stake:     decimal.NewFromInt(100),
		OpenedAt:  opened,
	}.Resolved(ResultWin, decimal.NewFromInt(80), opened.Add(5*time.Second))

	clone := original.Clone()
	*clone.Result = ResultLoss
	*clone.Payout = decimal.NewFromInt(999999)
	*clone.ResolvedAt = opened

	assert.Equal(t, ResultWin, *original.Result)
	assert.True(t, decimal.NewFromInt(80).Equal(*original.Payout))
	assert.Equal(t, opened.Add(5*time.Second), *original.ResolvedAt)

	active := Trade{ID: uuid.New()}.Clone()
	assert.Nil(t, active.Result)
	assert.Nil(t, active.Payout)
	assert.Nil(t, active.ResolvedAt)
}

func TestValidMoney(t *testing.T) {
	assert.True(t, ValidMoney(decimal.RequireFromString("12.34")))
	assert.True(t, ValidMoney(decimal.New(1000, -3)))
	assert.True(t, ValidMoney(MaxMoney))
	assert.False(t, ValidMoney(decimal.RequireFromString("12.345")))
	assert.False(t, ValidMoney(MaxMoney.Add(decimal.New(1, -2))))
	assert.False(t, ValidMoney(decimal.New(1, -3000000)))
	assert.False(t, ValidMoney(decimal.New(1, 3000000)))
}

func TestTradeRecord_RoundTrip(t *testing.T) {
	opened := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	trade := Trade{
		ID:        uuid.New(),
		Direction: DirectionPut,
		Stake:     decimal.NewFromInt(100),
		OpenedAt:  opened,
	}.Resolved(ResultLoss, decimal.NewFromInt(-100), opened.Add(5*time.Second))

	rec := NewTradeRecord("tradeHistory", 3, trade)
	assert.Equal(t, "tradeHistory", rec.Namespace)
	assert.Equal(t, 3, rec.Position)
	assert.Equal(t, "LOSS", rec.Result)

	back := rec.ToTrade()
	assert.Equal(t, trade.ID, back.ID)
	assert.Equal(t, DirectionPut, back.Direction)
	assert.Equal(t, ResultLoss, *back.Result)
	assert.True(t, trade.Payout.Equal(*back.Payout))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrInsufficientBalance))
	assert.True(t, IsValidationError(fmt.Errorf("open: %w", ErrTradeAlreadyActive)))
	assert.False(t, IsValidationError(fmt.Errorf("disk full")))
	assert.False(t, IsValidationError(nil))
}
