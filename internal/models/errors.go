package models

import "errors"

// Validation errors returned synchronously by the engine. Compare with errors.Is.
var (
	// ErrInvalidStake is returned when a stake is not a positive number.
	ErrInvalidStake = errors.New("invalid stake: must be a positive number")

	// ErrInsufficientBalance is returned when the stake exceeds the current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTradeAlreadyActive is returned when a trade is opened while another one
	// is still counting down.
	ErrTradeAlreadyActive = errors.New("a trade is already active")

	// ErrInvalidDirection is returned for anything other than CALL or PUT.
	ErrInvalidDirection = errors.New("invalid direction: must be CALL or PUT")

	// ErrInvalidAmount is returned when a recharge amount is not a positive number.
	ErrInvalidAmount = errors.New("invalid amount: must be a positive number")
)

var validationErrors = []error{
	ErrInvalidStake,
	ErrInsufficientBalance,
	ErrTradeAlreadyActive,
	ErrInvalidDirection,
	ErrInvalidAmount,
}

// IsValidationError returns true when err (or any error in its chain) is one of
// the caller-correctable errors above.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
