// Package ledger holds the virtual balance of one demo session.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Ledger owns the session balance. It has a single writer (the trade engine)
// and any number of readers.
type Ledger struct {
	mu        sync.RWMutex
	balance   decimal.Decimal
	observers []func(decimal.Decimal)
}

// New creates a ledger starting at initial. A negative initial balance is
// clamped to zero.
func New(initial decimal.Decimal) *Ledger {
	if initial.IsNegative() {
		initial = decimal.Zero
	}
	return &Ledger{balance: initial}
}

// Balance returns the current balance. It is never negative.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Credit adds amount to the balance. Non-positive amounts are ignored.
func (l *Ledger) Credit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	l.mu.Lock()
	l.balance = l.balance.Add(amount)
	l.publish()
}

// Debit subtracts amount from the balance, stopping at zero.
// Non-positive amounts are ignored.
func (l *Ledger) Debit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	l.mu.Lock()
	l.balance = decimal.Max(decimal.Zero, l.balance.Sub(amount))
	l.publish()
}

// Subscribe registers fn to be called with the new balance after every change.
func (l *Ledger) Subscribe(fn func(decimal.Decimal)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// publish must be called with l.mu held for writing; it releases the lock
// before running observers so they may read the ledger.
func (l *Ledger) publish() {
	balance := l.balance
	observers := make([]func(decimal.Decimal), len(l.observers))
	copy(observers, l.observers)
	l.mu.Unlock()

	for _, fn := range observers {
		fn(balance)
	}
}
