package models

import "time"

// Category is the visual style a notification should be rendered with.
type Category string

const (
	CategoryNeutral     Category = "neutral"
	CategorySuccess     Category = "success"
	CategoryDestructive Category = "destructive"
)

// Event identifies what triggered a notification.
type Event string

const (
	EventInvalidStake        Event = "invalid_stake"
	EventInsufficientBalance Event = "insufficient_balance"
	EventTradeStarted        Event = "trade_started"
	EventTradeWon            Event = "trade_won"
	EventTradeLost           Event = "trade_lost"
	EventBalanceRecharged    Event = "balance_recharged"
	EventHistoryCleared      Event = "history_cleared"
)

// Notification is a short, fire-and-forget message for the user.
type Notification struct {
	Event       Event     `json:"event"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}
