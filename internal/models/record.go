package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeRecord is a resolved trade as stored in the database.
// Position 0 is the newest entry of a namespace.
type TradeRecord struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	Namespace  string          `gorm:"size:64;not null;index:idx_namespace_position" json:"-"`
	Position   int             `gorm:"not null;index:idx_namespace_position" json:"-"`
	TradeID    uuid.UUID       `gorm:"type:text;not null" json:"id"`
	Direction  string          `gorm:"size:4;not null" json:"direction"`
	Stake      decimal.Decimal `gorm:"type:text;not null" json:"stake"` // text keeps decimals exact in SQLite
	Result     string          `gorm:"size:4;not null" json:"result"`
	Payout     decimal.Decimal `gorm:"type:text;not null" json:"payout"`
	OpenedAt   time.Time       `gorm:"not null" json:"opened_at"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// TableName pins the table name independent of gorm's pluralisation.
func (TradeRecord) TableName() string {
	return "trade_records"
}

// NewTradeRecord converts a resolved trade to its stored form.
func NewTradeRecord(namespace string, position int, t Trade) TradeRecord {
	rec := TradeRecord{
		Namespace: namespace,
		Position:  position,
		TradeID:   t.ID,
		Direction: string(t.Direction),
		Stake:     t.Stake,
		OpenedAt:  t.OpenedAt,
	}
	if t.Result != nil {
		rec.Result = string(*t.Result)
	}
	if t.Payout != nil {
		rec.Payout = *t.Payout
	}
	if t.ResolvedAt != nil {
		rec.ResolvedAt = *t.ResolvedAt
	}
	return rec
}

// ToTrade converts a stored record back into a resolved Trade.
func (r TradeRecord) ToTrade() Trade {
	t := Trade{
		ID:        r.TradeID,
		Direction: Direction(r.Direction),
		Stake:     r.Stake,
		OpenedAt:  r.OpenedAt,
	}
	return t.Resolved(Result(r.Result), r.Payout, r.ResolvedAt)
}
