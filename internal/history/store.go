// Package history keeps the bounded, newest-first log of resolved trades and
// the stores it is persisted to.
package history

import (
	"context"
	"fmt"
	"sync"

	"demo-options-trader/internal/models"
	"gorm.io/gorm"
)

// Store persists the whole history sequence under one namespace.
// Implementations are best-effort and last-write-wins.
type Store interface {
	LoadHistory(ctx context.Context) ([]models.Trade, error)
	SaveHistory(ctx context.Context, trades []models.Trade) error
	ClearHistory(ctx context.Context) error
}

// GormStore keeps history in the trade_records table.
type GormStore struct {
	db        *gorm.DB
	namespace string
}

// ensure GormStore implements the interface
var _ Store = (*GormStore)(nil)

// NewGormStore creates a store writing rows tagged with namespace.
func NewGormStore(db *gorm.DB, namespace string) *GormStore {
	return &GormStore{db: db, namespace: namespace}
}

// LoadHistory returns the stored trades, newest first.
func (s *GormStore) LoadHistory(ctx context.Context) ([]models.Trade, error) {
	var records []models.TradeRecord
	err := s.db.WithContext(ctx).
		Where("namespace = ?", s.namespace).
		Order("position asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history %q: %w", s.namespace, err)
	}

	trades := make([]models.Trade, 0, len(records))
	for _, rec := range records {
		trades = append(trades, rec.ToTrade())
	}
	return trades, nil
}

// SaveHistory replaces the namespace's rows with trades in one transaction.
func (s *GormStore) SaveHistory(ctx context.Context, trades []models.Trade) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("namespace = ?", s.namespace).Delete(&models.TradeRecord{}).Error; err != nil {
			return err
		}
		if len(trades) == 0 {
			return nil
		}

		records := make([]models.TradeRecord, 0, len(trades))
		for i, t := range trades {
			records = append(records, models.NewTradeRecord(s.namespace, i, t))
		}
		return tx.CreateInBatches(&records, 50).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save history %q: %w", s.namespace, err)
	}
	return nil
}

// ClearHistory deletes every row of the namespace.
func (s *GormStore) ClearHistory(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ?", s.namespace).
		Delete(&models.TradeRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear history %q: %w", s.namespace, err)
	}
	return nil
}

// MemoryStore keeps history in process memory. It is used when no database
// is configured.
type MemoryStore struct {
	mu     sync.Mutex
	trades []models.Trade
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadHistory(_ context.Context) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.trades), nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, trades []models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = cloneAll(trades)
	return nil
}

func (s *MemoryStore) ClearHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = nil
	return nil
}
