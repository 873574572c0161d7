package history

import (
	"context"
	"sync"

	"demo-options-trader/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of resolved trades kept.
const DefaultCapacity = 100

// Log is the append-only, capacity-bounded record of resolved trades,
// newest first. Every change is written through to its Store.
type Log struct {
	mu       sync.RWMutex
	entries  []models.Trade
	capacity int
	store    Store
	logger   *zap.Logger
}

// NewLog creates a Log and loads whatever the store already holds.
// A load failure is logged and the log starts empty.
func NewLog(ctx context.Context, store Store, capacity int, logger *zap.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		capacity: capacity,
		store:    store,
		logger:   logger.Named("history"),
	}

	entries, err := store.LoadHistory(ctx)
	if err != nil {
		l.logger.Warn("Could not load trade history, starting empty", zap.Error(err))
		return l
	}
	if len(entries) > capacity {
		entries = entries[:capacity]
	}
	l.entries = cloneAll(entries)
	l.logger.Info("Trade history loaded", zap.Int("entries", len(entries)))
	return l
}

// Append puts trade at the front, evicts the oldest entries beyond capacity
// and persists the full sequence. The in-memory append is kept even when
// persisting fails; the store error is returned for the caller to report.
func (l *Log) Append(ctx context.Context, trade models.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries) + 1
	if n > l.capacity {
		n = l.capacity
	}
	next := make([]models.Trade, 0, n)
	next = append(next, trade.Clone())
	next = append(next, l.entries[:n-1]...)
	l.entries = next

	// Saved under the lock so concurrent appends reach the store in order.
	return l.store.SaveHistory(ctx, l.snapshot())
}

// List returns a newest-first copy of the log.
func (l *Log) List() []models.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Capacity returns the maximum number of entries kept.
func (l *Log) Capacity() int {
	return l.capacity
}

// Clear empties the log and persists the empty state.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	return l.store.ClearHistory(ctx)
}

// Stats summarises the current entries.
func (l *Log) Stats() Stats {
	return Summarize(l.List())
}

func (l *Log) snapshot() []models.Trade {
	return cloneAll(l.entries)
}

func cloneAll(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	for i, t := range trades {
		out[i] = t.Clone()
	}
	return out
}

// Stats are the aggregate figures shown alongside the history.
type Stats struct {
	TotalTrades int             `json:"total_trades"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	WinRate     float64         `json:"win_rate"` // percent
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// Summarize computes Stats over resolved trades. Unresolved trades are skipped.
func Summarize(trades []models.Trade) Stats {
	stats := Stats{TotalProfit: decimal.Zero}
	for _, t := range trades {
		if !t.IsResolved() {
			continue
		}
		stats.TotalTrades++
		switch *t.Result {
		case models.ResultWin:
			stats.Wins++
		case models.ResultLoss:
			stats.Losses++
		}
		if t.Payout != nil {
			stats.TotalProfit = stats.TotalProfit.Add(*t.Payout)
		}
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades) * 100
	}
	return stats
}
