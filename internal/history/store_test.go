package history

import (
	"context"
	"testing"

	"demo-options-trader/internal/database"
	"demo-options-trader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupDB opens a fresh, non-shared in-memory database for each test.
func setupDB(t *testing.T) *gorm.DB {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)
	return db
}

func TestGormStore_SaveAndLoadKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupDB(t), "tradeHistory")

	trades := []models.Trade{
		resolvedTrade(3, models.ResultWin),
		resolvedTrade(2, models.ResultLoss),
		resolvedTrade(1, models.ResultWin),
	}
	require.NoError(t, store.SaveHistory(ctx, trades))

	loaded, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range trades {
		assert.Equal(t, trades[i].ID, loaded[i].ID)
		assert.Equal(t, *trades[i].Result, *loaded[i].Result)
		assert.True(t, trades[i].Stake.Equal(loaded[i].Stake))
		assert.True(t, trades[i].Payout.Equal(*loaded[i].Payout))
		assert.True(t, trades[i].OpenedAt.Equal(loaded[i].OpenedAt))
	}
}

func TestGormStore_SaveReplacesPreviousSequence(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupDB(t), "tradeHistory")

	require.NoError(t, store.SaveHistory(ctx, []models.Trade{resolvedTrade(1, models.ResultWin)}))
	latest := []models.Trade{resolvedTrade(2, models.ResultLoss)}
	require.NoError(t, store.SaveHistory(ctx, latest))

	loaded, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, latest[0].ID, loaded[0].ID)
}

func TestGormStore_NamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	a := NewGormStore(db, "a")
	b := NewGormStore(db, "b")

	require.NoError(t, a.SaveHistory(ctx, []models.Trade{resolvedTrade(1, models.ResultWin)}))
	require.NoError(t, b.SaveHistory(ctx, []models.Trade{resolvedTrade(2, models.ResultWin), resolvedTrade(3, models.ResultLoss)}))
	require.NoError(t, a.ClearHistory(ctx))

	fromA, err := a.LoadHistory(ctx)
	require.NoError(t, err)
	fromB, err := b.LoadHistory(ctx)
	require.NoError(t, err)

	assert.Empty(t, fromA)
	assert.Len(t, fromB, 2)
}

func TestGormStore_ExactDecimals(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupDB(t), "tradeHistory")
	tr := resolvedTrade(1, models.ResultWin)
	require.NoError(t, store.SaveHistory(ctx, []models.Trade{tr}))

	loaded, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "0.8", loaded[0].Payout.String())
}

func TestLog_OverGormStore(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)

	log := NewLog(ctx, NewGormStore(db, "tradeHistory"), 2, zap.NewNop())
	for i := 1; i <= 3; i++ {
		require.NoError(t, log.Append(ctx, resolvedTrade(i, models.ResultWin)))
	}

	var count int64
	require.NoError(t, db.Model(&models.TradeRecord{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	reopened := NewLog(ctx, NewGormStore(db, "tradeHistory"), 2, zap.NewNop())
	assert.Equal(t, log.List()[0].ID, reopened.List()[0].ID)
}
