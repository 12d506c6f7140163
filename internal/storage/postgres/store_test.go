package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletstats/internal/core"
	"walletstats/internal/ledger"
)

// newTestStore connects to WALLETSTATS_TEST_POSTGRES_DSN; the tests are skipped without it.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("WALLETSTATS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WALLETSTATS_TEST_POSTGRES_DSN not set")
	}
	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, RunMigrations(db))
	return NewStore(db)
}

func TestPostgresStoreAggregates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := uuid.NewString()
	w := core.MonthWindow(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	insert := func(typ core.TransactionType, amount, category string, at time.Time) {
		_, err := store.Insert(ctx, core.Transaction{
			UserID: user, Amount: decimal.RequireFromString(amount), Type: typ, Category: category, Timestamp: at,
		})
		require.NoError(t, err)
	}
	insert(core.Debit, "10.10", "food", w.Start)
	insert(core.Debit, "10.10", "Books", w.Start)
	insert(core.Debit, "30", "rent", w.Start.Add(time.Hour))
	insert(core.Credit, "500", "salary", w.Start.Add(time.Hour))
	insert(core.Debit, "1", "food", w.End)

	agg, err := store.SumAndCount(ctx, ledger.Query{UserID: user, Type: core.Debit, Window: w})
	require.NoError(t, err)
	assert.Equal(t, "50.20", agg.Sum.StringFixed(2))
	assert.EqualValues(t, 3, agg.Count)

	top, err := store.TopCategoriesBySum(ctx, user, core.Debit, w, 5)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"rent", "Books", "food"}, []string{top[0].Category, top[1].Category, top[2].Category})

	sums, err := store.SumByCategories(ctx, user, core.Debit, w, []string{"food", "travel"})
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "10.10", sums[0].Sum.StringFixed(2))

	page, total, err := store.ListTransactions(ctx, ledger.ListQuery{UserID: user, Page: 1, PageSize: 2, Order: ledger.OrderDesc})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}

func TestPostgresInsertRejectsSubCentAmounts(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Insert(context.Background(), core.Transaction{
		UserID:    uuid.NewString(),
		Amount:    decimal.RequireFromString("1.005"),
		Type:      core.Debit,
		Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestPostgresListWallets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := uuid.NewString()

	for _, label := range []string{"Main", "Savings", "Travel"} {
		_, err := store.InsertWallet(ctx, core.Wallet{UserID: user, Provider: "bank", Source: "acct-" + label, Label: label, IsActive: true})
		require.NoError(t, err)
	}

	page, total, err := store.ListWallets(ctx, ledger.ListQuery{UserID: user, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Main", page[0].Label)
	assert.True(t, page[0].IsActive)
	assert.False(t, page[0].CreatedAt.IsZero())

	page, _, err = store.ListWallets(ctx, ledger.ListQuery{UserID: user, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Travel", page[0].Label)
}
