// Package ledger defines the read-only contract the stats engine consumes from the
// transaction ledger, and the query types shared by its implementations.
package ledger

import (
	"context"
	"strings"

	"walletstats/internal/core"
)

// Query filters the transactions summed by SumAndCount.
type Query struct {
	UserID string
	// Type restricts the query to one transaction type; empty matches every type.
	Type core.TransactionType
	// Category restricts the query to one category when non-nil. The empty string
	// selects uncategorized transactions.
	Category *string
	Window   core.Window
}

// Order is the timestamp ordering of a transaction listing.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// ParseOrder accepts ASC/DESC case-insensitively and falls back to DESC.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(OrderAsc)) {
		return OrderAsc
	}
	return OrderDesc
}

// ListQuery selects one page of a user's transactions or wallets.
type ListQuery struct {
	UserID   string
	Page     int // 1-based
	PageSize int
	Order    Order
}

// Offset returns the number of rows skipped before the page.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Store is the ledger as seen by the stats engine. Every method answers with a single
// query; implementations never hand whole transaction sets to the caller for
// aggregation.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=ports.go
type Store interface {
	// SumAndCount returns the sum and count of matching transactions, {0, 0} when none match.
	SumAndCount(ctx context.Context, q Query) (core.Aggregate, error)

	// TopCategoriesBySum ranks categories of the given type by their sum in the window,
	// descending, ties by category name. Only strictly positive sums are returned.
	TopCategoriesBySum(ctx context.Context, userID string, typ core.TransactionType, w core.Window, limit int) ([]core.CategorySum, error)

	// SumByCategories returns the sums of the listed categories in the window.
	// Categories without matching transactions may be omitted.
	SumByCategories(ctx context.Context, userID string, typ core.TransactionType, w core.Window, categories []string) ([]core.CategorySum, error)

	// ListTransactions returns one page of the user's transactions and the total count.
	ListTransactions(ctx context.Context, q ListQuery) ([]core.Transaction, int64, error)

	// ListWallets returns one page of the user's wallets in ID order, and the
	// total count. Order is ignored.
	ListWallets(ctx context.Context, q ListQuery) ([]core.Wallet, int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// Writer appends wallets and transactions to the ledger. It is used to seed stores;
// the stats engine never writes.
type Writer interface {
	Insert(ctx context.Context, tx core.Transaction) (int64, error)
	InsertWallet(ctx context.Context, w core.Wallet) (int64, error)
}
