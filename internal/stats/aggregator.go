// Package stats assembles month-over-month wallet statistics from the ledger store.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"walletstats/internal/core"
	"walletstats/internal/ledger"
	"walletstats/internal/metrics"
)

// Aggregator is the only component that talks to the ledger store. Every result it
// returns has been checked for shape; malformed store output is a collaborator failure.
type Aggregator struct {
	store   ledger.Store
	metrics *metrics.Metrics
}

func NewAggregator(store ledger.Store, m *metrics.Metrics) *Aggregator {
	return &Aggregator{store: store, metrics: m}
}

func collaboratorErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrCollaboratorFailure, op, err)
}

func malformed(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: malformed store result: %s", core.ErrCollaboratorFailure, op, fmt.Sprintf(format, args...))
}

// Aggregate sums and counts the user's transactions in w. An empty typ matches every
// type; a nil category matches every category.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, typ core.TransactionType, w core.Window, category *string) (core.Aggregate, error) {
	const op = "sum_and_count"
	start := time.Now()
	agg, err := a.store.SumAndCount(ctx, ledger.Query{UserID: userID, Type: typ, Category: category, Window: w})
	a.metrics.ObserveQuery(op, time.Since(start))
	if err != nil {
		return core.Aggregate{}, collaboratorErr(op, err)
	}

	if agg.Count < 0 {
		return core.Aggregate{}, malformed(op, "negative count %d", agg.Count)
	}
	if agg.Sum.IsNegative() {
		return core.Aggregate{}, malformed(op, "negative sum %s", agg.Sum)
	}
	if agg.Count == 0 && !agg.Sum.IsZero() {
		return core.Aggregate{}, malformed(op, "sum %s without rows", agg.Sum)
	}
	return agg, nil
}

// TopCategories ranks the categories of typ by their sum in w, largest first.
func (a *Aggregator) TopCategories(ctx context.Context, userID string, typ core.TransactionType, w core.Window, limit int) ([]core.CategorySum, error) {
	const op = "top_categories"
	start := time.Now()
	ranked, err := a.store.TopCategoriesBySum(ctx, userID, typ, w, limit)
	a.metrics.ObserveQuery(op, time.Since(start))
	if err != nil {
		return nil, collaboratorErr(op, err)
	}

	if len(ranked) > limit {
		return nil, malformed(op, "%d categories for limit %d", len(ranked), limit)
	}
	seen := make(map[string]struct{}, len(ranked))
	for i, cs := range ranked {
		if !cs.Sum.IsPositive() {
			return nil, malformed(op, "category %q has non-positive sum %s", cs.Category, cs.Sum)
		}
		if _, dup := seen[cs.Category]; dup {
			return nil, malformed(op, "category %q ranked twice", cs.Category)
		}
		seen[cs.Category] = struct{}{}
		if i > 0 && cs.Sum.GreaterThan(ranked[i-1].Sum) {
			return nil, malformed(op, "ranking not descending at %q", cs.Category)
		}
	}
	if ranked == nil {
		ranked = []core.CategorySum{}
	}
	return ranked, nil
}

// CategorySums looks up the sums of several categories in one store call. Every
// requested category is present in the result; missing ones are zero.
func (a *Aggregator) CategorySums(ctx context.Context, userID string, typ core.TransactionType, w core.Window, categories []string) (map[string]decimal.Decimal, error) {
	const op = "sum_by_categories"
	out := make(map[string]decimal.Decimal, len(categories))
	for _, c := range categories {
		out[c] = decimal.Zero
	}
	if len(categories) == 0 {
		return out, nil
	}

	start := time.Now()
	sums, err := a.store.SumByCategories(ctx, userID, typ, w, categories)
	a.metrics.ObserveQuery(op, time.Since(start))
	if err != nil {
		return nil, collaboratorErr(op, err)
	}

	seen := make(map[string]struct{}, len(sums))
	for _, cs := range sums {
		if _, requested := out[cs.Category]; !requested {
			return nil, malformed(op, "unrequested category %q", cs.Category)
		}
		if _, dup := seen[cs.Category]; dup {
			return nil, malformed(op, "category %q returned twice", cs.Category)
		}
		if cs.Sum.IsNegative() {
			return nil, malformed(op, "category %q has negative sum %s", cs.Category, cs.Sum)
		}
		seen[cs.Category] = struct{}{}
		out[cs.Category] = cs.Sum
	}
	return out, nil
}
