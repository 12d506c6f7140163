package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TopCategoryLimit is the number of spending categories a report ranks.
const TopCategoryLimit = 5

// CategoryComparison is a MetricComparison for one spending category.
type CategoryComparison struct {
	Name string
	MetricComparison
}

// StatsReport is the month-over-month comparison for one user.
type StatsReport struct {
	TotalSpent       MetricComparison
	TotalIncome      MetricComparison
	NetSavings       MetricComparison
	TransactionCount MetricComparison
	TopCategories    []CategoryComparison

	// Windows the report was computed for. Not part of the serialized report.
	Current  Window
	Previous Window
}

// Validate checks the invariants every assembled report must hold. A failure is a
// defect in the engine, reported as ErrComputation.
func (r StatsReport) Validate() error {
	metrics := map[string]MetricComparison{
		"totalSpent":       r.TotalSpent,
		"totalIncome":      r.TotalIncome,
		"netSavings":       r.NetSavings,
		"transactionCount": r.TransactionCount,
	}
	for name, m := range metrics {
		if err := m.validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrComputation, name, err)
		}
	}

	if !r.NetSavings.CurrentMonth.Equal(r.TotalIncome.CurrentMonth.Sub(r.TotalSpent.CurrentMonth)) {
		return fmt.Errorf("%w: current net savings do not match income minus spend", ErrComputation)
	}
	if !r.NetSavings.PreviousMonth.Equal(r.TotalIncome.PreviousMonth.Sub(r.TotalSpent.PreviousMonth)) {
		return fmt.Errorf("%w: previous net savings do not match income minus spend", ErrComputation)
	}

	if len(r.TopCategories) > TopCategoryLimit {
		return fmt.Errorf("%w: %d top categories, limit is %d", ErrComputation, len(r.TopCategories), TopCategoryLimit)
	}
	seen := make(map[string]struct{}, len(r.TopCategories))
	for i, c := range r.TopCategories {
		if err := c.validate(); err != nil {
			return fmt.Errorf("%w: category %q: %v", ErrComputation, c.Name, err)
		}
		if !c.CurrentMonth.IsPositive() {
			return fmt.Errorf("%w: category %q has no current spend", ErrComputation, c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: category %q ranked twice", ErrComputation, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i > 0 && c.CurrentMonth.GreaterThan(r.TopCategories[i-1].CurrentMonth) {
			return fmt.Errorf("%w: top categories not ordered at %q", ErrComputation, c.Name)
		}
	}
	return nil
}

func (m MetricComparison) validate() error {
	diff := m.CurrentMonth.Sub(m.PreviousMonth)
	if !m.Difference.Equal(diff.Round(2)) {
		return fmt.Errorf("difference %s does not match %s", m.Difference, diff.Round(2))
	}
	if trendOf(diff) != m.Trend {
		return fmt.Errorf("trend %q does not match difference %s", m.Trend, diff)
	}
	if m.PreviousMonth.IsZero() != (m.PercentageChange == nil) {
		return fmt.Errorf("percentage change must be null exactly when the previous value is zero")
	}
	return nil
}

type metricJSON struct {
	CurrentMonth     json.Number  `json:"currentMonth"`
	PreviousMonth    json.Number  `json:"previousMonth"`
	Difference       json.Number  `json:"difference"`
	PercentageChange *json.Number `json:"percentageChange"`
	Trend            Trend        `json:"trend"`
}

type categoryJSON struct {
	Name string `json:"name"`
	metricJSON
}

type reportJSON struct {
	TotalSpent       metricJSON     `json:"totalSpent"`
	TotalIncome      metricJSON     `json:"totalIncome"`
	NetSavings       metricJSON     `json:"netSavings"`
	TransactionCount metricJSON     `json:"transactionCount"`
	TopCategories    []categoryJSON `json:"topCategories"`
}

func (m MetricComparison) toJSON() metricJSON {
	out := metricJSON{
		CurrentMonth:  json.Number(m.CurrentMonth.String()),
		PreviousMonth: json.Number(m.PreviousMonth.String()),
		Difference:    json.Number(m.Difference.StringFixed(2)),
		Trend:         m.Trend,
	}
	if m.PercentageChange != nil {
		pct := json.Number(m.PercentageChange.StringFixed(2))
		out.PercentageChange = &pct
	}
	return out
}

// MarshalJSON writes amounts as JSON numbers; difference and percentageChange carry
// exactly two decimals.
func (m MetricComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toJSON())
}

func (c CategoryComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryJSON{Name: c.Name, metricJSON: c.MetricComparison.toJSON()})
}

func (r StatsReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		TotalSpent:       r.TotalSpent.toJSON(),
		TotalIncome:      r.TotalIncome.toJSON(),
		NetSavings:       r.NetSavings.toJSON(),
		TransactionCount: r.TransactionCount.toJSON(),
		TopCategories:    make([]categoryJSON, 0, len(r.TopCategories)),
	}
	for _, c := range r.TopCategories {
		out.TopCategories = append(out.TopCategories, categoryJSON{Name: c.Name, metricJSON: c.MetricComparison.toJSON()})
	}
	return json.Marshal(out)
}

// SumOf returns the sum for category in sums, or zero when it is absent.
func SumOf(sums []CategorySum, category string) decimal.Decimal {
	for _, s := range sums {
		if s.Category == category {
			return s.Sum
		}
	}
	return decimal.Zero
}
