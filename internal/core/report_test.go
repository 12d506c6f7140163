package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validReport() StatsReport {
	spent := Compare(dec("250"), dec("200"))
	income := Compare(dec("1000"), dec("900"))
	return StatsReport{
		TotalSpent:       spent,
		TotalIncome:      income,
		NetSavings:       Compare(dec("750"), dec("700")),
		TransactionCount: CompareCounts(7, 5),
		TopCategories: []CategoryComparison{
			{Name: "rent", MetricComparison: Compare(dec("150"), dec("150"))},
			{Name: "food", MetricComparison: Compare(dec("100"), dec("50"))},
		},
	}
}

func TestStatsReportValidate(t *testing.T) {
	if err := validReport().Validate(); err != nil {
		t.Fatalf("expected valid report, got %v", err)
	}

	broken := map[string]func(r *StatsReport){
		"net savings mismatch": func(r *StatsReport) {
			r.NetSavings = Compare(dec("751"), dec("700"))
		},
		"previous net savings mismatch": func(r *StatsReport) {
			r.NetSavings = Compare(dec("750"), dec("10"))
		},
		"wrong trend": func(r *StatsReport) {
			r.TotalSpent.Trend = TrendDown
		},
		"percentage on zero baseline": func(r *StatsReport) {
			r.TransactionCount = CompareCounts(3, 0)
			pct := decimal.NewFromInt(1)
			r.TransactionCount.PercentageChange = &pct
		},
		"unordered categories": func(r *StatsReport) {
			r.TopCategories[0], r.TopCategories[1] = r.TopCategories[1], r.TopCategories[0]
		},
		"duplicate category": func(r *StatsReport) {
			r.TopCategories[1].Name = "rent"
			r.TopCategories[1].MetricComparison = Compare(dec("150"), dec("1"))
		},
		"zero spend category": func(r *StatsReport) {
			r.TopCategories = append(r.TopCategories, CategoryComparison{Name: "misc", MetricComparison: Compare(decimal.Zero, dec("4"))})
		},
		"too many categories": func(r *StatsReport) {
			for i := 0; i < TopCategoryLimit; i++ {
				r.TopCategories = append(r.TopCategories, CategoryComparison{Name: string(rune('a' + i)), MetricComparison: Compare(dec("1"), dec("1"))})
			}
		},
	}

	for name, mutate := range broken {
		t.Run(name, func(t *testing.T) {
			r := validReport()
			mutate(&r)
			err := r.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrComputation) {
				t.Fatalf("expected ErrComputation, got %v", err)
			}
		})
	}
}

func TestStatsReportJSONShape(t *testing.T) {
	raw, err := json.Marshal(validReport())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"totalSpent", "totalIncome", "netSavings", "transactionCount", "topCategories"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing key %q in %s", key, raw)
		}
	}
	if _, ok := got["Current"]; ok {
		t.Fatalf("windows must not be serialized")
	}

	cats := got["topCategories"].([]any)
	first := cats[0].(map[string]any)
	if first["name"] != "rent" || first["trend"] != "no_change" {
		t.Fatalf("unexpected first category: %v", first)
	}
	for _, key := range []string{"currentMonth", "previousMonth", "difference", "percentageChange", "trend"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("category missing %q", key)
		}
	}
}

func TestStatsReportJSONEmptyCategories(t *testing.T) {
	r := validReport()
	r.TopCategories = nil
	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got["topCategories"]) != "[]" {
		t.Fatalf("topCategories = %s, want []", got["topCategories"])
	}
}

func TestValidateUserID(t *testing.T) {
	good := []string{"42", "user-7f3a", "ünïcode"}
	for _, id := range good {
		if err := ValidateUserID(id); err != nil {
			t.Fatalf("ValidateUserID(%q) = %v", id, err)
		}
	}

	long := make([]byte, MaxUserIDLength+1)
	for i := range long {
		long[i] = 'a'
	}
	bad := []string{"", "   ", " 42", "4\x002", string(long)}
	for _, id := range bad {
		if err := ValidateUserID(id); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ValidateUserID(%q) = %v, want ErrInvalidInput", id, err)
		}
	}
}
