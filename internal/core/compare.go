package core

import (
	"github.com/shopspring/decimal"
)

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendNoChange Trend = "no_change"
)

// Trend is the direction of a current-vs-previous change. It carries no judgement
// on whether the change is favorable.
type Trend string

// MetricComparison is the shape shared by every metric of a StatsReport.
// PercentageChange is nil when the previous value is zero.
type MetricComparison struct {
	CurrentMonth     decimal.Decimal
	PreviousMonth    decimal.Decimal
	Difference       decimal.Decimal
	PercentageChange *decimal.Decimal
	Trend            Trend
}

var hundred = decimal.NewFromInt(100)

// Compare builds the comparison of current against previous. The trend is taken from
// the exact difference, before any rounding.
func Compare(current, previous decimal.Decimal) MetricComparison {
	diff := current.Sub(previous)

	mc := MetricComparison{
		CurrentMonth:  current,
		PreviousMonth: previous,
		Difference:    diff.Round(2),
		Trend:         trendOf(diff),
	}
	if !previous.IsZero() {
		pct := diff.Mul(hundred).DivRound(previous, 2)
		mc.PercentageChange = &pct
	}
	return mc
}

// CompareCounts is Compare for integer counters.
func CompareCounts(current, previous int64) MetricComparison {
	return Compare(decimal.NewFromInt(current), decimal.NewFromInt(previous))
}

func trendOf(diff decimal.Decimal) Trend {
	switch diff.Sign() {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	default:
		return TrendNoChange
	}
}
