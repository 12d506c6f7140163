package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"walletstats/internal/core"
	"walletstats/internal/ledger"
	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
)

// DefaultTimeout bounds one report assembly when Options.Timeout is zero.
const DefaultTimeout = 7 * time.Second

// Outcome labels for report metrics and logs.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = applog.ErrorTypeValidation
	OutcomeCollaborator = applog.ErrorTypeCollaborator
	OutcomeComputation  = applog.ErrorTypeComputation
	OutcomeTimeout      = applog.ErrorTypeTimeout
)

type Options struct {
	// Clock returns the current instant; time.Now when nil.
	Clock func() time.Time
	// Location is the zone whose calendar months are compared; UTC when nil.
	Location *time.Location
	// Timeout bounds one assembly; DefaultTimeout when zero, unbounded when negative.
	Timeout time.Duration
	// TopLimit is the number of ranked spending categories; core.TopCategoryLimit when zero.
	TopLimit int
	Logger   *applog.Logger
	Metrics  *metrics.Metrics
}

// Service builds StatsReports. It holds no per-report state and is safe for
// concurrent use.
type Service struct {
	agg      *Aggregator
	clock    func() time.Time
	loc      *time.Location
	timeout  time.Duration
	topLimit int
	logger   *applog.Logger
	slogger  *applog.StructuredLogger
	metrics  *metrics.Metrics
}

func NewService(store ledger.Store, opts Options) *Service {
	s := &Service{
		agg:      NewAggregator(store, opts.Metrics),
		clock:    opts.Clock,
		loc:      opts.Location,
		timeout:  opts.Timeout,
		topLimit: opts.TopLimit,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.timeout == 0 {
		s.timeout = DefaultTimeout
	}
	if s.topLimit <= 0 || s.topLimit > core.TopCategoryLimit {
		s.topLimit = core.TopCategoryLimit
	}
	if s.logger == nil {
		s.logger = applog.Nop()
	}
	s.logger = s.logger.WithComponent(applog.ComponentStats)
	s.slogger = applog.NewStructuredLogger(s.logger)
	return s
}

// Now returns the service clock in the report location.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// Report compares the current calendar month with the previous one for userID.
func (s *Service) Report(ctx context.Context, userID string) (core.StatsReport, error) {
	return s.ReportAt(ctx, userID, s.clock())
}

// ReportAt is Report with an explicit "now".
func (s *Service) ReportAt(ctx context.Context, userID string, now time.Time) (core.StatsReport, error) {
	start := time.Now()
	report, err := s.build(ctx, userID, now.In(s.loc))
	elapsed := time.Since(start)

	outcome := Outcome(err)
	s.metrics.ObserveReport(outcome, elapsed)
	if err != nil {
		fields := applog.NewFields()
		fields[applog.FieldUserID] = userID
		if outcome == OutcomeInvalidInput {
			s.logger.WarnContext(ctx, "Rejected stats request", append(fields.WithError(err).ToSlice(), applog.FieldErrorType, outcome)...)
		} else {
			s.slogger.LogError(ctx, "Stats report failed", err, outcome, applog.OpReport, fields)
		}
		return core.StatsReport{}, err
	}

	s.slogger.LogReportBuilt(ctx, userID, report.Current.Label(), report.Previous.Label(),
		len(report.TopCategories), elapsed.Milliseconds())
	return report, nil
}

// Outcome classifies a Report error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, core.ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, core.ErrCollaboratorFailure):
		return OutcomeCollaborator
	default:
		return OutcomeComputation
	}
}

func (s *Service) build(ctx context.Context, userID string, now time.Time) (core.StatsReport, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return core.StatsReport{}, err
	}
	if now.IsZero() {
		return core.StatsReport{}, fmt.Errorf("%w: reference time is zero", core.ErrInvalidInput)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cur, prev := core.ResolvePeriods(now)
	s.logger.DebugContext(ctx, "Assembling stats report",
		applog.NewFields().WithReport(userID, cur.Label(), prev.Label()).ToSlice()...)

	var (
		spentCur, spentPrev   core.Aggregate
		incomeCur, incomePrev core.Aggregate
		countCur, countPrev   core.Aggregate
		ranked                []core.CategorySum
	)

	g, gctx := errgroup.WithContext(ctx)
	aggregate := func(dst *core.Aggregate, typ core.TransactionType, w core.Window) {
		g.Go(func() error {
			agg, err := s.agg.Aggregate(gctx, userID, typ, w, nil)
			if err != nil {
				return err
			}
			*dst = agg
			return nil
		})
	}
	aggregate(&spentCur, core.Debit, cur)
	aggregate(&spentPrev, core.Debit, prev)
	aggregate(&incomeCur, core.Credit, cur)
	aggregate(&incomePrev, core.Credit, prev)
	aggregate(&countCur, "", cur)
	aggregate(&countPrev, "", prev)
	g.Go(func() error {
		top, err := s.agg.TopCategories(gctx, userID, core.Debit, cur, s.topLimit)
		if err != nil {
			return err
		}
		ranked = top
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.StatsReport{}, err
	}

	names := make([]string, len(ranked))
	for i, cs := range ranked {
		names[i] = cs.Category
	}
	prevSums, err := s.agg.CategorySums(ctx, userID, core.Debit, prev, names)
	if err != nil {
		return core.StatsReport{}, err
	}

	report := core.StatsReport{
		TotalSpent:       core.Compare(spentCur.Sum, spentPrev.Sum),
		TotalIncome:      core.Compare(incomeCur.Sum, incomePrev.Sum),
		NetSavings:       core.Compare(incomeCur.Sum.Sub(spentCur.Sum), incomePrev.Sum.Sub(spentPrev.Sum)),
		TransactionCount: core.CompareCounts(countCur.Count, countPrev.Count),
		TopCategories:    make([]core.CategoryComparison, 0, len(ranked)),
		Current:          cur,
		Previous:         prev,
	}
	for _, cs := range ranked {
		report.TopCategories = append(report.TopCategories, core.CategoryComparison{
			Name:             cs.Category,
			MetricComparison: core.Compare(cs.Sum, prevSums[cs.Category]),
		})
	}

	if err := report.Validate(); err != nil {
		return core.StatsReport{}, err
	}
	return report, nil
}
