package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"energylog/internal/cache"
	"energylog/internal/core"
	"energylog/internal/log"
	"energylog/internal/metrics"
	"energylog/internal/stats"
)

// Snapshot is the versioned record source statistics are computed from.
type Snapshot interface {
	All(ctx context.Context) ([]core.EnergyRecord, error)
	Version() uint64
}

type StatsConfig struct {
	Location     *time.Location
	StartMileage *float64
	OptimizeCost bool
	CacheSize    int
	CacheTTL     time.Duration
}

// StatsService computes statistics over the current record snapshot. Yearly
// reports and cost statistics are memoized per snapshot version, and
// concurrent identical computations share one run.
type StatsService struct {
	source   Snapshot
	defaults stats.Options

	yearly *cache.LRUCache[*core.YearlyReport]
	costs  *cache.LRUCache[stats.CostStatistics]
	group  singleflight.Group

	logger *log.Logger
}

func NewStatsService(source Snapshot, cfg StatsConfig) *StatsService {
	size := cfg.CacheSize
	if size <= 0 {
		size = 128
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		source: source,
		defaults: stats.Options{
			Location:     loc,
			StartMileage: cfg.StartMileage,
			OptimizeCost: cfg.OptimizeCost,
		},
		yearly: cache.NewLRUCache[*core.YearlyReport](size, ttl),
		costs:  cache.NewLRUCache[stats.CostStatistics](size, ttl),
		logger: log.ForComponent(log.ComponentStats),
	}
}

// Options returns the configured options with per-request overrides applied.
func (s *StatsService) Options(startMileage *float64, optimizeCost *bool) stats.Options {
	opts := s.defaults
	if startMileage != nil {
		opts.StartMileage = startMileage
	}
	if optimizeCost != nil {
		opts.OptimizeCost = *optimizeCost
	}
	return opts
}

// Caches exposes the report caches for periodic cleanup.
func (s *StatsService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.yearly, s.costs}
}

func (s *StatsService) Timeline(ctx context.Context, f stats.Filter, opts stats.Options) ([]stats.TimelineEntry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	list, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.BuildTimeline(list, f, opts), nil
}

func (s *StatsService) Rollups(ctx context.Context, f stats.Filter, opts stats.Options) ([]core.MonthlyRollup, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	list, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.BuildMonthlyRollups(list, f, opts), nil
}

// YearlyReport returns the unrounded report for year, or nil when the year
// has no records. The result is shared; callers must not modify it.
func (s *StatsService) YearlyReport(ctx context.Context, year int, opts stats.Options) (*core.YearlyReport, error) {
	key := fmt.Sprintf("yearly|%d|%d|%s", s.source.Version(), year, optionsKey(opts))
	if report, ok := s.yearly.Get(key); ok {
		metrics.IncReportCache("yearly", true)
		return report, nil
	}
	metrics.IncReportCache("yearly", false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		list, err := s.snapshot(ctx)
		if err != nil {
			metrics.ObserveReport("yearly", err, time.Since(start))
			return nil, err
		}
		report := stats.ComputeYearlyReport(list, year, opts)
		metrics.ObserveReport("yearly", nil, time.Since(start))
		s.yearly.Set(key, report)
		s.logger.DebugContext(ctx, "Computed yearly report",
			log.FieldYear, year, log.FieldCount, len(list))
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.YearlyReport), nil
}

func (s *StatsService) CostStatistics(ctx context.Context, opts stats.Options) (stats.CostStatistics, error) {
	key := fmt.Sprintf("costs|%d|%s", s.source.Version(), optionsKey(opts))
	if cs, ok := s.costs.Get(key); ok {
		metrics.IncReportCache("costs", true)
		return cs, nil
	}
	metrics.IncReportCache("costs", false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		list, err := s.snapshot(ctx)
		if err != nil {
			metrics.ObserveReport("costs", err, time.Since(start))
			return nil, err
		}
		cs := stats.ComputeCostStatistics(list, opts)
		metrics.ObserveReport("costs", nil, time.Since(start))
		s.costs.Set(key, cs)
		return cs, nil
	})
	if err != nil {
		return stats.CostStatistics{}, err
	}
	return v.(stats.CostStatistics), nil
}

func (s *StatsService) Quarterly(ctx context.Context, opts stats.Options) ([]stats.QuarterCost, error) {
	list, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.QuarterlyCosts(list, opts), nil
}

func (s *StatsService) CostCurve(ctx context.Context) ([]stats.CurvePoint, error) {
	list, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.CostCurve(list), nil
}

func (s *StatsService) MonthlyCounts(ctx context.Context, opts stats.Options) ([]stats.MonthlyCount, error) {
	list, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.MonthlyCounts(list, opts), nil
}

// Years lists the calendar years that have records, newest first.
func (s *StatsService) Years(ctx context.Context, opts stats.Options) ([]int, error) {
	list, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stats.YearsWithData(list, opts), nil
}

func (s *StatsService) snapshot(ctx context.Context) ([]core.EnergyRecord, error) {
	list, err := s.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return list, nil
}

func optionsKey(opts stats.Options) string {
	mileage := "-"
	if opts.StartMileage != nil {
		mileage = strconv.FormatFloat(*opts.StartMileage, 'g', -1, 64)
	}
	loc := "UTC"
	if opts.Location != nil {
		loc = opts.Location.String()
	}
	return loc + "|" + mileage + "|" + strconv.FormatBool(opts.OptimizeCost)
}
