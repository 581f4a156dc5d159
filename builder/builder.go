// Package builder assembles calibrated curves from market quotes. It turns
// a tenor/rate quote set into swap instruments, partitions the tenors into
// a short flat-forward regime and a long smooth regime, and drives the
// calibration loop. Results are memoized behind a fingerprint cache.
package builder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instrument"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// longTenors are quoted maturities calibrated on the smooth long segment.
// Everything shorter rides the flat-forward short segment.
var longTenors = map[string]bool{
	"18M": true, "2Y": true, "3Y": true, "4Y": true, "5Y": true,
	"7Y": true, "10Y": true, "15Y": true, "20Y": true, "30Y": true,
}

// QuoteSet is an ordered par swap quote strip. Rates are in percent, the
// way dealers publish them.
type QuoteSet struct {
	Tenors []string
	Rates  []float64
}

// Validate checks shape and tenor syntax without building anything.
func (q QuoteSet) Validate() error {
	if len(q.Tenors) == 0 {
		return fmt.Errorf("QuoteSet.Validate: empty quote set")
	}
	if len(q.Tenors) != len(q.Rates) {
		return fmt.Errorf("QuoteSet.Validate: %d tenors vs %d rates", len(q.Tenors), len(q.Rates))
	}
	for _, t := range q.Tenors {
		y, err := curve.TenorToYears(t)
		if err != nil {
			return fmt.Errorf("QuoteSet.Validate: %w", err)
		}
		if y <= 0 {
			return fmt.Errorf("QuoteSet.Validate: bad tenor %q", t)
		}
	}
	return nil
}

// EventQuote pins the overnight rate across one scheduled policy date. Rate
// is in percent.
type EventQuote struct {
	Date time.Time
	Rate float64
}

// Config carries the market conventions shared by every build.
type Config struct {
	SpotLagDays      int
	DayCount         utils.Convention
	SwapFreqMonths   int
	Cal              calendar.CalendarID
	EventHorizonDays int
	CacheCapacity    int
	Solver           solver.Options
}

// DefaultConfig returns USD SOFR-style conventions.
func DefaultConfig() Config {
	return Config{
		SpotLagDays:      2,
		DayCount:         utils.Act360,
		SwapFreqMonths:   12,
		Cal:              calendar.FED,
		EventHorizonDays: 540,
		CacheCapacity:    128,
		Solver:           solver.DefaultOptions(),
	}
}

// BuildResult bundles a calibrated curve with the instruments and targets
// that produced it, ready for sensitivity work.
type BuildResult struct {
	Curve       solver.Target
	Result      *solver.Result
	Instruments []instrument.Instrument
	Targets     []float64 // decimal
}

// Builder constructs and calibrates curves under one convention set.
type Builder struct {
	cfg   Config
	log   zerolog.Logger
	cache *resultCache
}

// NewBuilder wires a builder with its result cache.
func NewBuilder(cfg Config, log zerolog.Logger) (*Builder, error) {
	if cfg.SwapFreqMonths <= 0 {
		return nil, fmt.Errorf("builder.NewBuilder: swap frequency must be positive, got %d", cfg.SwapFreqMonths)
	}
	cache, err := newResultCache(cfg.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("builder.NewBuilder: %w", err)
	}
	return &Builder{
		cfg:   cfg,
		log:   log.With().Str("component", "builder").Logger(),
		cache: cache,
	}, nil
}

// effectiveDate applies the spot lag to the curve date.
func (b *Builder) effectiveDate(curveDate time.Time) time.Time {
	return calendar.AddBusinessDays(b.cfg.Cal, curveDate, b.cfg.SpotLagDays)
}

// swapFor materializes the quoted par swap for one tenor. The returned rate
// is the decimal calibration target.
func (b *Builder) swapFor(effective time.Time, tenor string, ratePct float64) (instrument.Swap, float64, error) {
	termination, err := curve.AddTenor(effective, tenor, b.cfg.Cal)
	if err != nil {
		return instrument.Swap{}, 0, err
	}
	rate := ratePct / 100.0
	return instrument.Swap{
		EffectiveDate:   effective,
		TerminationDate: termination,
		FixedRate:       rate,
		Notional:        1.0,
		FreqMonths:      b.cfg.SwapFreqMonths,
		DayCount:        b.cfg.DayCount,
		Cal:             b.cfg.Cal,
	}, rate, nil
}

// BuildSmooth calibrates a single log-linear curve to the full quote strip.
func (b *Builder) BuildSmooth(curveDate time.Time, quotes QuoteSet) (*BuildResult, error) {
	if err := quotes.Validate(); err != nil {
		return nil, fmt.Errorf("Builder.BuildSmooth: %w", err)
	}
	key := fingerprint(curveDate, quotes, nil, "smooth")
	if res, ok := b.cache.get(key); ok {
		b.log.Debug().Time("curve_date", curveDate).Msg("smooth curve served from cache")
		return res, nil
	}

	effective := b.effectiveDate(curveDate)
	instruments := make([]instrument.Instrument, 0, len(quotes.Tenors))
	targets := make([]float64, 0, len(quotes.Tenors))
	dates := make([]time.Time, 0, len(quotes.Tenors))
	for i, tenor := range quotes.Tenors {
		swp, rate, err := b.swapFor(effective, tenor, quotes.Rates[i])
		if err != nil {
			return nil, fmt.Errorf("Builder.BuildSmooth: %w", err)
		}
		instruments = append(instruments, swp)
		targets = append(targets, rate)
		dates = append(dates, swp.TerminationDate)
	}

	seg, err := curve.NewSegment(curveDate, dates, curve.LogLinearDiscount, b.cfg.DayCount, b.cfg.Cal)
	if err != nil {
		return nil, fmt.Errorf("Builder.BuildSmooth: %w", err)
	}

	res, err := solver.Solve(solver.Problem{
		Curve:       seg,
		Instruments: instruments,
		Targets:     targets,
	}, b.cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("Builder.BuildSmooth: %w", err)
	}
	b.log.Info().
		Time("curve_date", curveDate).
		Int("instruments", len(instruments)).
		Int("iterations", res.Iterations).
		Float64("max_residual_bps", res.MaxResidualBps()).
		Msg("smooth curve calibrated")

	out := &BuildResult{Curve: seg, Result: res, Instruments: instruments, Targets: targets}
	b.cache.put(key, out)
	return out, nil
}

// BuildComposite calibrates the two-regime curve. The long tenors are
// solved first on a standalone smooth segment; the short tenors plus the
// policy-event turns are then solved on a flat-forward segment stitched in
// front of it.
func (b *Builder) BuildComposite(curveDate time.Time, quotes QuoteSet, events []EventQuote) (*BuildResult, error) {
	if err := quotes.Validate(); err != nil {
		return nil, fmt.Errorf("Builder.BuildComposite: %w", err)
	}
	key := fingerprint(curveDate, quotes, events, "composite")
	if res, ok := b.cache.get(key); ok {
		b.log.Debug().Time("curve_date", curveDate).Msg("composite curve served from cache")
		return res, nil
	}

	effective := b.effectiveDate(curveDate)

	var short, long QuoteSet
	for i, tenor := range quotes.Tenors {
		if longTenors[tenor] {
			long.Tenors = append(long.Tenors, tenor)
			long.Rates = append(long.Rates, quotes.Rates[i])
		} else {
			short.Tenors = append(short.Tenors, tenor)
			short.Rates = append(short.Rates, quotes.Rates[i])
		}
	}
	if len(short.Tenors) == 0 || len(long.Tenors) == 0 {
		return nil, fmt.Errorf("Builder.BuildComposite: quote strip must span both regimes, got %d short and %d long tenors",
			len(short.Tenors), len(long.Tenors))
	}

	longRes, err := b.BuildSmooth(curveDate, long)
	if err != nil {
		return nil, fmt.Errorf("Builder.BuildComposite: long segment: %w", err)
	}
	longSeg, ok := longRes.Curve.(*curve.Segment)
	if !ok {
		return nil, fmt.Errorf("Builder.BuildComposite: unexpected long curve type %T", longRes.Curve)
	}
	// The composite takes ownership of its segments; the cached long result
	// keeps its own node storage.
	longSeg = longSeg.Clone()

	instruments := make([]instrument.Instrument, 0, len(short.Tenors)+len(events))
	targets := make([]float64, 0, len(short.Tenors)+len(events))
	dates := make([]time.Time, 0, len(short.Tenors)+len(events))
	for i, tenor := range short.Tenors {
		swp, rate, err := b.swapFor(effective, tenor, short.Rates[i])
		if err != nil {
			return nil, fmt.Errorf("Builder.BuildComposite: %w", err)
		}
		instruments = append(instruments, swp)
		targets = append(targets, rate)
		dates = append(dates, swp.TerminationDate)
	}

	// Each policy event contributes one turn instrument and one node at the
	// turn's end, so the forward regime steps right after the event and the
	// system stays square.
	horizon := curveDate.AddDate(0, 0, b.cfg.EventHorizonDays)
	for _, ev := range selectEvents(events, curveDate, horizon) {
		turnStart := calendar.Adjust(b.cfg.Cal, ev.Date)
		turnEnd := calendar.AddBusinessDays(b.cfg.Cal, turnStart, 1)
		rate := ev.Rate / 100.0
		instruments = append(instruments, instrument.FRA{
			EffectiveDate:   turnStart,
			TerminationDate: turnEnd,
			FixedRate:       rate,
			Notional:        1.0,
			DayCount:        b.cfg.DayCount,
		})
		targets = append(targets, rate)
		dates = append(dates, turnEnd)
	}
	dates = utils.UniqueSortedDates(dates)
	if len(dates) != len(instruments) {
		return nil, fmt.Errorf("Builder.BuildComposite: %d nodes for %d instruments, "+
			"an event date collides with a swap maturity", len(dates), len(instruments))
	}

	shortSeg, err := curve.NewSegment(curveDate, dates, curve.FlatForwardRate, b.cfg.DayCount, b.cfg.Cal)
	if err != nil {
		return nil, fmt.Errorf("Builder.BuildComposite: %w", err)
	}

	boundary := shortSeg.LastDate()
	comp, err := curve.NewComposite(
		curve.Range{Segment: shortSeg, Start: curveDate, End: boundary},
		curve.Range{Segment: longSeg, Start: boundary},
	)
	if err != nil {
		return nil, fmt.Errorf("Builder.BuildComposite: %w", err)
	}

	res, err := solver.Solve(solver.Problem{
		Curve:       comp,
		Instruments: instruments,
		Targets:     targets,
	}, b.cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("Builder.BuildComposite: %w", err)
	}
	b.log.Info().
		Time("curve_date", curveDate).
		Time("boundary", boundary).
		Int("instruments", len(instruments)).
		Int("iterations", res.Iterations).
		Float64("max_residual_bps", res.MaxResidualBps()).
		Msg("composite curve calibrated")

	out := &BuildResult{Curve: comp, Result: res, Instruments: instruments, Targets: targets}
	b.cache.put(key, out)
	return out, nil
}

// selectEvents keeps events strictly after the curve date and at or before
// the horizon, sorted by date.
func selectEvents(events []EventQuote, curveDate, horizon time.Time) []EventQuote {
	out := make([]EventQuote, 0, len(events))
	for _, ev := range events {
		if ev.Date.After(curveDate) && !ev.Date.After(horizon) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Both bundles the two curve variants built from one quote snapshot.
type Both struct {
	Smooth    *BuildResult
	Composite *BuildResult
}

// BuildBoth calibrates the smooth and composite variants concurrently.
func (b *Builder) BuildBoth(ctx context.Context, curveDate time.Time, quotes QuoteSet, events []EventQuote) (*Both, error) {
	var out Both
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := b.BuildSmooth(curveDate, quotes)
		if err != nil {
			return err
		}
		out.Smooth = res
		return nil
	})
	g.Go(func() error {
		res, err := b.BuildComposite(curveDate, quotes, events)
		if err != nil {
			return err
		}
		out.Composite = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Builder.BuildBoth: %w", err)
	}
	return &out, nil
}
