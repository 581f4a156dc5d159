package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/curvelib/builder"
	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// EventJSON is one scheduled policy date with its quoted overnight rate in
// percent.
type EventJSON struct {
	Date    string  `json:"date"` // "2025-07-30"
	RatePct float64 `json:"rate"`
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// quoteSet orders a tenor-to-rate map by maturity. Quotes are in percent.
func quoteSet(quotes map[string]float64) (builder.QuoteSet, error) {
	tenors := make([]string, 0, len(quotes))
	years := make(map[string]float64, len(quotes))
	for t := range quotes {
		y, err := curve.TenorToYears(t)
		if err != nil {
			return builder.QuoteSet{}, err
		}
		tenors = append(tenors, t)
		years[t] = y
	}
	sort.Slice(tenors, func(i, j int) bool {
		return years[tenors[i]] < years[tenors[j]]
	})
	qs := builder.QuoteSet{Tenors: tenors}
	for _, t := range tenors {
		qs.Rates = append(qs.Rates, quotes[t])
	}
	if err := qs.Validate(); err != nil {
		return builder.QuoteSet{}, err
	}
	return qs, nil
}

func parseEvents(in []EventJSON) ([]builder.EventQuote, error) {
	out := make([]builder.EventQuote, 0, len(in))
	for _, ev := range in {
		d, err := parseDate(ev.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, builder.EventQuote{Date: d, Rate: ev.RatePct})
	}
	return out, nil
}

// builderConfig maps the loaded runtime config onto build conventions.
func builderConfig() builder.Config {
	bc := builder.DefaultConfig()
	bc.SpotLagDays = cfg.Curve.SpotLagDays
	bc.DayCount = utils.Convention(cfg.Curve.DayCount)
	bc.Cal = calendar.CalendarID(cfg.Curve.Calendar)
	bc.EventHorizonDays = cfg.Curve.EventHorizonD
	bc.CacheCapacity = cfg.Cache.Capacity
	bc.Solver = solver.Options{
		Tolerance:     cfg.Solver.Tolerance,
		MaxIterations: cfg.Solver.MaxIterations,
		Logger:        log,
	}
	return bc
}

// readRequest decodes the JSON request from path, or stdin when path is
// empty.
func readRequest(cmd *cobra.Command, path string, v any) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("bad request JSON: %w", err)
	}
	return nil
}

func writeResponse(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
