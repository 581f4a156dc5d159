package commands

import (
	"github.com/spf13/cobra"

	"github.com/meenmo/curvelib/builder"
	"github.com/meenmo/curvelib/utils"
)

// BuildRequest defines the JSON input schema for curve construction.
//
// Conventions:
// - rates are in percent (e.g., 4.05 means 4.05%)
// - dates are "YYYY-MM-DD"
type BuildRequest struct {
	CurveDate string             `json:"curve_date"`
	QuotesPct map[string]float64 `json:"quotes"` // tenor -> par rate
	Events    []EventJSON        `json:"events,omitempty"`

	// ForwardDays is the calendar span of the daily forward series.
	ForwardDays int `json:"forward_days,omitempty"`
}

type ForwardJSON struct {
	Date    string  `json:"date"`
	RatePct float64 `json:"rate,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type CurveJSON struct {
	Iterations     int           `json:"iterations"`
	MaxResidualBps float64       `json:"max_residual_bps"`
	Forwards       []ForwardJSON `json:"forwards"`
}

type BuildResponse struct {
	CurveDate string    `json:"curve_date"`
	Smooth    CurveJSON `json:"smooth"`
	Composite CurveJSON `json:"composite"`
	Error     string    `json:"error,omitempty"`
}

var buildInput string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Calibrate both curve variants and print daily forwards",
	Long: `Calibrates the smooth and composite curves from one quote snapshot
and prints the overnight forward series of each.

Example:
  curvelib build --input request.json
  echo '{"curve_date":"2025-06-10","quotes":{"1Y":4.05,"2Y":3.90}}' | curvelib build`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildInput, "input", "", "JSON request path (default: stdin)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	var req BuildRequest
	if err := readRequest(cmd, buildInput, &req); err != nil {
		return err
	}
	curveDate, err := parseDate(req.CurveDate)
	if err != nil {
		return err
	}
	quotes, err := quoteSet(req.QuotesPct)
	if err != nil {
		return err
	}
	events, err := parseEvents(req.Events)
	if err != nil {
		return err
	}
	days := req.ForwardDays
	if days <= 0 {
		days = 180
	}

	b, err := builder.NewBuilder(builderConfig(), log)
	if err != nil {
		return err
	}
	both, err := b.BuildBoth(cmd.Context(), curveDate, quotes, events)
	if err != nil {
		return err
	}

	resp := BuildResponse{
		CurveDate: req.CurveDate,
		Smooth:    curveJSON(both.Smooth, days),
		Composite: curveJSON(both.Composite, days),
	}
	return writeResponse(cmd, resp)
}

func curveJSON(res *builder.BuildResult, days int) CurveJSON {
	out := CurveJSON{
		Iterations:     res.Result.Iterations,
		MaxResidualBps: utils.RoundTo(res.Result.MaxResidualBps(), 6),
	}
	cal := builderConfig().Cal
	for _, p := range builder.ForwardSeries(res.Curve, cal, days) {
		fj := ForwardJSON{Date: p.Date.Format("2006-01-02")}
		if p.Err != nil {
			fj.Error = p.Err.Error()
		} else {
			fj.RatePct = utils.RoundTo(p.Rate, 6)
		}
		out.Forwards = append(out.Forwards, fj)
	}
	return out
}
