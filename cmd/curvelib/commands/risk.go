package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meenmo/curvelib/builder"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instrument"
)

// InstrumentJSON describes the trade to risk. Termination may be given
// directly or derived from a tenor off the effective date.
type InstrumentJSON struct {
	Type         string  `json:"type"` // "swap" or "fra"
	Effective    string  `json:"effective"`
	Termination  string  `json:"termination,omitempty"`
	Tenor        string  `json:"tenor,omitempty"`
	FixedRatePct float64 `json:"fixed_rate"`
	Notional     float64 `json:"notional"`
}

// RiskRequest defines the JSON input schema for sensitivity runs. The curve
// inputs match the build command; the instrument is priced on both variants.
type RiskRequest struct {
	CurveDate  string             `json:"curve_date"`
	QuotesPct  map[string]float64 `json:"quotes"`
	Events     []EventJSON        `json:"events,omitempty"`
	Instrument InstrumentJSON     `json:"instrument"`
}

type RiskJSON struct {
	NPV        float64   `json:"npv"`
	Delta      []float64 `json:"delta"`
	DeltaTotal float64   `json:"delta_total"`
	Gamma      float64   `json:"gamma"`
	GammaDiag  []float64 `json:"gamma_diag"`
}

type RiskResponse struct {
	CurveDate      string   `json:"curve_date"`
	Smooth         RiskJSON `json:"smooth"`
	Composite      RiskJSON `json:"composite"`
	NPVDiff        float64  `json:"npv_diff"`
	DeltaTotalDiff float64  `json:"delta_total_diff"`
	Error          string   `json:"error,omitempty"`
}

var riskInput string

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Price an instrument and its quote sensitivities on both curves",
	Long: `Calibrates both curve variants, then reports the instrument's NPV,
per-quote delta and convexity on each, with the variant spread.

Example:
  curvelib risk --input request.json`,
	RunE: runRisk,
}

func init() {
	riskCmd.Flags().StringVar(&riskInput, "input", "", "JSON request path (default: stdin)")
}

func runRisk(cmd *cobra.Command, args []string) error {
	var req RiskRequest
	if err := readRequest(cmd, riskInput, &req); err != nil {
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
	bc := builderConfig()
	inst, err := parseInstrument(req.Instrument, bc)
	if err != nil {
		return err
	}

	b, err := builder.NewBuilder(bc, log)
	if err != nil {
		return err
	}
	both, err := b.BuildBoth(cmd.Context(), curveDate, quotes, events)
	if err != nil {
		return err
	}
	cmp, err := builder.Compare(both, inst, log)
	if err != nil {
		return err
	}

	resp := RiskResponse{
		CurveDate:      req.CurveDate,
		Smooth:         riskJSON(cmp.Smooth),
		Composite:      riskJSON(cmp.Composite),
		NPVDiff:        cmp.NPVDiff,
		DeltaTotalDiff: cmp.DeltaTotalDiff,
	}
	return writeResponse(cmd, resp)
}

func riskJSON(r builder.RiskReport) RiskJSON {
	return RiskJSON{
		NPV:        r.NPV,
		Delta:      r.Delta,
		DeltaTotal: r.DeltaTotal,
		Gamma:      r.Gamma,
		GammaDiag:  r.GammaDiag,
	}
}

func parseInstrument(in InstrumentJSON, bc builder.Config) (instrument.Instrument, error) {
	effective, err := parseDate(in.Effective)
	if err != nil {
		return nil, err
	}
	termination := effective
	switch {
	case in.Termination != "":
		termination, err = parseDate(in.Termination)
	case in.Tenor != "":
		termination, err = curve.AddTenor(effective, in.Tenor, bc.Cal)
	default:
		err = fmt.Errorf("instrument needs a termination date or a tenor")
	}
	if err != nil {
		return nil, err
	}

	rate := in.FixedRatePct / 100.0
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "swap", "":
		return instrument.Swap{
			EffectiveDate:   effective,
			TerminationDate: termination,
			FixedRate:       rate,
			Notional:        in.Notional,
			FreqMonths:      bc.SwapFreqMonths,
			DayCount:        bc.DayCount,
			Cal:             bc.Cal,
		}, nil
	case "fra":
		return instrument.FRA{
			EffectiveDate:   effective,
			TerminationDate: termination,
			FixedRate:       rate,
			Notional:        in.Notional,
			DayCount:        bc.DayCount,
		}, nil
	default:
		return nil, fmt.Errorf("unknown instrument type %q", in.Type)
	}
}
