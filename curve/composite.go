package curve

import (
	"time"

	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// Range assigns a segment to a validity interval [Start, End). A zero End
// marks the final, open-ended range.
type Range struct {
	Segment *Segment
	Start   time.Time
	End     time.Time
}

// Composite stitches non-overlapping date-ranged segments into one curve.
//
// Segments are chained multiplicatively at range boundaries, so the
// composite discount factor is continuous even where the forward-rate shape
// jumps. A Composite takes exclusive ownership of its segments; they must
// not be mutated by the caller after assembly.
type Composite struct {
	base   time.Time
	ranges []Range
}

// NewComposite validates that the ranges partition [base, +inf) in ascending
// order with no gaps or overlaps, and that each segment covers at least its
// interval.
func NewComposite(ranges ...Range) (*Composite, error) {
	if len(ranges) == 0 {
		return nil, &ValidationError{Reason: "composite needs at least one range"}
	}
	for i, r := range ranges {
		if r.Segment == nil {
			return nil, &ValidationError{Reason: "composite range has nil segment", Date: r.Start}
		}
		if i < len(ranges)-1 {
			if r.End.IsZero() {
				return nil, &ValidationError{Reason: "only the final range may be open-ended", Date: r.Start}
			}
			if !r.End.After(r.Start) {
				return nil, &ValidationError{Reason: "range end not after start", Date: r.End}
			}
			if !ranges[i+1].Start.Equal(r.End) {
				return nil, &ValidationError{Reason: "gap or overlap between ranges", Date: r.End}
			}
		} else if !r.End.IsZero() {
			return nil, &ValidationError{Reason: "final range must be open-ended", Date: r.End}
		}
		if r.Segment.Base().After(r.Start) {
			return nil, &ValidationError{Reason: "segment does not reach back to its range start", Date: r.Start}
		}
		if !r.End.IsZero() && r.Segment.LastDate().Before(r.End) {
			return nil, &ValidationError{Reason: "segment does not cover its range", Date: r.End}
		}
	}
	return &Composite{base: ranges[0].Start, ranges: ranges}, nil
}

// Clone deep-copies the composite, cloning every segment.
func (c *Composite) Clone() *Composite {
	ranges := make([]Range, len(c.ranges))
	copy(ranges, c.ranges)
	for i := range ranges {
		ranges[i].Segment = ranges[i].Segment.Clone()
	}
	return &Composite{base: c.base, ranges: ranges}
}

// Base returns the composite's base date.
func (c *Composite) Base() time.Time { return c.base }

// LastDate returns the last node date of the final segment.
func (c *Composite) LastDate() time.Time {
	return c.ranges[len(c.ranges)-1].Segment.LastDate()
}

// DayCount returns the curve-time convention of the first segment, which
// sets the composite's time axis.
func (c *Composite) DayCount() utils.Convention {
	return c.ranges[0].Segment.DayCount()
}

// Ranges returns a copy of the composite's range list.
func (c *Composite) Ranges() []Range {
	out := make([]Range, len(c.ranges))
	copy(out, c.ranges)
	return out
}

// DiscountFactor dispatches to the range containing t, scaling by the chain
// of boundary ratios of all earlier ranges so the result is continuous
// across boundaries.
func (c *Composite) DiscountFactor(t time.Time) (dual.Number, error) {
	if t.Before(c.base) {
		return dual.Number{}, &ExtrapolationError{Query: t, Base: c.base, Last: c.LastDate()}
	}
	scale := dual.Scalar(1.0)
	for _, r := range c.ranges {
		if r.End.IsZero() || t.Before(r.End) {
			dfT, err := r.Segment.DiscountFactor(t)
			if err != nil {
				return dual.Number{}, err
			}
			dfStart, err := r.Segment.DiscountFactor(r.Start)
			if err != nil {
				return dual.Number{}, err
			}
			return scale.Mul(dfT.Div(dfStart)), nil
		}
		dfEnd, err := r.Segment.DiscountFactor(r.End)
		if err != nil {
			return dual.Number{}, err
		}
		dfStart, err := r.Segment.DiscountFactor(r.Start)
		if err != nil {
			return dual.Number{}, err
		}
		scale = scale.Mul(dfEnd.Div(dfStart))
	}
	// Unreachable: the final range is open-ended.
	return scale, nil
}

// ZeroRate returns the continuously-compounded zero rate at t as a decimal.
func (c *Composite) ZeroRate(t time.Time) (dual.Number, error) {
	return zeroRate(c, t)
}

// ForwardRate returns the forward implied over [effective, termination].
// The flat-forward straddle rule applies within each range: a query spanning
// a step node of any flat-forward segment is rejected.
func (c *Composite) ForwardRate(effective, termination time.Time, comp Compounding) (dual.Number, error) {
	for _, r := range c.ranges {
		a, b := effective, termination
		if a.Before(r.Start) {
			a = r.Start
		}
		if !r.End.IsZero() && b.After(r.End) {
			b = r.End
		}
		if !b.After(a) {
			continue
		}
		if n, ok := r.Segment.stepNodeWithin(a, b); ok {
			return dual.Number{}, &StepBoundaryError{Start: effective, End: termination, Node: n}
		}
	}
	return forwardRate(c, effective, termination, comp)
}

// FreeNodeDates lists calibration unknowns across all unsolved segments, in
// range order.
func (c *Composite) FreeNodeDates() []time.Time {
	var out []time.Time
	for _, r := range c.ranges {
		out = append(out, r.Segment.FreeNodeDates()...)
	}
	return out
}

// SetFreeValues distributes values across unsolved segments in range order.
func (c *Composite) SetFreeValues(vals []dual.Number) {
	idx := 0
	for _, r := range c.ranges {
		n := len(r.Segment.FreeNodeDates())
		if n == 0 {
			continue
		}
		if idx+n > len(vals) {
			panic("curve: SetFreeValues count mismatch")
		}
		r.Segment.SetFreeValues(vals[idx : idx+n])
		idx += n
	}
	if idx != len(vals) {
		panic("curve: SetFreeValues count mismatch")
	}
}

// SetNodeValue assigns the value at a node date owned by one of the
// composite's segments. The base date is never assignable.
func (c *Composite) SetNodeValue(date time.Time, v dual.Number) error {
	for _, r := range c.ranges {
		if r.Segment.SetNodeValue(date, v) == nil {
			return nil
		}
	}
	return &ValidationError{Reason: "no node at date", Date: date}
}

// MarkSolved freezes every segment.
func (c *Composite) MarkSolved() {
	for _, r := range c.ranges {
		r.Segment.MarkSolved()
	}
}
