// Package curve represents discount curves as node sets tied to an
// interpolation rule. A Segment is one interpolation regime over ordered
// nodes; a Composite stitches date-ranged segments into a single queryable
// curve. All queries go through dual.Number so the same code path serves
// plain valuation and AD-seeded risk runs.
package curve

import (
	"sort"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// Interpolation selects how discount factors are interpolated between nodes.
type Interpolation int

const (
	// LogLinearDiscount interpolates linearly in ln(df) over day-count time,
	// the smooth long-end regime.
	LogLinearDiscount Interpolation = iota
	// FlatForwardRate holds the instantaneous forward rate constant between
	// nodes, the step regime anchored to discrete event dates.
	FlatForwardRate
)

func (i Interpolation) String() string {
	switch i {
	case LogLinearDiscount:
		return "log_linear"
	case FlatForwardRate:
		return "flat_forward"
	default:
		return "unknown"
	}
}

// Compounding selects the quoting convention for forward-rate queries.
type Compounding int

const (
	// Simple quotes (df1/df2 - 1) / accrual.
	Simple Compounding = iota
	// Continuous quotes ln(df1/df2) / accrual.
	Continuous
)

// Node anchors the interpolation at a date. The base-date node is fixed at
// 1.0; all later nodes start as free calibration unknowns.
type Node struct {
	Date  time.Time
	Value dual.Number
}

// Curve is the query surface shared by Segment and Composite.
type Curve interface {
	Base() time.Time
	LastDate() time.Time
	DayCount() utils.Convention
	DiscountFactor(t time.Time) (dual.Number, error)
	ZeroRate(t time.Time) (dual.Number, error)
	ForwardRate(effective, termination time.Time, comp Compounding) (dual.Number, error)
}

// Segment is a single interpolation regime over an ordered node set.
type Segment struct {
	base     time.Time
	nodes    []Node
	interp   Interpolation
	dayCount utils.Convention
	cal      calendar.CalendarID
	noExtrap bool
	solved   bool
}

// NewSegment builds a segment with the given node dates. The base date is
// always the first node with a fixed discount factor of 1.0; dates must be
// strictly after the base and free of duplicates (duplicates are a
// construction error, never silently merged). Node values are seeded at 1.0
// until calibration replaces them.
func NewSegment(base time.Time, dates []time.Time, interp Interpolation, dayCount utils.Convention, cal calendar.CalendarID) (*Segment, error) {
	if !dayCount.Valid() {
		return nil, &ValidationError{Reason: "unknown day count " + string(dayCount)}
	}
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	utils.SortDates(sorted)

	nodes := make([]Node, 0, len(sorted)+1)
	nodes = append(nodes, Node{Date: base, Value: dual.Scalar(1.0)})
	for i, d := range sorted {
		if !d.After(base) {
			return nil, &ValidationError{Reason: "node date not after base", Date: d}
		}
		if i > 0 && d.Equal(sorted[i-1]) {
			return nil, &ValidationError{Reason: "duplicate node date", Date: d}
		}
		nodes = append(nodes, Node{Date: d, Value: dual.Scalar(1.0)})
	}

	return &Segment{
		base:     base,
		nodes:    nodes,
		interp:   interp,
		dayCount: dayCount,
		cal:      cal,
	}, nil
}

// Clone returns a copy with its own node storage. Node writes on the clone
// leave the original untouched.
func (s *Segment) Clone() *Segment {
	out := *s
	out.nodes = append([]Node(nil), s.nodes...)
	return &out
}

// DisableExtrapolation makes queries past the last node fail with
// ExtrapolationError instead of extending the last interval's implied rate.
func (s *Segment) DisableExtrapolation() {
	s.noExtrap = true
}

// Base returns the segment's base date.
func (s *Segment) Base() time.Time { return s.base }

// LastDate returns the last node date.
func (s *Segment) LastDate() time.Time { return s.nodes[len(s.nodes)-1].Date }

// DayCount returns the segment's curve-time day count convention.
func (s *Segment) DayCount() utils.Convention { return s.dayCount }

// Scheme returns the segment's interpolation regime.
func (s *Segment) Scheme() Interpolation { return s.interp }

// Calendar returns the segment's business-day calendar.
func (s *Segment) Calendar() calendar.CalendarID { return s.cal }

// Nodes returns a copy of the node set.
func (s *Segment) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Solved reports whether calibration has fixed this segment's node values.
func (s *Segment) Solved() bool { return s.solved }

// MarkSolved freezes the segment: its nodes stop counting as calibration
// unknowns.
func (s *Segment) MarkSolved() { s.solved = true }

// FreeNodeDates lists the dates whose values remain calibration unknowns.
// A solved segment has none.
func (s *Segment) FreeNodeDates() []time.Time {
	if s.solved {
		return nil
	}
	out := make([]time.Time, 0, len(s.nodes)-1)
	for _, n := range s.nodes[1:] {
		out = append(out, n.Date)
	}
	return out
}

// SetFreeValues assigns values to all non-base nodes in date order. The
// caller (the solver) must supply exactly one value per free node.
func (s *Segment) SetFreeValues(vals []dual.Number) {
	if len(vals) != len(s.nodes)-1 {
		panic("curve: SetFreeValues count mismatch")
	}
	for i, v := range vals {
		s.nodes[i+1].Value = v
	}
}

// SetNodeValue assigns the value at an existing node date.
func (s *Segment) SetNodeValue(date time.Time, v dual.Number) error {
	for i := range s.nodes[1:] {
		if s.nodes[i+1].Date.Equal(date) {
			s.nodes[i+1].Value = v
			return nil
		}
	}
	return &ValidationError{Reason: "no node at date", Date: date}
}

func (s *Segment) timeFromBase(t time.Time) float64 {
	return utils.YearFraction(s.base, t, s.dayCount)
}

// bracket returns the index i such that nodes[i].Date <= t < nodes[i+1].Date.
// It assumes t is within [base, last].
func (s *Segment) bracket(t time.Time) int {
	i := sort.Search(len(s.nodes), func(i int) bool {
		return s.nodes[i].Date.After(t)
	})
	return i - 1
}

// DiscountFactor returns the interpolated discount factor at t.
//
// Queries before the base date always fail with ExtrapolationError. Queries
// past the last node extend the last interval's implied forward rate unless
// extrapolation is disabled.
func (s *Segment) DiscountFactor(t time.Time) (dual.Number, error) {
	if t.Before(s.base) {
		return dual.Number{}, &ExtrapolationError{Query: t, Base: s.base, Last: s.LastDate()}
	}
	last := len(s.nodes) - 1
	if t.After(s.nodes[last].Date) {
		if s.noExtrap || last < 1 {
			return dual.Number{}, &ExtrapolationError{Query: t, Base: s.base, Last: s.LastDate()}
		}
		return s.interpolate(last-1, last, t), nil
	}

	i := s.bracket(t)
	if s.nodes[i].Date.Equal(t) {
		return s.nodes[i].Value, nil
	}
	return s.interpolate(i, i+1, t), nil
}

// interpolate computes df(t) from the interval [nodes[lo], nodes[hi]]. For t
// past nodes[hi] this extrapolates the interval's implied rate flat.
func (s *Segment) interpolate(lo, hi int, t time.Time) dual.Number {
	v1, v2 := s.nodes[lo].Value, s.nodes[hi].Value
	t1 := s.timeFromBase(s.nodes[lo].Date)
	t2 := s.timeFromBase(s.nodes[hi].Date)
	tq := s.timeFromBase(t)
	if t2 == t1 {
		return v1
	}

	switch s.interp {
	case LogLinearDiscount:
		// ln df(t) = ln v1 + (ln v2 - ln v1) * frac
		frac := (tq - t1) / (t2 - t1)
		l1, l2 := v1.Log(), v2.Log()
		return l1.MulFloat(1 - frac).Add(l2.MulFloat(frac)).Exp()
	case FlatForwardRate:
		// df(t) = v1 * exp(-f * (t - t1)) with f the interval's constant
		// instantaneous forward rate.
		f := v1.Div(v2).Log().MulFloat(1 / (t2 - t1))
		return v1.Mul(f.MulFloat(-(tq - t1)).Exp())
	default:
		panic("curve: unknown interpolation scheme")
	}
}

// ZeroRate returns the continuously-compounded zero rate at t as a decimal.
func (s *Segment) ZeroRate(t time.Time) (dual.Number, error) {
	return zeroRate(s, t)
}

// ForwardRate returns the forward rate implied by discount factors at the
// two dates. Under FlatForwardRate a query straddling an interior node fails
// with StepBoundaryError: the step must not be interpolated across.
func (s *Segment) ForwardRate(effective, termination time.Time, comp Compounding) (dual.Number, error) {
	if n, ok := s.stepNodeWithin(effective, termination); ok {
		return dual.Number{}, &StepBoundaryError{Start: effective, End: termination, Node: n}
	}
	return forwardRate(s, effective, termination, comp)
}

// stepNodeWithin reports an interior node strictly inside (a, b) when the
// segment is a flat-forward regime.
func (s *Segment) stepNodeWithin(a, b time.Time) (time.Time, bool) {
	if s.interp != FlatForwardRate {
		return time.Time{}, false
	}
	for _, n := range s.nodes[1:] {
		if n.Date.After(a) && n.Date.Before(b) {
			return n.Date, true
		}
	}
	return time.Time{}, false
}

// zeroRate derives the continuous zero from a curve's discount factor.
func zeroRate(c Curve, t time.Time) (dual.Number, error) {
	df, err := c.DiscountFactor(t)
	if err != nil {
		return dual.Number{}, err
	}
	tau := utils.YearFraction(c.Base(), t, c.DayCount())
	if tau == 0 {
		return dual.Scalar(0), nil
	}
	return df.Log().MulFloat(-1 / tau), nil
}

// forwardRate derives the forward over [a, b] from a curve's discount
// factors under the requested compounding.
func forwardRate(c Curve, a, b time.Time, comp Compounding) (dual.Number, error) {
	if !b.After(a) {
		return dual.Number{}, &ValidationError{Reason: "termination not after effective", Date: b}
	}
	dfA, err := c.DiscountFactor(a)
	if err != nil {
		return dual.Number{}, err
	}
	dfB, err := c.DiscountFactor(b)
	if err != nil {
		return dual.Number{}, err
	}
	accrual := utils.YearFraction(a, b, c.DayCount())

	switch comp {
	case Continuous:
		return dfA.Div(dfB).Log().MulFloat(1 / accrual), nil
	default:
		return dfA.Div(dfB).AddFloat(-1).MulFloat(1 / accrual), nil
	}
}
