package curve

import (
	"fmt"
	"time"
)

// ValidationError reports malformed construction input: unordered or
// duplicate nodes, empty node sets, or inconsistent composite ranges.
type ValidationError struct {
	Reason string
	Date   time.Time
}

func (e *ValidationError) Error() string {
	if e.Date.IsZero() {
		return "curve: " + e.Reason
	}
	return fmt.Sprintf("curve: %s (%s)", e.Reason, e.Date.Format("2006-01-02"))
}

// ExtrapolationError reports a query outside curve coverage: before the base
// date, or past the last node with extrapolation disabled.
type ExtrapolationError struct {
	Query time.Time
	Base  time.Time
	Last  time.Time
}

func (e *ExtrapolationError) Error() string {
	return fmt.Sprintf("curve: %s outside coverage [%s, %s]",
		e.Query.Format("2006-01-02"), e.Base.Format("2006-01-02"), e.Last.Format("2006-01-02"))
}

// StepBoundaryError reports a forward-rate query that spans an interior node
// of a flat-forward segment. The implied forward is a step function there;
// interpolating across the step would blend two distinct rate regimes.
type StepBoundaryError struct {
	Start time.Time
	End   time.Time
	Node  time.Time
}

func (e *StepBoundaryError) Error() string {
	return fmt.Sprintf("curve: forward [%s, %s] straddles step node %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.Node.Format("2006-01-02"))
}
