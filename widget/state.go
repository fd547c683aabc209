package widget

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
)

// State is the user-facing value of one widget.
// A nil State and any State whose IsDefault reports true mean no restriction.
type State interface {
	IsDefault() bool
}

// Selection is the set of chosen values of a categorical widget.
type Selection []string

func (s Selection) IsDefault() bool { return len(s) == 0 }

// Range is an inclusive numeric interval. A nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

func (r Range) IsDefault() bool { return r.Min == nil && r.Max == nil }

// Between returns the closed range [lo, hi].
func Between(lo, hi float64) Range {
	return Range{Min: &lo, Max: &hi}
}

// AtLeast returns the range [lo, +inf).
func AtLeast(lo float64) Range {
	return Range{Min: &lo}
}

// AtMost returns the range (-inf, hi].
func AtMost(hi float64) Range {
	return Range{Max: &hi}
}

func (r Range) validate() error {
	if r.Min != nil && math.IsNaN(*r.Min) || r.Max != nil && math.IsNaN(*r.Max) {
		return fmt.Errorf("%w: range bound is NaN", ErrInvalidState)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%w: range min %g is greater than max %g", ErrInvalidState, *r.Min, *r.Max)
	}
	return nil
}

// Period is an inclusive time interval. A nil bound is open.
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) IsDefault() bool { return p.From == nil && p.To == nil }

// During returns the closed period [from, to].
func During(from, to time.Time) Period {
	return Period{From: &from, To: &to}
}

// Extent is a bounding box; rows whose geometry intersects it match.
type Extent struct {
	Bound *orb.Bound
}

func (e Extent) IsDefault() bool { return e.Bound == nil }

// Within returns the extent of the given bound.
func Within(b orb.Bound) Extent {
	return Extent{Bound: &b}
}
