package tree

import "strconv"

// CondKind identifies the condition variant carried by an edge.
type CondKind int

const (
	// CondUnconditional marks an edge with no test. It is used for the edge
	// into a split's fallback child and is rendered as the "else" branch.
	CondUnconditional CondKind = iota
	// CondAssignment tests the branching feature for one exact value.
	CondAssignment
	// CondRange tests the branching feature against a single finite bound.
	CondRange
	// CondMembership tests the branching feature against an ordered value list.
	CondMembership
)

// String returns the lowercase name of the condition kind.
func (k CondKind) String() string {
	switch k {
	case CondUnconditional:
		return "unconditional"
	case CondAssignment:
		return "assignment"
	case CondRange:
		return "range"
	case CondMembership:
		return "membership"
	}
	return "unknown"
}

// Scalar is a single feature value: either a number (segment IDs, hours) or a
// string (country codes, domains). The distinction drives the DSL spelling:
// numeric values render bare, string values render quoted.
type Scalar struct {
	num     float64
	text    string
	numeric bool
}

// Number creates a numeric scalar.
func Number(v float64) Scalar {
	return Scalar{num: v, numeric: true}
}

// Text creates a string scalar.
func Text(s string) Scalar {
	return Scalar{text: s}
}

// IsNumber reports whether the scalar holds a numeric value.
func (s Scalar) IsNumber() bool { return s.numeric }

// Float returns the numeric value. It is 0 for string scalars.
func (s Scalar) Float() float64 { return s.num }

// String returns the string value for text scalars, or the shortest
// non-exponent decimal form for numeric scalars (12345, 0.5).
func (s Scalar) String() string {
	if s.numeric {
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	}
	return s.text
}

// Condition is the test carried by an edge, a closed set of variants selected
// by Kind. Only the fields valid for the variant are set; use the
// constructors below rather than struct literals.
type Condition struct {
	Kind CondKind

	// Value is the tested value for CondAssignment.
	Value Scalar

	// Lower and Upper are the range bounds for CondRange. A nil bound is
	// open-ended; this dialect carries at most one finite bound per edge.
	// The matched interval is (Lower, Upper]: an edge with only Lower renders
	// as "> Lower", an edge with only Upper renders as "<= Upper".
	Lower *float64
	Upper *float64

	// Members are the tested values for CondMembership. Rendering preserves
	// this order exactly; the compiler never sorts it.
	Members []Scalar

	// Negated renders the complement of the natural test.
	Negated bool

	// Join renders the quantified "every" form (or "not every" when combined
	// with Negated), for features that take multiple simultaneous values.
	Join bool
}

// Unconditional creates the no-test condition used for fallback edges.
func Unconditional() Condition {
	return Condition{Kind: CondUnconditional}
}

// Assignment creates an exact-value condition.
func Assignment(v Scalar) Condition {
	return Condition{Kind: CondAssignment, Value: v}
}

// RangeAbove creates a range condition matching values strictly greater than
// lower.
func RangeAbove(lower float64) Condition {
	return Condition{Kind: CondRange, Lower: &lower}
}

// RangeBelow creates a range condition matching values less than or equal to
// upper.
func RangeBelow(upper float64) Condition {
	return Condition{Kind: CondRange, Upper: &upper}
}

// Membership creates a set-membership condition. The value order is
// preserved through to the rendered DSL text.
func Membership(values ...Scalar) Condition {
	return Condition{Kind: CondMembership, Members: values}
}

// Negate returns a copy of the condition with the Negated flag set.
func (c Condition) Negate() Condition {
	c.Negated = true
	return c
}

// Every returns a copy of the condition with the Join flag set.
func (c Condition) Every() Condition {
	c.Join = true
	return c
}
