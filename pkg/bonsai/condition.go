package bonsai

import (
	"fmt"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// UnknownConditionKindError reports an edge whose condition kind is outside
// the set the renderer understands. Fatal; there is no recovery.
type UnknownConditionKindError struct {
	From string
	To   string
	Kind tree.CondKind
}

// Error implements the error interface.
func (e *UnknownConditionKindError) Error() string {
	return fmt.Sprintf("unknown condition kind %d on edge %q -> %q", int(e.Kind), e.From, e.To)
}

// RenderCondition produces the single-line boolean DSL expression for one
// branch edge. The operator is chosen by the condition kind:
//
//   - Assignment: "segment 12345" for numeric values, `geo="UK"` for strings.
//   - Range: "age <= 20" when only the upper bound is finite, "age > 20" when
//     only the lower bound is.
//   - Membership: `geo in ("UK", "DE")`, preserving the value order exactly.
//
// The Negated flag wraps the natural test in the DSL's negation form for the
// kind (!= for quoted equality, "not in" for membership, a "not " prefix
// otherwise). The Join flag quantifies the un-negated test with "every", or
// "not every" when combined with Negated.
//
// Returns a *FormatError for ranges without exactly one finite bound, and an
// *UnknownConditionKindError for condition kinds outside the dialect.
func RenderCondition(feature string, e tree.Edge) (string, error) {
	c := e.Cond

	var test string
	switch c.Kind {
	case tree.CondAssignment:
		test = renderAssignment(feature, c, c.Negated && !c.Join)
	case tree.CondRange:
		t, err := renderRange(feature, e)
		if err != nil {
			return "", err
		}
		test = t
		if c.Negated && !c.Join {
			test = "not " + test
		}
	case tree.CondMembership:
		op := " in "
		if c.Negated && !c.Join {
			op = " not in "
		}
		test = feature + op + formatMembers(c.Members)
	case tree.CondUnconditional:
		// Unconditional edges are routed to "else" by the branch orderer; one
		// arriving here means a second fallback slipped past validation.
		return "", &tree.StructuralError{NodeID: e.From, Reason: tree.ErrMultipleFallbacks}
	default:
		return "", &UnknownConditionKindError{From: e.From, To: e.To, Kind: c.Kind}
	}

	if c.Join {
		if c.Negated {
			return "not every " + test, nil
		}
		return "every " + test, nil
	}
	return test, nil
}

// renderAssignment spells an exact-value test. Numeric segment IDs use the
// bare space-joined form; string-valued categorical features use quoted
// equality.
func renderAssignment(feature string, c tree.Condition, negated bool) string {
	if c.Value.IsNumber() {
		test := feature + " " + c.Value.String()
		if negated {
			return "not " + test
		}
		return test
	}
	op := "="
	if negated {
		op = "!="
	}
	return feature + op + formatScalar(c.Value)
}

// renderRange spells a threshold comparison. The comparison direction
// derives from which bound is finite: an open lower bound tests "<=" against
// the upper bound, an open upper bound tests ">" against the lower bound.
func renderRange(feature string, e tree.Edge) (string, error) {
	c := e.Cond
	switch {
	case c.Lower == nil && c.Upper == nil:
		return "", &FormatError{NodeID: e.From, Detail: "range condition has no finite bound"}
	case c.Lower != nil && c.Upper != nil:
		return "", &FormatError{NodeID: e.From, Detail: "range condition has two finite bounds; this dialect renders single-comparison thresholds only"}
	case c.Upper != nil:
		return feature + " <= " + formatBound(*c.Upper), nil
	default:
		return feature + " > " + formatBound(*c.Lower), nil
	}
}
