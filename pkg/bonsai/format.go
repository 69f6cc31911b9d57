package bonsai

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// NoBid is the reserved sentinel emitted for leaves flagged as no-bid.
const NoBid = "no_bid"

// FormatError reports a value that cannot be rendered as a DSL literal.
type FormatError struct {
	NodeID string // offending node (or edge source), empty when unknown
	Detail string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("format error: %s", e.Detail)
	}
	return fmt.Sprintf("format error at node %q: %s", e.NodeID, e.Detail)
}

// FormatBid renders a leaf output as a fixed 4-decimal literal (0.2000).
// The decimal separator is always "." and trailing zeros are kept.
// Returns a *FormatError for NaN and infinite values.
func FormatBid(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", &FormatError{Detail: fmt.Sprintf("bid output %v is not a finite number", v)}
	}
	return strconv.FormatFloat(v, 'f', 4, 64), nil
}

// formatBound renders a range bound in shortest non-exponent decimal form,
// so integral thresholds print without a fraction (20, not 20.0).
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatScalar renders an assignment or membership value: numeric values
// bare, string values quoted.
func formatScalar(s tree.Scalar) string {
	if s.IsNumber() {
		return s.String()
	}
	return strconv.Quote(s.String())
}

// formatMembers renders a membership list as a parenthesized, comma-separated
// sequence preserving the input order exactly.
func formatMembers(values []tree.Scalar) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatScalar(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
