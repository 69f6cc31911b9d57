// Package logistic converts a trained logistic-regression bidder with
// one-hot-encoded categorical features into a bidding tree. The model is the
// usual triple of vectorizer vocabulary, coefficient vector and intercept,
// plus a base bid the predicted probability is scaled by.
package logistic

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/errors"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/features"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
)

// Bucket maps a one-hot token of a range feature to its interval bounds.
// Exactly one bound must be finite; the emitted dialect renders
// single-comparison thresholds only.
type Bucket struct {
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

// Model is a trained logistic-regression bidder.
//
// Vocabulary maps one-hot tokens of the form "feature=value" to indices into
// Weights. Features lists the split order, root first. Buckets optionally
// maps range-feature tokens to their interval bounds.
type Model struct {
	Features   []string                     `json:"features"`
	Vocabulary map[string]int               `json:"vocabulary"`
	Weights    []float64                    `json:"weights"`
	Intercept  float64                      `json:"intercept"`
	BaseBid    float64                      `json:"base_bid"`
	Buckets    map[string]map[string]Bucket `json:"buckets,omitempty"`
}

// LoadModel reads a model from a JSON file.
func LoadModel(path string) (Model, error) {
	var m Model
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, errors.Wrap(errors.ErrCodeFileNotFound, err, "model file not found")
		}
		return m, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading model file")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decoding model JSON")
	}
	return m, nil
}

// Converter turns models into bidding trees, clamping values and choosing
// condition kinds per the feature library.
type Converter struct {
	lib *features.Library
}

// NewConverter builds a converter. A nil library falls back to the stock
// declarations.
func NewConverter(lib *features.Library) *Converter {
	if lib == nil {
		lib = features.Default()
	}
	return &Converter{lib: lib}
}

// entry is one vocabulary value of a feature, ordered by weight index so the
// emitted branch order is reproducible.
type entry struct {
	token string
	index int
}

// Convert builds the bidding tree for a model.
//
// The tree is a full cascade over Features in order: every split level
// branches on one feature, with one conditional branch per vocabulary value
// and a fallback default leaf. A leaf's bid is sigmoid(intercept + path
// weights) scaled by the base bid; a fallback leaf contributes weight zero
// for its own level and terminates the path early.
func (c *Converter) Convert(m Model) (*tree.Tree, error) {
	values, err := c.index(m)
	if err != nil {
		return nil, err
	}

	tr := tree.New(tree.Metadata{"source": "logistic"})
	if err := tr.AddNode(tree.Node{ID: "root", Kind: tree.KindSplit, Feature: m.Features[0]}); err != nil {
		return nil, err
	}

	type item struct {
		id    string
		depth int
		sum   float64
	}
	queue := []item{{id: "root", depth: 0, sum: m.Intercept}}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		feature := m.Features[parent.depth]

		for _, v := range values[feature] {
			childID := parent.id + "/" + feature + "=" + v.token
			childSum := parent.sum + m.Weights[v.index]

			child := tree.Node{ID: childID}
			if parent.depth+1 == len(m.Features) {
				child.Kind = tree.KindLeaf
				child.Output = sigmoid(childSum) * m.BaseBid
			} else {
				child.Kind = tree.KindSplit
				child.Feature = m.Features[parent.depth+1]
				queue = append(queue, item{id: childID, depth: parent.depth + 1, sum: childSum})
			}
			if err := tr.AddNode(child); err != nil {
				return nil, err
			}

			cond, err := c.condition(m, feature, v.token)
			if err != nil {
				return nil, err
			}
			if err := tr.AddEdge(tree.Edge{From: parent.id, To: childID, Cond: cond}); err != nil {
				return nil, err
			}
		}

		// Unmatched traffic falls through with zero weight for this level.
		defaultID := parent.id + "/else"
		def := tree.Node{
			ID:     defaultID,
			Kind:   tree.KindDefaultLeaf,
			Output: sigmoid(parent.sum) * m.BaseBid,
		}
		if err := tr.AddNode(def); err != nil {
			return nil, err
		}
		if err := tr.AddEdge(tree.Edge{From: parent.id, To: defaultID, Cond: tree.Unconditional()}); err != nil {
			return nil, err
		}
	}

	if err := tr.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "converted tree is not well formed")
	}
	if err := tr.ComputeStates(); err != nil {
		return nil, err
	}
	return tr, nil
}

// index splits the vocabulary by feature and orders each feature's values by
// weight index.
func (c *Converter) index(m Model) (map[string][]entry, error) {
	if len(m.Features) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidModel, "model declares no features")
	}
	if m.BaseBid <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidModel, "model base bid must be positive")
	}

	declared := make(map[string]bool, len(m.Features))
	for _, f := range m.Features {
		if declared[f] {
			return nil, errors.New(errors.ErrCodeInvalidModel,
				"feature %q listed twice", f)
		}
		declared[f] = true
	}

	values := make(map[string][]entry, len(m.Features))
	for token, index := range m.Vocabulary {
		feature, value, ok := strings.Cut(token, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidModel,
				"vocabulary token %q is not of the form feature=value", token)
		}
		if !declared[feature] {
			return nil, errors.New(errors.ErrCodeInvalidModel,
				"vocabulary token %q names an undeclared feature", token)
		}
		if index < 0 || index >= len(m.Weights) {
			return nil, errors.New(errors.ErrCodeInvalidModel,
				"vocabulary token %q points past the weight vector (index %d, %d weights)", token, index, len(m.Weights))
		}
		values[feature] = append(values[feature], entry{token: value, index: index})
	}

	for _, f := range m.Features {
		if len(values[f]) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidModel,
				"feature %q has no vocabulary entries", f)
		}
		sort.Slice(values[f], func(i, j int) bool {
			return values[f][i].index < values[f][j].index
		})
	}
	return values, nil
}

// condition derives the branch condition for one vocabulary value. Bucketed
// tokens become range thresholds; otherwise the feature library's declared
// kind decides between assignment and membership, with numeric values
// clamped per the declaration.
func (c *Converter) condition(m Model, feature, token string) (tree.Condition, error) {
	if bucket, ok := m.Buckets[feature][token]; ok {
		switch {
		case bucket.Lower != nil && bucket.Upper != nil:
			return tree.Condition{}, errors.New(errors.ErrCodeInvalidModel,
				"bucket %s=%s has two finite bounds; thresholds are single-comparison", feature, token)
		case bucket.Upper != nil:
			return tree.RangeBelow(c.lib.Clamp(feature, *bucket.Upper)), nil
		case bucket.Lower != nil:
			return tree.RangeAbove(c.lib.Clamp(feature, *bucket.Lower)), nil
		default:
			return tree.Condition{}, errors.New(errors.ErrCodeInvalidModel,
				"bucket %s=%s has no finite bound", feature, token)
		}
	}

	kind := features.KindAssignment
	if decl, ok := c.lib.Get(feature); ok {
		kind = decl.Kind
	}
	if kind == features.KindMembership {
		parts := strings.Split(token, "|")
		members := make([]tree.Scalar, len(parts))
		for i, p := range parts {
			members[i] = c.scalar(feature, p)
		}
		return tree.Membership(members...), nil
	}
	return tree.Assignment(c.scalar(feature, token)), nil
}

func (c *Converter) scalar(feature, token string) tree.Scalar {
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		return tree.Number(c.lib.Clamp(feature, v))
	}
	return tree.Text(token)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
