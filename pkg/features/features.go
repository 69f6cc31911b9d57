// Package features holds per-feature declarations for bidding trees: the
// condition kind a feature splits with, optional floor/ceiling clamps, and
// whether values are integral. Declarations can be defined in code or loaded
// from a TOML file.
package features

import (
	"io"
	"math"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/errors"
)

// Kind names the condition kind a feature is split with.
type Kind string

const (
	KindAssignment Kind = "assignment"
	KindRange      Kind = "range"
	KindMembership Kind = "membership"
)

func (k Kind) valid() bool {
	switch k {
	case KindAssignment, KindRange, KindMembership:
		return true
	}
	return false
}

// Feature declares one bidding feature.
type Feature struct {
	Name    string
	Kind    Kind
	Floor   *float64
	Ceiling *float64
	Integer bool
}

// Clamp applies the feature's ceiling, then its floor, then the integer cast
// (truncation toward zero) to a raw value.
func (f Feature) Clamp(v float64) float64 {
	if f.Ceiling != nil {
		v = math.Min(*f.Ceiling, v)
	}
	if f.Floor != nil {
		v = math.Max(*f.Floor, v)
	}
	if f.Integer {
		v = math.Trunc(v)
	}
	return v
}

// Library is an immutable, name-keyed set of feature declarations.
type Library struct {
	order  []string
	byName map[string]Feature
}

// New builds a library from the given declarations. Names must be non-empty
// and unique; kinds must be one of the declared constants.
func New(decls ...Feature) (*Library, error) {
	lib := &Library{byName: make(map[string]Feature, len(decls))}
	for _, f := range decls {
		if f.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidFeature, "feature declaration has no name")
		}
		if !f.Kind.valid() {
			return nil, errors.New(errors.ErrCodeInvalidFeature,
				"feature %q has unknown kind %q", f.Name, f.Kind)
		}
		if _, dup := lib.byName[f.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFeature,
				"feature %q declared twice", f.Name)
		}
		lib.byName[f.Name] = f
		lib.order = append(lib.order, f.Name)
	}
	return lib, nil
}

// Get returns the declaration for name.
func (l *Library) Get(name string) (Feature, bool) {
	f, ok := l.byName[name]
	return f, ok
}

// Names returns the feature names in declaration order.
func (l *Library) Names() []string {
	return append([]string(nil), l.order...)
}

// Len returns the number of declared features.
func (l *Library) Len() int { return len(l.order) }

// Clamp validates a raw value against the named feature's declaration.
// Values of undeclared features pass through unchanged.
func (l *Library) Clamp(name string, v float64) float64 {
	f, ok := l.byName[name]
	if !ok {
		return v
	}
	return f.Clamp(v)
}

// ClampAll clamps a slice of raw values in place and returns it.
func (l *Library) ClampAll(name string, values []float64) []float64 {
	for i, v := range values {
		values[i] = l.Clamp(name, v)
	}
	return values
}

// tomlFeature is the on-disk shape of one [feature.<name>] table.
type tomlFeature struct {
	Kind    string   `toml:"kind"`
	Floor   *float64 `toml:"floor"`
	Ceiling *float64 `toml:"ceiling"`
	Integer bool     `toml:"integer"`
}

type tomlFile struct {
	Feature map[string]tomlFeature `toml:"feature"`
}

// Decode reads a TOML feature library:
//
//	[feature.age]
//	kind = "range"
//	floor = 0
//	integer = true
//
// Features are ordered by name so repeated loads of the same file yield the
// same library.
func Decode(r io.Reader) (*Library, error) {
	var file tomlFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decoding feature TOML")
	}

	names := make([]string, 0, len(file.Feature))
	for name := range file.Feature {
		names = append(names, name)
	}
	sort.Strings(names)

	decls := make([]Feature, 0, len(names))
	for _, name := range names {
		tf := file.Feature[name]
		decls = append(decls, Feature{
			Name:    name,
			Kind:    Kind(tf.Kind),
			Floor:   tf.Floor,
			Ceiling: tf.Ceiling,
			Integer: tf.Integer,
		})
	}
	return New(decls...)
}

// Load reads a TOML feature library from a file.
func Load(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "feature file not found")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "opening feature file")
	}
	defer f.Close()
	return Decode(f)
}

func ptr(v float64) *float64 { return &v }

// Default returns the stock declarations for the common bidding features:
// age and user_hour are non-negative integers, user_hour is capped at 23,
// segment is an integer ID, geo is a free categorical string.
func Default() *Library {
	lib, _ := New(
		Feature{Name: "age", Kind: KindRange, Floor: ptr(0), Integer: true},
		Feature{Name: "user_hour", Kind: KindRange, Floor: ptr(0), Ceiling: ptr(23), Integer: true},
		Feature{Name: "segment", Kind: KindAssignment, Integer: true},
		Feature{Name: "geo", Kind: KindMembership},
	)
	return lib
}
