// Package cache provides content-addressed caching of compile artifacts.
// Keys are derived from the SHA-256 hash of the tree's wire form, so a
// cached program is valid for exactly one tree.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer derives cache keys for the artifacts the pipeline produces.
type Keyer interface {
	// ProgramKey keys the compiled program of a tree.
	ProgramKey(graphHash string) string

	// ArtifactKey keys a rendered artifact (dot, svg, png) of a tree.
	ArtifactKey(graphHash, format string) string
}

// DefaultKeyer derives keys from the graph hash alone.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ProgramKey generates the key for a compiled program.
func (k *DefaultKeyer) ProgramKey(graphHash string) string {
	return hashKey("program", graphHash)
}

// ArtifactKey generates the key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(graphHash, format string) string {
	return hashKey("artifact", graphHash, format)
}

// ScopedKeyer wraps a Keyer with a prefix so separate campaigns or tenants
// get isolated namespaces in a shared backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ProgramKey generates a prefixed program key.
func (k *ScopedKeyer) ProgramKey(graphHash string) string {
	return k.prefix + k.inner.ProgramKey(graphHash)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(graphHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, format)
}
