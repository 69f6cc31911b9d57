package api

import (
	"context"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/observability"
)

// cacheHooks feeds cache events from the pipeline into the service metrics.
type cacheHooks struct {
	metrics *Metrics
}

func (h *cacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.metrics.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *cacheHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.metrics.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *cacheHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.metrics.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

var _ observability.CacheHooks = (*cacheHooks)(nil)
