package observability

import (
	"context"
	"testing"
	"time"
)

type countingPipelineHooks struct {
	NoopPipelineHooks
	compiles int
}

func (h *countingPipelineHooks) OnCompileStart(ctx context.Context, graphHash string, nodeCount int) {
	h.compiles++
}

type countingCacheHooks struct {
	hits, misses, sets int
}

func (h *countingCacheHooks) OnCacheHit(ctx context.Context, keyType string)       { h.hits++ }
func (h *countingCacheHooks) OnCacheMiss(ctx context.Context, keyType string)      { h.misses++ }
func (h *countingCacheHooks) OnCacheSet(ctx context.Context, keyType string, n int) { h.sets++ }

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	// Must not panic.
	Pipeline().OnLoadStart(ctx, "tree.json")
	Pipeline().OnCompileComplete(ctx, "abc", 42, time.Millisecond, nil)
	Cache().OnCacheHit(ctx, "program")
}

func TestSetPipelineHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &countingPipelineHooks{}
	SetPipelineHooks(h)

	Pipeline().OnCompileStart(context.Background(), "abc", 3)
	Pipeline().OnCompileStart(context.Background(), "def", 5)
	if h.compiles != 2 {
		t.Errorf("compiles = %d, want 2", h.compiles)
	}
}

func TestSetCacheHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &countingCacheHooks{}
	SetCacheHooks(h)

	ctx := context.Background()
	Cache().OnCacheMiss(ctx, "program")
	Cache().OnCacheSet(ctx, "program", 64)
	Cache().OnCacheHit(ctx, "program")
	if h.hits != 1 || h.misses != 1 || h.sets != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", h.hits, h.misses, h.sets)
	}
}

func TestSetNilKeepsCurrentHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &countingCacheHooks{}
	SetCacheHooks(h)
	SetCacheHooks(nil)

	Cache().OnCacheHit(context.Background(), "program")
	if h.hits != 1 {
		t.Error("nil registration replaced the active hooks")
	}
}
