// Package pipeline runs the load → validate → compile → render flow shared
// by the CLI and the HTTP API, with content-addressed caching of compiled
// programs and rendered artifacts.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/bonsai"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/cache"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/observability"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/render"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/treeio"
)

// Formats the pipeline can render.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options configures one pipeline execution. Exactly one of Tree or
// InputPath must be set.
type Options struct {
	// Tree is a pre-built tree to compile.
	Tree *tree.Tree

	// InputPath is a JSON tree file to load instead.
	InputPath string

	// Formats lists diagram artifacts to render alongside the program:
	// "dot", "svg", "png". Empty renders none.
	Formats []string

	// CacheTTL bounds the lifetime of cached entries. Defaults to 24h.
	CacheTTL time.Duration

	// Detailed enables detailed node labels in rendered diagrams.
	Detailed bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if (o.Tree == nil) == (o.InputPath == "") {
		return fmt.Errorf("exactly one of Tree or InputPath must be set")
	}
	for _, f := range o.Formats {
		switch f {
		case FormatDOT, FormatSVG, FormatPNG:
		default:
			return fmt.Errorf("unknown format %q", f)
		}
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 24 * time.Hour
	}
	return nil
}

// Stats reports per-stage timings and tree shape.
type Stats struct {
	LoadTime    time.Duration `json:"load_time"`
	CompileTime time.Duration `json:"compile_time"`
	RenderTime  time.Duration `json:"render_time"`
	NodeCount   int           `json:"node_count"`
	EdgeCount   int           `json:"edge_count"`
	Depth       int           `json:"depth"`
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	ProgramHit   bool            `json:"program_hit"`
	ArtifactHits map[string]bool `json:"artifact_hits,omitempty"`
}

// Result is the outcome of one pipeline execution.
type Result struct {
	RunID     string            `json:"run_id"`
	GraphHash string            `json:"graph_hash"`
	Program   string            `json:"program"`
	Artifacts map[string][]byte `json:"-"`
	Stats     Stats             `json:"stats"`
	CacheInfo CacheInfo         `json:"cache_info"`

	Tree *tree.Tree `json:"-"`
}

// Runner executes pipelines with caching. It is stateless apart from the
// cache and logger; one Runner serves concurrent executions.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer and a nil logger the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → validate → compile → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
		CacheInfo: CacheInfo{ArtifactHits: make(map[string]bool)},
	}

	// Stage 1: Load
	loadStart := time.Now()
	t, err := r.load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Tree = t
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = t.NodeCount()
	result.Stats.EdgeCount = t.EdgeCount()
	result.Stats.Depth = t.Depth()

	graphData, err := json.Marshal(treeio.FromTree(t))
	if err != nil {
		return nil, fmt.Errorf("hash graph: %w", err)
	}
	result.GraphHash = cache.Hash(graphData)

	r.Logger.Info("loaded tree",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"depth", result.Stats.Depth,
		"duration", result.Stats.LoadTime)

	// Stage 2: Compile
	compileStart := time.Now()
	program, hit, err := r.compile(ctx, t, result.GraphHash, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	result.Program = program
	result.Stats.CompileTime = time.Since(compileStart)
	result.CacheInfo.ProgramHit = hit

	r.Logger.Info("compiled program",
		"bytes", len(program),
		"cached", hit,
		"duration", result.Stats.CompileTime)

	// Stage 3: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		if err := r.renderArtifacts(ctx, t, result, opts); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Stats.RenderTime = time.Since(renderStart)

		r.Logger.Info("rendered artifacts",
			"formats", opts.Formats,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// load produces the input tree and validates the structural contract.
func (r *Runner) load(ctx context.Context, opts Options) (*tree.Tree, error) {
	source := opts.InputPath
	if source == "" {
		source = "in-memory"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	t := opts.Tree
	var err error
	if t == nil {
		t, err = treeio.ImportJSON(opts.InputPath)
	}
	if err == nil {
		err = t.Validate()
	}

	nodes := 0
	if t != nil {
		nodes = t.NodeCount()
	}
	hooks.OnLoadComplete(ctx, source, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// compile produces the program, consulting the cache first.
func (r *Runner) compile(ctx context.Context, t *tree.Tree, graphHash string, ttl time.Duration) (string, bool, error) {
	key := r.Keyer.ProgramKey(graphHash)
	cacheHooks := observability.Cache()

	if data, found, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	} else if found {
		cacheHooks.OnCacheHit(ctx, "program")
		return string(data), true, nil
	}
	cacheHooks.OnCacheMiss(ctx, "program")

	hooks := observability.Pipeline()
	hooks.OnCompileStart(ctx, graphHash, t.NodeCount())
	start := time.Now()
	program, err := bonsai.Compile(t)
	hooks.OnCompileComplete(ctx, graphHash, len(program), time.Since(start), err)
	if err != nil {
		return "", false, err
	}

	if err := r.Cache.Set(ctx, key, []byte(program), ttl); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	} else {
		cacheHooks.OnCacheSet(ctx, "program", len(program))
	}
	return program, false, nil
}

// renderArtifacts produces the requested diagram formats, each cached
// independently.
func (r *Runner) renderArtifacts(ctx context.Context, t *tree.Tree, result *Result, opts Options) error {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	cacheHooks := observability.Cache()

	dot, err := render.ToDOT(t, render.Options{Detailed: opts.Detailed})
	if err != nil {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return err
	}

	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(result.GraphHash, format)
		if data, found, cerr := r.Cache.Get(ctx, key); cerr == nil && found {
			cacheHooks.OnCacheHit(ctx, "artifact")
			result.Artifacts[format] = data
			result.CacheInfo.ArtifactHits[format] = true
			continue
		}
		cacheHooks.OnCacheMiss(ctx, "artifact")

		var data []byte
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = render.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = render.RenderPNG(ctx, dot)
		}
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return fmt.Errorf("%s: %w", format, err)
		}

		result.Artifacts[format] = data
		if cerr := r.Cache.Set(ctx, key, data, opts.CacheTTL); cerr == nil {
			cacheHooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return nil
}
