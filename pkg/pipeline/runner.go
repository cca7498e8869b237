package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/humsha/educe/pkg/cache"
	"github.com/humsha/educe/pkg/errors"
	"github.com/humsha/educe/pkg/observability"
	"github.com/humsha/educe/pkg/render"
	"github.com/humsha/educe/pkg/rst/rsttree"
	"github.com/humsha/educe/pkg/stats"
	"github.com/humsha/educe/pkg/treeio"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the logger and a memoized
// statistics table - it doesn't store pipeline results. Multiple goroutines
// can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	statsMu sync.Mutex
	tables  map[string]statsEntry
}

// statsEntry is a parsed statistics table plus the content hash of its
// TOML source, memoized per path.
type statsEntry struct {
	table *stats.Table
	hash  string
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		tables: make(map[string]statsEntry),
	}
}

// Execute runs the complete convert → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, doc *treeio.DepDoc, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Convert
	conDoc, convStats, convertHit, err := r.ConvertWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	conDoc.ID = doc.ID
	result.Doc = conDoc
	result.Stats = convStats
	result.CacheInfo.ConvertHit = convertHit

	tree, err := conDoc.Tree()
	if err != nil {
		return nil, fmt.Errorf("decode converted tree: %w", err)
	}
	result.Tree = tree
	result.Stats.LeafCount = leafCount(tree)

	// Compute document hash for cache keys and API responses
	if docData, err := json.Marshal(doc); err == nil {
		result.DocHash = cache.Hash(docData)
	}

	r.Logger.Info("converted document",
		"id", docID(doc, 0),
		"leaves", result.Stats.LeafCount,
		"cached", convertHit)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, conDoc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ExecuteBatch converts a set of documents with shared options. Malformed
// documents do not abort the batch; each failure is recorded with the
// document's id so the caller can decide whether to retry or skip.
func (r *Runner) ExecuteBatch(ctx context.Context, docs []*treeio.DepDoc, opts Options) (*BatchResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	batch := &BatchResult{}
	for i, doc := range docs {
		result, err := r.Execute(ctx, doc, opts)
		if err != nil {
			r.Logger.Warn("skipping document", "id", docID(doc, i), "error", err)
			batch.Failures = append(batch.Failures, Failure{ID: docID(doc, i), Err: err})
			continue
		}
		batch.Results = append(batch.Results, result)
	}
	return batch, nil
}

// ConvertWithCacheInfo runs the three conversion passes with caching and
// returns the constituency document, pass timings and cache hit info.
func (r *Runner) ConvertWithCacheInfo(ctx context.Context, doc *treeio.DepDoc, opts Options) (*treeio.ConDoc, Stats, bool, error) {
	var zero Stats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, zero, false, err
	}
	r.applyLogger(&opts)

	// Load the stats table first: its hash is part of the cache key.
	table, statsHash, err := r.statsTable(opts)
	if err != nil {
		return nil, zero, false, err
	}

	docData, err := json.Marshal(doc)
	if err != nil {
		return nil, zero, false, fmt.Errorf("serialize document for cache key: %w", err)
	}
	cacheKey := r.Keyer.ConvertKey(cache.Hash(docData), opts.ConvertKeyOpts(statsHash))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached treeio.ConDoc
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "convert")
				return &cached, zero, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "convert")
	}

	// Convert
	tree, err := doc.Tree()
	if err != nil {
		return nil, zero, false, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	built, convStats, err := Convert(ctx, docID(doc, 0), tree, opts, table)
	if err != nil {
		return nil, convStats, false, err
	}
	conDoc := treeio.FromConTree(built)
	conDoc.Origin = doc.Origin

	// Cache the result
	if data, err := json.Marshal(conDoc); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLConvert)
		observability.Cache().OnCacheSet(ctx, "convert", len(data))
	}

	return conDoc, convStats, false, nil // Cache miss
}

// Convert is a convenience wrapper that calls ConvertWithCacheInfo and discards the cache hit info.
func (r *Runner) Convert(ctx context.Context, doc *treeio.DepDoc, opts Options) (*treeio.ConDoc, error) {
	conDoc, _, _, err := r.ConvertWithCacheInfo(ctx, doc, opts)
	return conDoc, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
//
// The "json" artifact is the document itself and is never cached; DOT, SVG
// and PNG are cached per format under the document's content hash.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *treeio.ConDoc, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	docData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("serialize tree for cache key: %w", err)
	}
	treeHash := cache.Hash(docData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		if format == FormatJSON {
			artifacts[format] = docData
			continue
		}
		cacheKey := r.Keyer.RenderKey(treeHash, opts.RenderKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "render")
			artifacts[format] = data
		} else {
			observability.Cache().OnCacheMiss(ctx, "render")
			allCached = false
		}
	}

	if allCached {
		return artifacts, opts.NeedsRender(), nil // All artifacts from cache
	}

	// Render the missing formats
	tree, err := doc.Tree()
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode tree")
	}
	dot := render.ToDOT(tree, render.Options{Detailed: opts.Detailed})

	for _, format := range opts.Formats {
		if _, ok := artifacts[format]; ok {
			continue
		}
		var data []byte
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = render.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = render.RenderPNG(ctx, dot)
		default:
			err = errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
		}
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data

		cacheKey := r.Keyer.RenderKey(treeHash, opts.RenderKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRender)
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}

	return artifacts, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc *treeio.ConDoc, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, err
}

// statsTable loads and memoizes the frequency table named by the options.
// It returns a nil table and empty hash when no table is configured.
func (r *Runner) statsTable(opts Options) (*stats.Table, string, error) {
	if opts.StatsPath == "" {
		return nil, "", nil
	}

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	if entry, ok := r.tables[opts.StatsPath]; ok {
		return entry.table, entry.hash, nil
	}

	data, err := os.ReadFile(opts.StatsPath)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err,
			"read statistics table %s", opts.StatsPath)
	}
	table, err := stats.Parse(data)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err,
			"parse statistics table %s", opts.StatsPath)
	}

	entry := statsEntry{table: table, hash: cache.Hash(data)}
	if r.tables == nil {
		r.tables = make(map[string]statsEntry)
	}
	r.tables[opts.StatsPath] = entry
	r.Logger.Debug("loaded statistics table",
		"path", opts.StatsPath,
		"labels", len(table.Labels()))
	return entry.table, entry.hash, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// docID names a document in logs and batch failures: its id, then its
// origin, then its position in the batch.
func docID(doc *treeio.DepDoc, i int) string {
	switch {
	case doc.ID != "":
		return doc.ID
	case doc.Origin != "":
		return doc.Origin
	}
	return fmt.Sprintf("doc[%d]", i)
}

// leafCount counts the EDU leaves of a constituency tree.
func leafCount(t *rsttree.Tree) int {
	if t.IsLeaf() {
		return 1
	}
	n := 0
	for _, kid := range t.Kids {
		n += leafCount(kid)
	}
	return n
}
