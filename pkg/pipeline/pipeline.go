// Package pipeline provides the dependency-to-constituency conversion
// pipeline.
//
// This package implements the complete classify → rank → build pipeline
// that can be used by CLI, API, and batch components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three passes over a dependency tree:
//
//  1. Classify: assign a nuclearity to every attachment edge
//  2. Rank: order each head's dependents for inside-out attachment
//  3. Build: fold the annotated tree into a binary constituency tree
//
// An optional render stage turns the result into DOT, SVG or PNG.
//
// # Usage
//
// Create a Runner and convert a document:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Nuclearity: "unamb_else_most_frequent",
//	    Ranking:    "closest-intra-rl-inter-rl",
//	    Formats:    []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/humsha/educe/pkg/cache"
	"github.com/humsha/educe/pkg/errors"
	"github.com/humsha/educe/pkg/rst/nuclearity"
	"github.com/humsha/educe/pkg/rst/ranking"
	"github.com/humsha/educe/pkg/rst/rsttree"
	"github.com/humsha/educe/pkg/treeio"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Batch
// =============================================================================

// DefaultNuclearity is the default nuclearity classifier strategy.
const DefaultNuclearity = string(nuclearity.StrategyUnambiguous)

// DefaultRanking is the default attachment ranking strategy.
const DefaultRanking = string(ranking.StrategyID)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Conversion options
	Nuclearity string `json:"nuclearity,omitempty"` // classifier strategy
	Ranking    string `json:"ranking,omitempty"`    // ranker strategy
	StatsPath  string `json:"stats_path,omitempty"` // TOML stats table for most_frequent_by_rel

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // include spans in render labels

	// Refresh bypasses the cache on reads (results are still written).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the built constituency tree.
	Tree *rsttree.Tree

	// Doc is the tree's wire form, ready for storage or transport.
	Doc *treeio.ConDoc

	// DocHash is the content hash of the input dependency document.
	DocHash string

	// Artifacts contains rendered outputs keyed by format. The "json"
	// format is always present.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LeafCount    int
	ClassifyTime time.Duration
	RankTime     time.Duration
	BuildTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ConvertHit bool // Whether the converted tree came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// Failure records one document that could not be converted during a
// batch run.
type Failure struct {
	ID  string
	Err error
}

// BatchResult contains the outcome of a batch conversion. Malformed
// documents do not abort the batch; they are reported as Failures.
type BatchResult struct {
	Results  []*Result
	Failures []Failure
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Nuclearity == "" {
		o.Nuclearity = DefaultNuclearity
	}
	if o.Ranking == "" {
		o.Ranking = DefaultRanking
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	// Strategy names resolve eagerly so a typo fails before any work.
	nucStrategy, err := nuclearity.ParseStrategy(o.Nuclearity)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err,
			"unknown nuclearity strategy %q", o.Nuclearity)
	}
	if _, err := ranking.ParseStrategy(o.Ranking); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err,
			"unknown ranking strategy %q", o.Ranking)
	}
	if nucStrategy == nuclearity.StrategyMostFrequent && o.StatsPath == "" {
		return errors.New(errors.ErrCodeMissingStats,
			"strategy %q requires a statistics table (stats_path)", o.Nuclearity)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// NeedsRender reports whether any requested format requires the render
// stage.
func (o *Options) NeedsRender() bool {
	for _, f := range o.Formats {
		if f != FormatJSON {
			return true
		}
	}
	return false
}

// ConvertKeyOpts returns cache key options for the conversion stage.
func (o *Options) ConvertKeyOpts(statsHash string) cache.ConvertKeyOpts {
	return cache.ConvertKeyOpts{
		Nuclearity: o.Nuclearity,
		Ranking:    o.Ranking,
		StatsHash:  statsHash,
	}
}

// RenderKeyOpts returns cache key options for one rendered format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Format: format}
}
