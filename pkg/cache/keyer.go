package cache

// Keyer derives cache keys for the three cacheable artifacts of the
// conversion pipeline. Keys embed every input that affects the output, so
// a change in strategy or format can never serve a stale entry.
type Keyer interface {
	// StatsKey keys a parsed statistics table by the content hash of its
	// TOML source.
	StatsKey(contentHash string) string

	// ConvertKey keys a converted constituency tree by the content hash of
	// the dependency document and the conversion options.
	ConvertKey(docHash string, opts ConvertKeyOpts) string

	// RenderKey keys a rendered artifact by the content hash of the
	// constituency document and the render options.
	RenderKey(treeHash string, opts RenderKeyOpts) string
}

// ConvertKeyOpts captures the conversion inputs that affect the output
// tree.
type ConvertKeyOpts struct {
	Nuclearity string // classifier strategy name
	Ranking    string // ranker strategy name
	StatsHash  string // content hash of the stats table, empty if unused
}

// RenderKeyOpts captures the render inputs that affect the artifact.
type RenderKeyOpts struct {
	Format string // "dot", "svg" or "png"
}

// DefaultKeyer generates hashed, prefix-tagged cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// StatsKey generates a key for statistics table caching.
func (k *DefaultKeyer) StatsKey(contentHash string) string {
	return hashKey("stats", contentHash)
}

// ConvertKey generates a key for converted tree caching.
func (k *DefaultKeyer) ConvertKey(docHash string, opts ConvertKeyOpts) string {
	return hashKey("convert", docHash, opts.Nuclearity, opts.Ranking, opts.StatsHash)
}

// RenderKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return hashKey("render", treeHash, opts.Format)
}
