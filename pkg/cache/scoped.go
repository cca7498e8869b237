package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when one cache backend serves several corpora or users
// and their entries must not collide.
//
// Example usage:
//
//	// Corpus-specific keys
//	corpusKeyer := NewScopedKeyer(NewDefaultKeyer(), "corpus:rstdt:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// StatsKey generates a prefixed key for statistics table caching.
func (k *ScopedKeyer) StatsKey(contentHash string) string {
	return k.prefix + k.inner.StatsKey(contentHash)
}

// ConvertKey generates a prefixed key for converted tree caching.
func (k *ScopedKeyer) ConvertKey(docHash string, opts ConvertKeyOpts) string {
	return k.prefix + k.inner.ConvertKey(docHash, opts)
}

// RenderKey generates a prefixed key for rendered artifact caching.
func (k *ScopedKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(treeHash, opts)
}
