// Package nuclearity assigns nucleus/satellite labels to dependency tree
// attachments using simple rule-based strategies.
//
// A relation is either mononuclear (one nucleus, one satellite) or
// multinuclear (nucleus on both sides). The classifier keeps a set of
// relation labels it treats as multinuclear; every attachment whose label
// is in the set is predicted Nucleus, everything else Satellite.
//
// Two strategies control how that set is built:
//   - StrategyUnambiguous: a fixed set of labels that are unambiguously
//     multinuclear in the RST-DT training corpus.
//   - StrategyMostFrequent: labels whose majority nuclearity pattern in an
//     external frequency table is "NN" (nucleus on both sides).
package nuclearity

import (
	"errors"
	"fmt"

	"github.com/humsha/educe/pkg/rst/deptree"
)

var (
	// ErrUnknownStrategy is returned by [New] for unrecognized strategy names.
	ErrUnknownStrategy = errors.New("unknown nuclearity strategy")

	// ErrNoProvider is returned by [Classifier.Fit] when StrategyMostFrequent
	// is selected but no statistics provider was supplied.
	ErrNoProvider = errors.New("strategy requires a statistics provider")

	// ErrNotFitted is returned by [Classifier.Predict] before Fit was called.
	ErrNotFitted = errors.New("classifier has not been fitted")
)

// Strategy names a rule for deriving the multinuclear label set.
type Strategy string

const (
	// StrategyUnambiguous predicts multinuclear for relation labels that are
	// unambiguously multinuclear in the training set, mononuclear otherwise.
	StrategyUnambiguous Strategy = "unamb_else_most_frequent"

	// StrategyMostFrequent predicts the most frequent nuclearity pattern for
	// each relation label, taken from an external frequency table.
	StrategyMostFrequent Strategy = "most_frequent_by_rel"
)

// ParseStrategy validates a strategy name. Unknown names are rejected
// eagerly so that misconfiguration never surfaces at prediction time.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyUnambiguous, StrategyMostFrequent:
		return Strategy(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// PatternNN is the majority nuclearity pattern marking a relation label as
// multinuclear: nucleus on both sides of the attachment.
const PatternNN = "NN"

// Provider supplies majority nuclearity patterns per relation label, as
// observed in a training corpus. Implementations are expected to be
// read-only lookup tables; the classifier treats them as opaque.
type Provider interface {
	// Labels returns all relation labels the table covers.
	Labels() []string
	// MajorityPattern returns the most frequent nuclearity pattern for the
	// label ("NS", "SN" or "NN") and whether the label is known.
	MajorityPattern(label string) (string, bool)
}

// unambiguousMultinuc is the fixed multinuclear label set used by
// StrategyUnambiguous.
var unambiguousMultinuc = []string{"joint", "same-unit", "textual"}

// Classifier predicts the nuclearity of each attachment in a dependency
// tree. It is immutable after Fit and safe for concurrent Predict calls.
type Classifier struct {
	strategy Strategy
	provider Provider
	multinuc map[string]bool
}

// New creates a classifier for the given strategy. The provider may be nil
// for StrategyUnambiguous; StrategyMostFrequent requires one by Fit time.
// Unknown strategy names are rejected here, never deferred.
func New(strategy Strategy, provider Provider) (*Classifier, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	return &Classifier{strategy: strategy, provider: provider}, nil
}

// Strategy returns the configured strategy name.
func (c *Classifier) Strategy() Strategy { return c.strategy }

// Fit configures the multinuclear label set. The training trees and labels
// are accepted for interface symmetry with the ranker but are not consulted:
// both strategies derive their label sets from fixed knowledge or from the
// external provider rather than from the given sample.
func (c *Classifier) Fit(trees []*deptree.DepTree, labels [][]deptree.Nuclearity) error {
	multinuc := make(map[string]bool)

	switch c.strategy {
	case StrategyUnambiguous:
		for _, lbl := range unambiguousMultinuc {
			multinuc[lbl] = true
		}

	case StrategyMostFrequent:
		if c.provider == nil {
			return fmt.Errorf("%w: %s", ErrNoProvider, c.strategy)
		}
		for _, lbl := range c.provider.Labels() {
			if pattern, ok := c.provider.MajorityPattern(lbl); ok && pattern == PatternNN {
				multinuc[lbl] = true
			}
		}
	}

	c.multinuc = multinuc
	return nil
}

// Predict returns, for each tree, a nuclearity label per node. Entry 0
// covers the fake root and is always empty. Input trees are not mutated.
func (c *Classifier) Predict(trees []*deptree.DepTree) ([][]deptree.Nuclearity, error) {
	if c.multinuc == nil {
		return nil, ErrNotFitted
	}

	out := make([][]deptree.Nuclearity, len(trees))
	for ti, tr := range trees {
		nucs := make([]deptree.Nuclearity, tr.Len())
		for i := 1; i < tr.Len(); i++ {
			if c.multinuc[tr.Labels[i]] {
				nucs[i] = deptree.Nucleus
			} else {
				nucs[i] = deptree.Satellite
			}
		}
		out[ti] = nucs
	}
	return out, nil
}
