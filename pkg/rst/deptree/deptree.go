package deptree

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNoRoot is returned by [DepTree.RealRoot] and [DepTree.Validate] when
	// no node attaches to the fake root. Every well-formed tree has exactly
	// one real root.
	ErrNoRoot = errors.New("dependency tree has no real root")

	// ErrMultipleRoots is returned by [DepTree.RealRoot] and [DepTree.Validate]
	// when more than one node attaches to the fake root.
	ErrMultipleRoots = errors.New("dependency tree has multiple real roots")

	// ErrHeadOutOfRange is returned by [DepTree.AddDependency] and
	// [DepTree.Validate] when a head index does not name a node of the tree.
	ErrHeadOutOfRange = errors.New("head index out of range")

	// ErrCycle is returned by [DepTree.Validate] when following head links
	// from some node never reaches the fake root.
	ErrCycle = errors.New("dependency tree contains a cycle")
)

// Nuclearity marks the relative discourse importance of one side of a
// relation. A multinuclear relation carries Nucleus on both sides.
type Nuclearity string

const (
	// Nucleus marks the more salient side of an attachment.
	Nucleus Nuclearity = "NUC_N"
	// Satellite marks the supporting side of an attachment.
	Satellite Nuclearity = "NUC_S"
	// Root marks the top node of a constituency tree.
	Root Nuclearity = "NUC_R"
)

// Span is a half-open character interval [Start, End) into the source text.
type Span struct {
	Start int `json:"start" bson:"start"`
	End   int `json:"end" bson:"end"`
}

// Overlaps reports whether the two spans share at least one character.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Merge returns the smallest span covering both s and o.
func (s Span) Merge(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Before reports whether s starts before o. For non-overlapping spans this
// is the textual order of the two.
func (s Span) Before(o Span) bool { return s.Start < o.Start }

// String formats the span as "[start,end)".
func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Unit is an elementary discourse unit (EDU): the smallest text span treated
// as a node in both dependency and constituency representations. Num is the
// unit's position in left-to-right textual order, starting at 1 for the
// first real unit. Num 0 is reserved for the fake root.
type Unit struct {
	Num  int  `json:"num" bson:"num"`
	Span Span `json:"span" bson:"span"`
}

// FakeRootUnit is the synthetic unit at index 0 of every dependency tree.
// It has no span.
var FakeRootUnit = Unit{Num: 0}

// DepTree is a dependency-style discourse parse over n real units plus a
// synthetic fake root at index 0. All per-node fields are parallel arrays
// indexed by unit number.
//
// For node i > 0, Heads[i] is the index of the governing node (0 means the
// node attaches to the fake root, i.e. is the real root of the discourse),
// Labels[i] names the relation on the edge from Heads[i] to i, and Nucs[i]
// is the nuclearity of that edge once a classifier has assigned it.
//
// Ranks[i] orders node i among the dependents of its head: ranks within one
// sibling group form a permutation of 0..k-1. Ranks are not globally unique.
//
// SentIdx maps each node to a sentence-group id. It is nil unless the
// corpus reader supplied sentence boundaries; ranking strategies that
// reason about intra- vs inter-sentential distance require it.
//
// Idx maps each node to its raw position in the reader's unit array. It
// defaults to the identity and exists so that text distance can be computed
// even when unit numbering and storage order diverge.
//
// The zero value is not usable - use [New] or [FromUnits].
type DepTree struct {
	EDUs    []Unit
	Heads   []int
	Labels  []string
	Nucs    []Nuclearity
	Ranks   []int
	SentIdx []int
	Idx     []int

	// Origin optionally names the source document, for error reporting.
	Origin string
}

// New creates a dependency tree over n real units with default spans.
// Every unit i is given the one-character span [i-1, i) so that textual
// order matches unit order; readers with real character offsets should use
// [FromUnits] instead.
func New(n int) *DepTree {
	units := make([]Unit, 0, n+1)
	units = append(units, FakeRootUnit)
	for i := 1; i <= n; i++ {
		units = append(units, Unit{Num: i, Span: Span{Start: i - 1, End: i}})
	}
	return FromUnits(units[1:])
}

// FromUnits creates a dependency tree over the given real units. Units are
// sorted by span start; their Num fields are rewritten to reflect textual
// order. All nodes start headless (head 0) with empty labels.
func FromUnits(units []Unit) *DepTree {
	sorted := slices.Clone(units)
	slices.SortStableFunc(sorted, func(a, b Unit) int { return a.Span.Start - b.Span.Start })

	n := len(sorted) + 1
	t := &DepTree{
		EDUs:   make([]Unit, n),
		Heads:  make([]int, n),
		Labels: make([]string, n),
		Nucs:   make([]Nuclearity, n),
		Ranks:  make([]int, n),
		Idx:    make([]int, n),
	}
	t.EDUs[0] = FakeRootUnit
	for i, u := range sorted {
		u.Num = i + 1
		t.EDUs[i+1] = u
		t.Idx[i+1] = i + 1
	}
	return t
}

// Len returns the number of nodes including the fake root.
func (t *DepTree) Len() int { return len(t.EDUs) }

// AddDependency attaches node dep to node head under the given relation
// label. Returns ErrHeadOutOfRange if either index does not name a node.
// Passing head 0 makes dep the real root.
func (t *DepTree) AddDependency(head, dep int, label string) error {
	if head < 0 || head >= t.Len() || dep < 1 || dep >= t.Len() {
		return fmt.Errorf("%w: head %d, dependent %d (tree has %d nodes)",
			ErrHeadOutOfRange, head, dep, t.Len())
	}
	t.Heads[dep] = head
	t.Labels[dep] = label
	return nil
}

// SetSentences attaches sentence-group ids to the tree. The slice must be
// parallel to the node arrays (entry 0 covers the fake root and is ignored).
func (t *DepTree) SetSentences(sentIdx []int) { t.SentIdx = sentIdx }

// RealRoots returns the indices of all nodes attached to the fake root,
// in index order. A well-formed tree has exactly one.
func (t *DepTree) RealRoots() []int {
	var roots []int
	for i := 1; i < t.Len(); i++ {
		if t.Heads[i] == 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// RealRoot returns the unique real root of the tree. It returns ErrNoRoot
// or ErrMultipleRoots (naming the offending nodes) when the tree is not
// well formed.
func (t *DepTree) RealRoot() (int, error) {
	roots := t.RealRoots()
	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		return 0, ErrNoRoot
	default:
		return 0, fmt.Errorf("%w: %v", ErrMultipleRoots, roots)
	}
}

// Targets returns the dependents of head in node-index order.
// Returns nil if head has no dependents.
func (t *DepTree) Targets(head int) []int {
	var targets []int
	for i := 1; i < t.Len(); i++ {
		if t.Heads[i] == head {
			targets = append(targets, i)
		}
	}
	return targets
}

// Deps returns the dependents of head ordered by ascending rank. This is
// the order in which the tree builder folds a head's children, so it is
// only meaningful after a ranker has filled in Ranks.
func (t *DepTree) Deps(head int) []int {
	deps := t.Targets(head)
	slices.SortStableFunc(deps, func(a, b int) int { return t.Ranks[a] - t.Ranks[b] })
	return deps
}

// Validate checks structural integrity: exactly one real root, all head
// indices in range, and no cycles. Returns the first violation found.
func (t *DepTree) Validate() error {
	for i := 1; i < t.Len(); i++ {
		if t.Heads[i] < 0 || t.Heads[i] >= t.Len() {
			return fmt.Errorf("%w: node %d has head %d", ErrHeadOutOfRange, i, t.Heads[i])
		}
	}
	if _, err := t.RealRoot(); err != nil {
		return err
	}
	// A node is cycle-free when following head links reaches the fake root
	// in at most n steps.
	for i := 1; i < t.Len(); i++ {
		cur := i
		for steps := 0; cur != 0; steps++ {
			if steps >= t.Len() {
				return fmt.Errorf("%w: detected from node %d", ErrCycle, i)
			}
			cur = t.Heads[cur]
		}
	}
	return nil
}
