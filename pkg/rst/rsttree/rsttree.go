// Package rsttree holds the binary constituency form of a discourse parse
// and the builder that folds a ranked, nuclearity-annotated dependency tree
// into it.
package rsttree

import (
	"errors"
	"fmt"

	"github.com/humsha/educe/pkg/rst/deptree"
)

var (
	// ErrSpanMismatch is returned by [Tree.Validate] when an internal node's
	// character span is not the exact union of its children's spans.
	ErrSpanMismatch = errors.New("node span does not match union of child spans")

	// ErrSpanOverlap is returned by [Tree.Validate] when the two children of
	// an internal node cover overlapping character spans, and by [Build]
	// when two subtrees being connected overlap.
	ErrSpanOverlap = errors.New("sibling spans overlap")

	// ErrBadArity is returned by [Tree.Validate] when an internal node does
	// not have exactly two children.
	ErrBadArity = errors.New("internal node must have exactly two children")

	// LeafRel is the relation label carried by leaf nodes.
	LeafRel = "leaf"
)

// Node is the label of one constituency tree position: a nuclearity
// assignment, the covered EDU range (inclusive on both ends), the covered
// character span, and the relation connecting the node's children.
type Node struct {
	Nuc     deptree.Nuclearity `json:"nuc" bson:"nuc"`
	EDUSpan [2]int             `json:"edu_span" bson:"edu_span"`
	Span    deptree.Span       `json:"span" bson:"span"`
	Rel     string             `json:"rel" bson:"rel"`
}

// Tree is a binary constituency discourse tree. Every tree is either a
// leaf holding exactly one Unit, or an internal node with exactly two
// children. Trees are immutable once returned by [Build].
type Tree struct {
	Node Node
	Kids []*Tree
	Leaf deptree.Unit
}

// IsLeaf reports whether the tree is a single-unit leaf.
func (t *Tree) IsLeaf() bool { return len(t.Kids) == 0 }

// Leaves returns the tree's units in left-to-right order.
func (t *Tree) Leaves() []deptree.Unit {
	if t.IsLeaf() {
		return []deptree.Unit{t.Leaf}
	}
	var units []deptree.Unit
	for _, kid := range t.Kids {
		units = append(units, kid.Leaves()...)
	}
	return units
}

// Validate recursively checks the structural invariants of the tree:
// binary arity, leaf EDU spans of the form (i,i), internal EDU spans and
// character spans equal to the union of the children's, and no overlap
// between the two children of any node.
func (t *Tree) Validate() error {
	if t.IsLeaf() {
		if t.Node.EDUSpan[0] != t.Leaf.Num || t.Node.EDUSpan[1] != t.Leaf.Num {
			return fmt.Errorf("%w: leaf %d has EDU span %v",
				ErrSpanMismatch, t.Leaf.Num, t.Node.EDUSpan)
		}
		return nil
	}
	if len(t.Kids) != 2 {
		return fmt.Errorf("%w: node %v has %d", ErrBadArity, t.Node.EDUSpan, len(t.Kids))
	}

	l, r := t.Kids[0], t.Kids[1]
	if l.Node.Span.Overlaps(r.Node.Span) {
		return fmt.Errorf("%w: %s and %s under %v",
			ErrSpanOverlap, l.Node.Span, r.Node.Span, t.Node.EDUSpan)
	}
	if got := l.Node.Span.Merge(r.Node.Span); got != t.Node.Span {
		return fmt.Errorf("%w: node %v has %s, children cover %s",
			ErrSpanMismatch, t.Node.EDUSpan, t.Node.Span, got)
	}
	wantEDU := [2]int{
		min(l.Node.EDUSpan[0], r.Node.EDUSpan[0]),
		max(l.Node.EDUSpan[1], r.Node.EDUSpan[1]),
	}
	if t.Node.EDUSpan != wantEDU {
		return fmt.Errorf("%w: node EDU span %v, children cover %v",
			ErrSpanMismatch, t.Node.EDUSpan, wantEDU)
	}

	if err := l.Validate(); err != nil {
		return err
	}
	return r.Validate()
}
