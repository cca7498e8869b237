// Package treeio defines the wire representations of dependency and
// constituency discourse trees.
//
// DepDoc and ConDoc are flat, schema-stable documents with JSON and BSON
// tags: DepDoc carries units and labeled head edges, ConDoc the recursive
// binary constituency structure. Both convert losslessly to and from the
// in-memory tree types.
package treeio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/humsha/educe/pkg/rst/deptree"
	"github.com/humsha/educe/pkg/rst/rsttree"
)

var (
	// ErrNoUnits is returned when a dependency document declares no units.
	ErrNoUnits = errors.New("document has no units")

	// ErrBadNode is returned when a constituency document node is neither a
	// leaf nor a branching node.
	ErrBadNode = errors.New("node must have either a leaf or children")
)

// DepEdge is one attachment edge of a dependency document.
type DepEdge struct {
	Head  int    `json:"head" bson:"head"`
	Dep   int    `json:"dep" bson:"dep"`
	Label string `json:"label" bson:"label"`
}

// DepDoc is the wire form of a dependency tree.
type DepDoc struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty"`
	Origin    string         `json:"origin,omitempty" bson:"origin,omitempty"`
	Units     []deptree.Unit `json:"units" bson:"units"`
	Edges     []DepEdge      `json:"edges" bson:"edges"`
	Sentences []int          `json:"sentences,omitempty" bson:"sentences,omitempty"`
}

// FromDepTree converts an in-memory dependency tree to its wire form.
// Edges are emitted in dependent-index order.
func FromDepTree(t *deptree.DepTree) *DepDoc {
	doc := &DepDoc{Origin: t.Origin}
	for i := 1; i < t.Len(); i++ {
		doc.Units = append(doc.Units, t.EDUs[i])
		doc.Edges = append(doc.Edges, DepEdge{Head: t.Heads[i], Dep: i, Label: t.Labels[i]})
	}
	if t.SentIdx != nil {
		doc.Sentences = append([]int(nil), t.SentIdx[1:]...)
	}
	return doc
}

// Tree converts the document back to a dependency tree.
func (d *DepDoc) Tree() (*deptree.DepTree, error) {
	if len(d.Units) == 0 {
		return nil, ErrNoUnits
	}
	t := deptree.FromUnits(d.Units)
	t.Origin = d.Origin
	for _, e := range d.Edges {
		if err := t.AddDependency(e.Head, e.Dep, e.Label); err != nil {
			return nil, err
		}
	}
	if len(d.Sentences) > 0 {
		if len(d.Sentences) != len(d.Units) {
			return nil, fmt.Errorf("document has %d sentence ids for %d units",
				len(d.Sentences), len(d.Units))
		}
		sentIdx := make([]int, t.Len())
		copy(sentIdx[1:], d.Sentences)
		t.SetSentences(sentIdx)
	}
	return t, nil
}

// ConNode is one node of a constituency document: either a leaf unit or a
// branching node with children.
type ConNode struct {
	Nuc     string        `json:"nuc" bson:"nuc"`
	Rel     string        `json:"rel" bson:"rel"`
	EDUSpan [2]int        `json:"eduSpan" bson:"eduSpan"`
	Span    deptree.Span  `json:"span" bson:"span"`
	Kids    []*ConNode    `json:"kids,omitempty" bson:"kids,omitempty"`
	Leaf    *deptree.Unit `json:"leaf,omitempty" bson:"leaf,omitempty"`
}

// ConDoc is the wire form of a constituency tree.
type ConDoc struct {
	ID     string   `json:"id,omitempty" bson:"_id,omitempty"`
	Origin string   `json:"origin,omitempty" bson:"origin,omitempty"`
	Root   *ConNode `json:"root" bson:"root"`
}

// FromConTree converts an in-memory constituency tree to its wire form.
func FromConTree(t *rsttree.Tree) *ConDoc {
	return &ConDoc{Root: conNode(t)}
}

func conNode(t *rsttree.Tree) *ConNode {
	n := &ConNode{
		Nuc:     string(t.Node.Nuc),
		Rel:     t.Node.Rel,
		EDUSpan: t.Node.EDUSpan,
		Span:    t.Node.Span,
	}
	if t.IsLeaf() {
		leaf := t.Leaf
		n.Leaf = &leaf
		return n
	}
	for _, kid := range t.Kids {
		n.Kids = append(n.Kids, conNode(kid))
	}
	return n
}

// Tree converts the document back to a constituency tree.
func (d *ConDoc) Tree() (*rsttree.Tree, error) {
	if d.Root == nil {
		return nil, fmt.Errorf("%w: document has no root", ErrBadNode)
	}
	return conTree(d.Root)
}

func conTree(n *ConNode) (*rsttree.Tree, error) {
	t := &rsttree.Tree{Node: rsttree.Node{
		Nuc:     deptree.Nuclearity(n.Nuc),
		Rel:     n.Rel,
		EDUSpan: n.EDUSpan,
		Span:    n.Span,
	}}
	switch {
	case n.Leaf != nil && len(n.Kids) == 0:
		t.Leaf = *n.Leaf
	case n.Leaf == nil && len(n.Kids) > 0:
		for _, kid := range n.Kids {
			sub, err := conTree(kid)
			if err != nil {
				return nil, err
			}
			t.Kids = append(t.Kids, sub)
		}
	default:
		return nil, fmt.Errorf("%w: span %s", ErrBadNode, n.Span)
	}
	return t, nil
}

// =============================================================================
// File helpers
// =============================================================================

// Write JSON-encodes doc to w with stable two-space indentation.
func Write(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteFile JSON-encodes doc to path.
func WriteFile(path string, doc any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadDep decodes a dependency document from r.
func ReadDep(r io.Reader) (*DepDoc, error) {
	var doc DepDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode dependency document: %w", err)
	}
	return &doc, nil
}

// ReadDepFile decodes a dependency document from a JSON file.
func ReadDepFile(path string) (*DepDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDep(f)
}

// ReadCon decodes a constituency document from r.
func ReadCon(r io.Reader) (*ConDoc, error) {
	var doc ConDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode constituency document: %w", err)
	}
	return &doc, nil
}

// ReadConFile decodes a constituency document from a JSON file.
func ReadConFile(path string) (*ConDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCon(f)
}
