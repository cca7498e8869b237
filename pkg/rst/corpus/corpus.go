// Package corpus builds dependency trees from annotated corpus documents.
//
// A Glozz document gives EDUs as typed unit annotations and attachment
// edges as relation annotations. The reader turns these into a
// [deptree.DepTree]: units sorted into textual order, relation sources
// becoming heads, and units with no incoming edge attaching to the fake
// root. Sentence annotations, when present, provide the sentence grouping
// that intra-sentential ranking strategies need.
package corpus

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/humsha/educe/pkg/glozz"
	"github.com/humsha/educe/pkg/rst/deptree"
)

var (
	// ErrNoEDUs is returned when a document contains no unit annotations of
	// the configured EDU type.
	ErrNoEDUs = errors.New("document has no EDUs")

	// ErrUnknownEndpoint is returned when a relation references an
	// annotation id that is not an EDU of the document.
	ErrUnknownEndpoint = errors.New("relation endpoint is not a known EDU")

	// ErrDuplicateHead is returned when two relations target the same
	// dependent.
	ErrDuplicateHead = errors.New("unit has more than one incoming edge")
)

// Options selects which annotation types the reader treats as EDUs and
// sentences. Zero values fall back to the conventional names.
type Options struct {
	// EDUType is the unit annotation type read as an EDU. Default "EDU".
	EDUType string

	// SentenceType is the unit annotation type read as a sentence boundary.
	// Default "Sentence". Sentence units are optional.
	SentenceType string
}

func (o Options) withDefaults() Options {
	if o.EDUType == "" {
		o.EDUType = "EDU"
	}
	if o.SentenceType == "" {
		o.SentenceType = "Sentence"
	}
	return o
}

// FromGlozz builds a dependency tree from a Glozz annotation document.
//
// Each relation annotation is read as a directed attachment edge from its
// first term (the head) to its second (the dependent), labeled with the
// relation type in lower case. EDUs with no incoming edge attach to the
// fake root; structural problems beyond that (no root, several roots,
// cycles) are left for [deptree.DepTree.Validate] so that callers decide
// how strict to be.
func FromGlozz(doc *glozz.Document, opts Options) (*deptree.DepTree, error) {
	opts = opts.withDefaults()

	var units []deptree.Unit
	var ids []string
	for _, u := range doc.Units {
		if u.Type != opts.EDUType {
			continue
		}
		units = append(units, deptree.Unit{Span: deptree.Span{
			Start: u.Span.Start,
			End:   u.Span.End,
		}})
		ids = append(ids, u.ID)
	}
	if len(units) == 0 {
		return nil, ErrNoEDUs
	}

	tree := deptree.FromUnits(units)

	// FromUnits renumbered the units by textual order; recover the
	// annotation-id mapping by matching spans back to their source units.
	num := make(map[string]int, len(ids))
	for i, id := range ids {
		src := units[i].Span
		for node := 1; node < tree.Len(); node++ {
			if tree.EDUs[node].Span == (deptree.Span{Start: src.Start, End: src.End}) {
				num[id] = node
				break
			}
		}
	}

	seen := make(map[int]string, len(doc.Relations))
	for _, rel := range doc.Relations {
		head, ok := num[rel.Span.T1]
		if !ok {
			return nil, fmt.Errorf("%w: %s (relation %s)", ErrUnknownEndpoint, rel.Span.T1, rel.ID)
		}
		dep, ok := num[rel.Span.T2]
		if !ok {
			return nil, fmt.Errorf("%w: %s (relation %s)", ErrUnknownEndpoint, rel.Span.T2, rel.ID)
		}
		if prev, dup := seen[dep]; dup {
			return nil, fmt.Errorf("%w: node %d (relations %s, %s)", ErrDuplicateHead, dep, prev, rel.ID)
		}
		seen[dep] = rel.ID
		if err := tree.AddDependency(head, dep, strings.ToLower(rel.Type)); err != nil {
			return nil, err
		}
	}

	tree.SetSentences(sentenceIndex(doc, tree, opts))
	return tree, nil
}

// sentenceIndex maps every node to a sentence-group id using the document's
// sentence annotations. An EDU belongs to the first sentence whose span
// contains its start offset. EDUs outside every sentence each get a unique
// negative id so that no strategy ever treats them as same-sentence.
// Returns nil when the document has no sentence annotations.
func sentenceIndex(doc *glozz.Document, tree *deptree.DepTree, opts Options) []int {
	var sentences []glozz.Span
	for _, u := range doc.Units {
		if u.Type == opts.SentenceType {
			sentences = append(sentences, u.Span)
		}
	}
	if len(sentences) == 0 {
		return nil
	}
	sort.Slice(sentences, func(i, j int) bool { return sentences[i].Start < sentences[j].Start })

	idx := make([]int, tree.Len())
	orphan := -1
	for node := 1; node < tree.Len(); node++ {
		start := tree.EDUs[node].Span.Start
		idx[node] = orphan
		for s, sent := range sentences {
			if sent.Start <= start && start < sent.End {
				idx[node] = s
				break
			}
		}
		if idx[node] == orphan {
			orphan--
		}
	}
	return idx
}
