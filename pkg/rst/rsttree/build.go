package rsttree

import (
	"fmt"

	"github.com/humsha/educe/pkg/rst/deptree"
)

// treeParts is the partially built constituency tree threaded through the
// fold: an anchor unit, the EDU and character spans covered so far, the
// relation of the subtree's top connective, and zero or two finished kids.
// Parts exist only during one Build call.
type treeParts struct {
	edu     deptree.Unit
	eduSpan [2]int
	span    deptree.Span
	rel     string
	kids    []*Tree
}

// mkLeaf wraps a single unit as a trivial partial tree.
func mkLeaf(edu deptree.Unit) treeParts {
	return treeParts{
		edu:     edu,
		eduSpan: [2]int{edu.Num, edu.Num},
		span:    edu.Span,
		rel:     LeafRel,
	}
}

// partsToTree combines a nuclearity assignment with a partial tree to form
// a full constituency tree.
func partsToTree(nuc deptree.Nuclearity, parts treeParts) *Tree {
	node := Node{Nuc: nuc, EDUSpan: parts.eduSpan, Span: parts.span, Rel: parts.rel}
	if parts.kids == nil {
		return &Tree{Node: node, Leaf: parts.edu}
	}
	return &Tree{Node: node, Kids: parts.kids}
}

// connect joins two partial trees under the relation being folded in.
// The textually earlier subtree becomes the left child. The src side (the
// head-ward subtree) is always wrapped as Nucleus; the tgt side takes the
// nuclearity of the attachment edge. Overlapping spans are a fatal
// structural error: no recovery is attempted.
func connect(src, tgt treeParts, rel string, nuc deptree.Nuclearity) (treeParts, error) {
	if src.span.Overlaps(tgt.span) {
		return treeParts{}, fmt.Errorf("%w: span %s overlaps with %s",
			ErrSpanOverlap, src.span, tgt.span)
	}

	var left, right *Tree
	if src.span.Before(tgt.span) {
		left = partsToTree(deptree.Nucleus, src)
		right = partsToTree(nuc, tgt)
	} else {
		left = partsToTree(nuc, tgt)
		right = partsToTree(deptree.Nucleus, src)
	}

	return treeParts{
		edu: src.edu,
		eduSpan: [2]int{
			min(left.Node.EDUSpan[0], right.Node.EDUSpan[0]),
			max(left.Node.EDUSpan[1], right.Node.EDUSpan[1]),
		},
		span: src.span.Merge(tgt.span),
		rel:  rel,
		kids: []*Tree{left, right},
	}, nil
}

// Build converts a ranked, nuclearity-annotated dependency tree into a
// binary constituency tree.
//
// The conversion is a single recursive descent with a fold at each node.
// A dependency attachment is flat (one head, many dependents) while the
// output is strictly binary, so each link is rotated: the structure
// a -R-> b becomes R(a, b), and subsequent dependents of a are attached to
// the already-combined partial tree rather than to the bare leaf - the
// innermost sibling by rank ends up nested deepest.
//
// Build fails with a structural error if the tree has zero or more than
// one real root, or if two connected subtrees cover overlapping character
// spans. Either failure aborts the conversion of this tree with no partial
// output.
//
// Recursion depth equals the depth of the dependency tree. Corpus
// attachment chains are shallow in practice; inputs with pathologically
// deep chains would need the walk converted to an explicit-stack form.
func Build(dtree *deptree.DepTree) (*Tree, error) {
	root, err := dtree.RealRoot()
	if err != nil {
		return nil, err
	}

	var walk func(ancestor *treeParts, subtree int) (treeParts, error)
	walk = func(ancestor *treeParts, subtree int) (treeParts, error) {
		rel := dtree.Labels[subtree]
		nuc := dtree.Nucs[subtree]

		// Descend into each dependent by rank, folding rather than mapping:
		// src grows into an increasingly nested tree from sibling to sibling.
		src := mkLeaf(dtree.EDUs[subtree])
		for _, tgt := range dtree.Deps(subtree) {
			next, err := walk(&src, tgt)
			if err != nil {
				return treeParts{}, err
			}
			src = next
		}

		// The root node has no ancestor to connect to.
		if ancestor == nil {
			return src, nil
		}
		parts, err := connect(*ancestor, src, rel, nuc)
		if err != nil {
			return treeParts{}, fmt.Errorf("folding node %d: %w", subtree, err)
		}
		return parts, nil
	}

	parts, err := walk(nil, root)
	if err != nil {
		return nil, err
	}
	return partsToTree(deptree.Root, parts), nil
}
