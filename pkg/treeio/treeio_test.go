package treeio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/humsha/educe/pkg/rst/deptree"
	"github.com/humsha/educe/pkg/rst/nuclearity"
	"github.com/humsha/educe/pkg/rst/ranking"
	"github.com/humsha/educe/pkg/rst/rsttree"
)

func sampleTree(t *testing.T) *deptree.DepTree {
	t.Helper()
	tr := deptree.New(3)
	tr.Origin = "wsj_0001"
	_ = tr.AddDependency(0, 2, "root")
	_ = tr.AddDependency(2, 1, "attribution")
	_ = tr.AddDependency(2, 3, "elaboration")
	tr.SetSentences([]int{0, 0, 0, 1})
	return tr
}

func TestDepRoundTrip(t *testing.T) {
	tr := sampleTree(t)
	doc := FromDepTree(tr)

	if doc.Origin != "wsj_0001" {
		t.Errorf("Origin = %q", doc.Origin)
	}
	if len(doc.Units) != 3 || len(doc.Edges) != 3 {
		t.Fatalf("got %d units, %d edges", len(doc.Units), len(doc.Edges))
	}

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	read, err := ReadDep(&buf)
	if err != nil {
		t.Fatalf("ReadDep: %v", err)
	}

	back, err := read.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if back.Len() != tr.Len() || back.Origin != tr.Origin {
		t.Errorf("round trip changed shape: %+v", back)
	}
	for i := 1; i < tr.Len(); i++ {
		if back.Heads[i] != tr.Heads[i] || back.Labels[i] != tr.Labels[i] {
			t.Errorf("node %d: head %d label %q, want %d %q",
				i, back.Heads[i], back.Labels[i], tr.Heads[i], tr.Labels[i])
		}
	}
	if back.SentIdx == nil || back.SentIdx[3] != 1 {
		t.Errorf("SentIdx = %v", back.SentIdx)
	}
}

func TestDepDocNoUnits(t *testing.T) {
	doc := &DepDoc{}
	if _, err := doc.Tree(); !errors.Is(err, ErrNoUnits) {
		t.Errorf("Tree error = %v, want ErrNoUnits", err)
	}
}

func TestDepDocSentenceMismatch(t *testing.T) {
	doc := FromDepTree(sampleTree(t))
	doc.Sentences = doc.Sentences[:1]
	if _, err := doc.Tree(); err == nil {
		t.Error("Tree should reject mismatched sentence ids")
	}
}

func builtTree(t *testing.T) *rsttree.Tree {
	t.Helper()
	tr := sampleTree(t)

	c, err := nuclearity.New(nuclearity.StrategyUnambiguous, nil)
	if err != nil {
		t.Fatalf("nuclearity.New: %v", err)
	}
	if err := c.Fit(nil, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	nucs, err := c.Predict([]*deptree.DepTree{tr})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	copy(tr.Nucs, nucs[0])

	r, err := ranking.New(ranking.StrategyID)
	if err != nil {
		t.Fatalf("ranking.New: %v", err)
	}
	ranks, err := r.Predict([]*deptree.DepTree{tr})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	copy(tr.Ranks, ranks[0])

	tree, err := rsttree.Build(tr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func TestConRoundTrip(t *testing.T) {
	tree := builtTree(t)
	doc := FromConTree(tree)

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	read, err := ReadCon(&buf)
	if err != nil {
		t.Fatalf("ReadCon: %v", err)
	}

	back, err := read.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if err := back.Validate(); err != nil {
		t.Errorf("Validate after round trip: %v", err)
	}

	want := tree.Leaves()
	got := back.Leaves()
	if len(got) != len(want) {
		t.Fatalf("got %d leaves, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("leaf %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if back.Node.Nuc != deptree.Root {
		t.Errorf("root nuclearity = %q", back.Node.Nuc)
	}
}

func TestConDocBadNode(t *testing.T) {
	doc := &ConDoc{Root: &ConNode{Nuc: string(deptree.Root)}}
	if _, err := doc.Tree(); !errors.Is(err, ErrBadNode) {
		t.Errorf("Tree error = %v, want ErrBadNode", err)
	}

	empty := &ConDoc{}
	if _, err := empty.Tree(); !errors.Is(err, ErrBadNode) {
		t.Errorf("Tree error = %v, want ErrBadNode", err)
	}
}

func TestWriteReadFile(t *testing.T) {
	path := t.TempDir() + "/dep.json"
	doc := FromDepTree(sampleTree(t))
	doc.ID = "doc-1"

	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	read, err := ReadDepFile(path)
	if err != nil {
		t.Fatalf("ReadDepFile: %v", err)
	}
	if read.ID != "doc-1" || len(read.Units) != 3 {
		t.Errorf("read = %+v", read)
	}
}
