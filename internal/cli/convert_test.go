package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/humsha/educe/pkg/rst/deptree"
	"github.com/humsha/educe/pkg/treeio"
)

func writeDepDoc(t *testing.T, path string) {
	t.Helper()
	doc := &treeio.DepDoc{
		Units: []deptree.Unit{
			{Num: 1, Span: deptree.Span{Start: 0, End: 10}},
			{Num: 2, Span: deptree.Span{Start: 10, End: 20}},
			{Num: 3, Span: deptree.Span{Start: 20, End: 30}},
		},
		Edges: []treeio.DepEdge{
			{Head: 2, Dep: 1, Label: "attribution"},
			{Head: 0, Dep: 2, Label: "root"},
			{Head: 2, Dep: 3, Label: "elaboration"},
		},
	}
	if err := treeio.WriteFile(path, doc); err != nil {
		t.Fatalf("write document: %v", err)
	}
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "wsj_0001.json")
	writeDepDoc(t, input)

	if err := runCommand(t, "convert", input, "--no-cache"); err != nil {
		t.Fatalf("convert: %v", err)
	}

	out := filepath.Join(dir, "wsj_0001.tree.json")
	doc, err := treeio.ReadConFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if doc.Root == nil {
		t.Fatal("converted tree should have a root")
	}
	tree, err := doc.Tree()
	if err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("converted tree should validate: %v", err)
	}
}

func TestConvertCommandExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.json")
	writeDepDoc(t, input)
	out := filepath.Join(dir, "custom.json")

	if err := runCommand(t, "convert", input, "-o", out, "--no-cache"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output should exist at %s: %v", out, err)
	}
}

func TestConvertCommandDOT(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.json")
	writeDepDoc(t, input)

	if err := runCommand(t, "convert", input, "-f", "json,dot", "--no-cache"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	for _, want := range []string{"doc.tree.json", "doc.tree.dot"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("output %s should exist: %v", want, err)
		}
	}
}

func TestConvertCommandUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.json")
	writeDepDoc(t, input)

	if err := runCommand(t, "convert", input, "--nuclearity", "bogus"); err == nil {
		t.Error("unknown strategy should fail")
	}
}

func TestConvertCommandDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDepDoc(t, filepath.Join(dir, "a.json"))
	writeDepDoc(t, filepath.Join(dir, "b.json"))

	// One malformed document must not abort the batch.
	bad := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(bad, []byte(`{"units":[]}`), 0644); err != nil {
		t.Fatalf("write malformed document: %v", err)
	}

	if err := runCommand(t, "convert", dir, "--no-cache", "--plain"); err != nil {
		t.Fatalf("convert dir: %v", err)
	}
	for _, want := range []string{"a.tree.json", "b.tree.json"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("output %s should exist: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.tree.json")); err == nil {
		t.Error("malformed document should not produce output")
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.json")
	writeDepDoc(t, input)

	if err := runCommand(t, "convert", input, "--no-cache"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	tree := filepath.Join(dir, "doc.tree.json")
	if err := runCommand(t, "render", tree, "-f", "dot", "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "doc.tree.dot"))
	if err != nil {
		t.Fatalf("read dot output: %v", err)
	}
	if !strings.Contains(string(data), "digraph") {
		t.Error("dot output should contain a digraph")
	}
}

func TestArtifactBase(t *testing.T) {
	tests := []struct {
		defaultBase string
		output      string
		want        string
	}{
		{"doc.tree", "", "doc.tree"},
		{"doc.tree", "out.svg", "out"},
		{"doc.tree", "out", "out"},
		{"doc.tree", "out.custom", "out.custom"},
	}
	for _, tt := range tests {
		if got := artifactBase(tt.defaultBase, tt.output); got != tt.want {
			t.Errorf("artifactBase(%q, %q) = %q, want %q", tt.defaultBase, tt.output, got, tt.want)
		}
	}
}

func TestTreeBase(t *testing.T) {
	if got := treeBase("dir/doc.json"); got != "dir/doc.tree" {
		t.Errorf("treeBase = %q, want dir/doc.tree", got)
	}
}

func TestParseFormats(t *testing.T) {
	got := parseFormats("", "json")
	if len(got) != 1 || got[0] != "json" {
		t.Errorf("parseFormats empty = %v, want [json]", got)
	}
	got = parseFormats("svg,png", "json")
	if len(got) != 2 || got[0] != "svg" || got[1] != "png" {
		t.Errorf("parseFormats = %v, want [svg png]", got)
	}
}

func TestSentenceCount(t *testing.T) {
	doc := &treeio.DepDoc{Sentences: []int{0, 0, 1, 1, -1, -2}}
	if got := sentenceCount(doc); got != 2 {
		t.Errorf("sentenceCount = %d, want 2", got)
	}
}
