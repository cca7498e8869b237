package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/humsha/educe/pkg/cache"
	"github.com/humsha/educe/pkg/errors"
	"github.com/humsha/educe/pkg/rst/deptree"
	"github.com/humsha/educe/pkg/treeio"
)

func sampleDoc() *treeio.DepDoc {
	return &treeio.DepDoc{
		ID: "wsj_0001",
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
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	if opts.Nuclearity != DefaultNuclearity {
		t.Errorf("Nuclearity = %q, want %q", opts.Nuclearity, DefaultNuclearity)
	}
	if opts.Ranking != DefaultRanking {
		t.Errorf("Ranking = %q, want %q", opts.Ranking, DefaultRanking)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent: a second call must not error or change anything.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults() error = %v", err)
	}
}

func TestValidateRejectsUnknownStrategies(t *testing.T) {
	opts := Options{Nuclearity: "bogus"}
	err := opts.ValidateAndSetDefaults()
	if errors.GetCode(err) != errors.ErrCodeInvalidStrategy {
		t.Errorf("nuclearity error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidStrategy)
	}

	opts = Options{Ranking: "bogus"}
	err = opts.ValidateAndSetDefaults()
	if errors.GetCode(err) != errors.ErrCodeInvalidStrategy {
		t.Errorf("ranking error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidStrategy)
	}
}

func TestValidateRequiresStatsPath(t *testing.T) {
	opts := Options{Nuclearity: "most_frequent_by_rel"}
	err := opts.ValidateAndSetDefaults()
	if errors.GetCode(err) != errors.ErrCodeMissingStats {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeMissingStats)
	}
}

func TestNeedsRender(t *testing.T) {
	tests := []struct {
		formats []string
		want    bool
	}{
		{[]string{"json"}, false},
		{[]string{"json", "dot"}, true},
		{[]string{"svg"}, true},
	}
	for _, tt := range tests {
		opts := Options{Formats: tt.formats}
		if got := opts.NeedsRender(); got != tt.want {
			t.Errorf("NeedsRender(%v) = %v, want %v", tt.formats, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), sampleDoc(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Tree == nil || result.Doc == nil || result.Doc.Root == nil {
		t.Fatal("Execute should return a tree and its document form")
	}
	if result.Stats.LeafCount != 3 {
		t.Errorf("LeafCount = %d, want 3", result.Stats.LeafCount)
	}
	if result.Doc.ID != "wsj_0001" {
		t.Errorf("Doc.ID = %q, want wsj_0001", result.Doc.ID)
	}
	if len(result.DocHash) != 64 {
		t.Errorf("DocHash = %q, want 64 hex chars", result.DocHash)
	}
	if result.CacheInfo.ConvertHit {
		t.Error("first run should not hit the cache")
	}

	jsonArt, ok := result.Artifacts[FormatJSON]
	if !ok {
		t.Fatal("json artifact should always be present")
	}
	if !strings.Contains(string(jsonArt), `"root"`) {
		t.Errorf("json artifact should contain the tree root:\n%s", jsonArt)
	}
}

func TestExecuteConvertCacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := quietRunner(c)
	defer r.Close()

	first, err := r.Execute(context.Background(), sampleDoc(), Options{})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.ConvertHit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Execute(context.Background(), sampleDoc(), Options{})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.ConvertHit {
		t.Error("second run should hit the cache")
	}
	if second.Stats.LeafCount != first.Stats.LeafCount {
		t.Errorf("cached leaf count = %d, want %d", second.Stats.LeafCount, first.Stats.LeafCount)
	}

	// Refresh bypasses the cache read.
	third, err := r.Execute(context.Background(), sampleDoc(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.ConvertHit {
		t.Error("refresh run should not hit the cache")
	}
}

func TestExecuteDOT(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := quietRunner(c)
	defer r.Close()

	opts := Options{Formats: []string{FormatJSON, FormatDOT}}
	result, err := r.Execute(context.Background(), sampleDoc(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CacheInfo.RenderHit {
		t.Error("first render should miss the cache")
	}
	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph") {
		t.Errorf("dot artifact should be a digraph:\n%s", dot)
	}

	again, err := r.Execute(context.Background(), sampleDoc(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second render should hit the cache")
	}
}

func TestExecuteBatchSkipsMalformed(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	docs := []*treeio.DepDoc{
		sampleDoc(),
		{ID: "broken"}, // no units
	}
	batch, err := r.ExecuteBatch(context.Background(), docs, Options{})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}

	if len(batch.Results) != 1 {
		t.Errorf("got %d results, want 1", len(batch.Results))
	}
	if len(batch.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(batch.Failures))
	}
	if batch.Failures[0].ID != "broken" {
		t.Errorf("failure ID = %q, want broken", batch.Failures[0].ID)
	}
	if batch.Failures[0].Err == nil {
		t.Error("failure should carry the conversion error")
	}
}

func TestConvertMissingSentences(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	// sampleDoc carries no sentence grouping, which intra-sentential
	// ranking strategies depend on.
	opts := Options{Ranking: "closest-intra-rl-inter-lr"}
	_, err := r.Convert(context.Background(), sampleDoc(), opts)
	if errors.GetCode(err) != errors.ErrCodeMissingSentences {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeMissingSentences)
	}
}

func TestConvertMostFrequentByRel(t *testing.T) {
	statsPath := filepath.Join(t.TempDir(), "stats.toml")
	table := `
[relations.elaboration]
nn = 10
ns = 2

[relations.attribution]
ns = 40
`
	if err := os.WriteFile(statsPath, []byte(table), 0644); err != nil {
		t.Fatalf("write stats table: %v", err)
	}

	r := quietRunner(nil)
	defer r.Close()

	// With the table above, elaboration is multinuclear, so the built
	// tree must carry a Nucleus on the elaboration attachment.
	opts := Options{Nuclearity: "most_frequent_by_rel", StatsPath: statsPath}
	conDoc, err := r.Convert(context.Background(), sampleDoc(), opts)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !hasNuc(conDoc.Root, string(deptree.Nucleus)) {
		t.Error("elaboration attachment should be classified multinuclear")
	}

	// The default strategy treats both labels as mononuclear.
	plain, err := r.Convert(context.Background(), sampleDoc(), Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if hasNuc(plain.Root, string(deptree.Nucleus)) {
		t.Error("default strategy should classify both attachments as satellites")
	}
}

func hasNuc(n *treeio.ConNode, nuc string) bool {
	if n == nil {
		return false
	}
	if n.Nuc == nuc {
		return true
	}
	for _, kid := range n.Kids {
		if hasNuc(kid, nuc) {
			return true
		}
	}
	return false
}

func TestConvertStatsFileMissing(t *testing.T) {
	r := quietRunner(nil)
	defer r.Close()

	opts := Options{
		Nuclearity: "most_frequent_by_rel",
		StatsPath:  filepath.Join(t.TempDir(), "absent.toml"),
	}
	_, err := r.Convert(context.Background(), sampleDoc(), opts)
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
