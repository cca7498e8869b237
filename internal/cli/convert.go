package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/humsha/educe/pkg/glozz"
	"github.com/humsha/educe/pkg/pipeline"
	"github.com/humsha/educe/pkg/rst/corpus"
	"github.com/humsha/educe/pkg/treeio"
)

// convertFlags holds the command-line flags for the convert command.
type convertFlags struct {
	output       string // output file or base path
	nuclearity   string // classifier strategy
	ranking      string // ranker strategy
	statsPath    string // TOML stats table for most_frequent_by_rel
	detailed     bool   // include spans in render labels
	noCache      bool   // disable caching
	refresh      bool   // bypass cache reads
	plain        bool   // disable the progress UI for directory input
	glozzText    string // companion .ac text file for Glozz input
	eduType      string // Glozz unit type treated as EDU
	sentenceType string // Glozz unit type treated as sentence
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var formatsStr string
	flags := convertFlags{
		eduType:      "EDU",
		sentenceType: "Sentence",
	}

	cmd := &cobra.Command{
		Use:   "convert [file|directory]",
		Short: "Convert dependency documents to constituency trees",
		Long: `Convert dependency discourse documents into binary constituency trees.

The input is either a JSON dependency document, a Glozz annotation file
(.aa, with --text for the companion .ac file), or a directory of JSON
documents. Each document runs through the three conversion passes:
nuclearity classification, attachment ranking, and the binary tree build.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Nuclearity: flags.nuclearity,
				Ranking:    flags.ranking,
				StatsPath:  flags.statsPath,
				Formats:    parseFormats(formatsStr, pipeline.FormatJSON),
				Detailed:   flags.detailed,
				Refresh:    flags.refresh,
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("stat %s: %w", args[0], err)
			}
			if info.IsDir() {
				return c.runConvertDir(cmd.Context(), args[0], opts, &flags)
			}
			return c.runConvertFile(cmd.Context(), args[0], opts, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png (comma-separated)")
	cmd.Flags().StringVar(&flags.nuclearity, "nuclearity", "", "nuclearity strategy: unamb_else_most_frequent (default), most_frequent_by_rel")
	cmd.Flags().StringVar(&flags.ranking, "ranking", "", "ranking strategy (default: id)")
	cmd.Flags().StringVar(&flags.statsPath, "stats", "", "TOML nuclearity statistics table (required for most_frequent_by_rel)")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "include character spans in rendered labels")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "disable the interactive progress display")
	cmd.Flags().StringVar(&flags.glozzText, "text", "", "companion .ac text file for Glozz input")
	cmd.Flags().StringVar(&flags.eduType, "edu-type", flags.eduType, "Glozz unit type treated as EDU")
	cmd.Flags().StringVar(&flags.sentenceType, "sentence-type", flags.sentenceType, "Glozz unit type treated as sentence")

	return cmd
}

// runConvertFile converts a single document and writes the requested
// artifacts.
func (c *CLI) runConvertFile(ctx context.Context, input string, opts pipeline.Options, flags *convertFlags) error {
	doc, err := readDocument(input, flags)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", doc.ID))
	spinner.Start()

	result, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return fmt.Errorf("convert %s: %w", input, err)
	}
	spinner.Stop()

	printSuccess("Converted %s", doc.ID)
	printStats(result.Stats.LeafCount, sentenceCount(doc), result.CacheInfo.ConvertHit)

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, treeBase(input), flags.output)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	if len(opts.Formats) == 1 && opts.Formats[0] == pipeline.FormatJSON && len(paths) > 0 {
		printNewline()
		printNextStep("Render it", fmt.Sprintf("educe render %s -f svg", paths[0]))
	}
	return nil
}

// runConvertDir converts every JSON dependency document in a directory.
func (c *CLI) runConvertDir(ctx context.Context, dir string, opts pipeline.Options, flags *convertFlags) error {
	inputs, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(inputs)
	if len(inputs) == 0 {
		printWarning("No JSON documents in %s", dir)
		return nil
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	convertOne := func(ctx context.Context, input string) error {
		doc, err := readDocument(input, flags)
		if err != nil {
			return err
		}
		result, err := runner.Execute(ctx, doc, opts)
		if err != nil {
			return err
		}
		_, err = writeArtifacts(result.Artifacts, opts.Formats, treeBase(input), "")
		return err
	}

	if flags.plain {
		prog := newProgress(c.Logger)
		failed := 0
		for _, input := range inputs {
			if err := convertOne(ctx, input); err != nil {
				c.Logger.Warn("skipping document", "input", input, "error", err)
				failed++
			}
		}
		prog.done(fmt.Sprintf("Converted %d documents", len(inputs)-failed))
		if failed > 0 {
			printWarning("%d of %d documents failed", failed, len(inputs))
		}
		return nil
	}

	failures, err := runBatchUI(ctx, inputs, convertOne)
	if err != nil {
		return err
	}

	printNewline()
	printSuccess("Converted %d of %d documents", len(inputs)-len(failures), len(inputs))
	for _, f := range failures {
		printDetail("%s %s: %v", iconError, f.Input, f.Err)
	}
	return nil
}

// readDocument loads a dependency document from a JSON file or a Glozz
// annotation file.
func readDocument(input string, flags *convertFlags) (*treeio.DepDoc, error) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	if filepath.Ext(input) == ".aa" || flags.glozzText != "" {
		textPath := flags.glozzText
		if textPath == "" {
			textPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".ac"
		}
		gdoc, err := glozz.ReadFile(input, textPath)
		if err != nil {
			return nil, fmt.Errorf("read glozz %s: %w", input, err)
		}
		tree, err := corpus.FromGlozz(gdoc, corpus.Options{
			EDUType:      flags.eduType,
			SentenceType: flags.sentenceType,
		})
		if err != nil {
			return nil, fmt.Errorf("interpret %s: %w", input, err)
		}
		doc := treeio.FromDepTree(tree)
		doc.ID = base
		return doc, nil
	}

	doc, err := treeio.ReadDepFile(input)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = base
	}
	return doc, nil
}

// writeArtifacts writes each rendered format to disk and returns the
// written paths. defaultBase names the outputs when no explicit output is
// given; an explicit single-format output is used verbatim.
func writeArtifacts(artifacts map[string][]byte, formats []string, defaultBase, output string) ([]string, error) {
	base := artifactBase(defaultBase, output)

	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// artifactBase derives the base output path, stripping a format extension
// from an explicit output so that multi-format runs fan out cleanly.
func artifactBase(defaultBase, output string) string {
	if output == "" {
		return defaultBase
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// treeBase names converted outputs: the input path with a ".tree" suffix,
// so that a json artifact never clobbers its json input.
func treeBase(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".tree"
}

// sentenceCount counts the distinct sentence groups of a document.
func sentenceCount(doc *treeio.DepDoc) int {
	seen := make(map[int]bool)
	for _, id := range doc.Sentences {
		if id >= 0 {
			seen[id] = true
		}
	}
	return len(seen)
}
