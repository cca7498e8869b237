package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/humsha/educe/pkg/pipeline"
	"github.com/humsha/educe/pkg/treeio"
)

// renderCommand creates the render command for drawing converted trees.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		detailed   bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Render a constituency tree as DOT, SVG, or PNG",
		Long: `Render a constituency tree (produced by 'convert') as a Graphviz
drawing. Nucleus nodes are drawn solid, satellites dashed, and the root
with a double border.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Formats:  parseFormats(formatsStr, pipeline.FormatSVG),
				Detailed: detailed,
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include character spans in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender loads the tree and renders it.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	doc, err := treeio.ReadConFile(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering tree...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	spinner.Stop()

	base := strings.TrimSuffix(input, filepath.Ext(input))
	paths, err := writeArtifacts(artifacts, opts.Formats, base, output)
	if err != nil {
		return err
	}

	status := "rendered"
	if cacheHit {
		status = "from cache"
	}
	printSuccess("Rendered %s (%s)", input, status)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
