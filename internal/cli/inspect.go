package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humsha/educe/pkg/pdtb"
)

// inspectCommand creates the inspect command for PDTB relation files.
func (c *CLI) inspectCommand() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "inspect [file.pdtb]",
		Short: "Summarize a PDTB relation file",
		Long: `Parse a Penn Discourse Treebank relation file and print a summary of
the relations it contains: counts per kind, and with --detailed one line
per relation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], detailed)
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "list every relation")

	return cmd
}

func runInspect(input string, detailed bool) error {
	relations, err := pdtb.ParseFile(input)
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}

	counts := make(map[pdtb.Kind]int)
	for _, rel := range relations {
		counts[rel.Kind]++
	}

	printSuccess("Parsed %s: %d relations", input, len(relations))
	for _, kind := range []pdtb.Kind{pdtb.Explicit, pdtb.Implicit, pdtb.AltLex, pdtb.EntRel, pdtb.NoRel} {
		if n := counts[kind]; n > 0 {
			printDetail("%-8s %d", kind, n)
		}
	}

	if !detailed {
		return nil
	}
	printNewline()
	for i, rel := range relations {
		printDetail("%3d  %s", i+1, describeRelation(rel))
	}
	return nil
}

// describeRelation gives a one-line summary of a relation: its kind plus
// the connective or semantic class that identifies it.
func describeRelation(rel pdtb.Relation) string {
	switch rel.Kind {
	case pdtb.Explicit:
		if rel.Connective != nil {
			return fmt.Sprintf("%s %q (%s)", rel.Kind, rel.Connective.Text, rel.Connective.SemClass1)
		}
	case pdtb.Implicit:
		if rel.Conn1 != nil {
			return fmt.Sprintf("%s %q (%s)", rel.Kind, rel.Conn1.Text, rel.Conn1.SemClass1)
		}
	case pdtb.AltLex:
		return fmt.Sprintf("%s (%s)", rel.Kind, rel.SemClass1)
	}
	return string(rel.Kind)
}
