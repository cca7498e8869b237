// Package pdtb parses Penn Discourse Treebank relation files.
//
// A .pdtb file is a sequence of framed relation records. Each record names
// one of five relation kinds and carries two arguments plus kind-specific
// material: explicit relations anchor a connective on a text selection,
// implicit relations record an inference site and one or two inferred
// connectives, AltLex relations carry semantic classes, and EntRel/NoRel
// records are bare argument pairs.
//
// Rather than a subtype hierarchy, a relation is one flat record with a
// Kind tag; fields that do not apply to a kind are nil.
package pdtb

import (
	"strconv"
	"strings"
)

// Kind names the five PDTB relation kinds.
type Kind string

const (
	Explicit Kind = "Explicit"
	Implicit Kind = "Implicit"
	AltLex   Kind = "AltLex"
	EntRel   Kind = "EntRel"
	NoRel    Kind = "NoRel"
)

// GornAddress is a path into a constituent tree, outermost step first.
type GornAddress []int

// String formats the address with dot separators, "0.1.1".
func (g GornAddress) String() string {
	parts := make([]string, len(g))
	for i, p := range g {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// RawSpan is a character span "start..end" as written in the file.
type RawSpan struct {
	Start int
	End   int
}

// Selection anchors annotation material on the source text: one or more
// character spans, their tree addresses, and the covered raw text.
type Selection struct {
	Spans []RawSpan
	Gorn  []GornAddress
	Text  string
}

// InferenceSite locates an implicit relation between two sentences by
// string position and sentence number.
type InferenceSite struct {
	StrPos  int
	SentNum int
}

// SemClass is a dot-separated semantic class path such as
// Contingency.Cause.Reason.
type SemClass []string

// String formats the class path with dot separators.
func (s SemClass) String() string { return strings.Join(s, ".") }

// Connective is a connective word or phrase with one or two semantic
// classes.
type Connective struct {
	Text      string
	SemClass1 SemClass
	SemClass2 SemClass
}

// Attribution records who a span of text is attributed to. Selection is
// non-nil when the attribution is anchored on its own text span.
type Attribution struct {
	Source      string
	Type        string
	Polarity    string
	Determinacy string
	Selection   *Selection
}

// Arg is one argument of a relation. Attribution is nil for the bare
// arguments of EntRel and NoRel records.
type Arg struct {
	Selection
	Attribution *Attribution
}

// Relation is one PDTB relation record. Which fields are set depends on
// Kind:
//
//   - Explicit: Selection, Attribution, Connective
//   - Implicit: Inference, Attribution, Conn1, optionally Conn2
//   - AltLex: Selection, Attribution, SemClass1, optionally SemClass2
//   - EntRel, NoRel: Inference only
//
// Sup1 and Sup2 are optional supplementary spans and occur only on the
// three attributed kinds.
type Relation struct {
	Kind Kind

	Selection *Selection
	Inference *InferenceSite

	Attribution *Attribution
	Connective  *Connective
	Conn1       *Connective
	Conn2       *Connective
	SemClass1   SemClass
	SemClass2   SemClass

	Sup1 *Selection
	Arg1 Arg
	Arg2 Arg
	Sup2 *Selection
}
