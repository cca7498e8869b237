// Package glozz reads and writes Glozz annotation files.
//
// A Glozz document is an XML file with a corpus hashcode, a list of unit
// annotations (text spans), relation annotations (edges between two
// annotations) and schemas (sets of annotations). Each annotation carries
// a characterisation (a type plus a feature set) and free-form metadata.
//
// Metadata and feature sets are modeled as ordered key/value mappings
// rather than plain maps: Glozz consumers diff documents textually, so
// output ordering must be deterministic. A fixed list of preferred keys is
// emitted first, the remainder in insertion order.
package glozz

import "errors"

var (
	// ErrMissingElement is returned when a required singleton element is
	// absent from an annotation.
	ErrMissingElement = errors.New("missing element")

	// ErrDuplicateElement is returned when a singleton element appears more
	// than once.
	ErrDuplicateElement = errors.New("duplicate element")

	// ErrBadTermCount is returned when a relation's positioning does not
	// reference exactly two terms.
	ErrBadTermCount = errors.New("relation positioning must have exactly 2 terms")
)

// preferredMetaKeys is the emission order for well-known metadata keys.
var preferredMetaKeys = []string{
	"author",
	"creation-date",
	"lastModifier",
	"lastModificationDate",
}

// preferredFeatureKeys is the emission order for well-known feature names.
var preferredFeatureKeys = []string{
	"Status",
	"Quantity",
	"Correctness",
	"Kind",
	"Comments",
	"Identifier",
	"Timestamp",
	"Addressee",
	"Surface_act",
}

// Pair is one key/value entry of an ordered mapping.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered string→string mapping. Insertion order is preserved;
// Get returns the first entry for a key.
type Pairs []Pair

// Get returns the value for key and whether it is present.
func (p Pairs) Get(key string) (string, bool) {
	for _, e := range p {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Set replaces the first entry for key or appends a new one.
func (p *Pairs) Set(key, value string) {
	for i, e := range *p {
		if e.Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Pair{Key: key, Value: value})
}

// ordered returns the entries with preferred keys first, in preference
// order, followed by the rest in insertion order.
func (p Pairs) ordered(preferred []string) []Pair {
	out := make([]Pair, 0, len(p))
	taken := make(map[string]bool, len(preferred))
	for _, key := range preferred {
		if v, ok := p.Get(key); ok {
			out = append(out, Pair{Key: key, Value: v})
			taken[key] = true
		}
	}
	for _, e := range p {
		if !taken[e.Key] {
			out = append(out, e)
		}
	}
	return out
}

// Span is a half-open character interval of a unit annotation.
type Span struct {
	Start int
	End   int
}

// RelSpan names the two annotations connected by a relation.
type RelSpan struct {
	T1 string
	T2 string
}

// Unit is a Glozz unit annotation: a typed, feature-bearing text span.
type Unit struct {
	ID       string
	Type     string
	Features Pairs
	Metadata Pairs
	Span     Span
}

// Relation is a Glozz relation annotation connecting two other annotations.
type Relation struct {
	ID       string
	Type     string
	Features Pairs
	Metadata Pairs
	Span     RelSpan
}

// Schema is a Glozz schema annotation: a named set of member annotations.
type Schema struct {
	ID       string
	Type     string
	Features Pairs
	Metadata Pairs
	Members  []string
}

// Document is a parsed Glozz annotation file, optionally paired with the
// raw text it annotates.
type Document struct {
	Hashcode  string
	Units     []Unit
	Relations []Relation
	Schemas   []Schema
	Text      string
}
