// Package stats loads training-corpus nuclearity statistics.
//
// A statistics table records, per relation label, how often each
// nuclearity pattern was observed on attachment edges in a training
// corpus: NS (nucleus left), SN (satellite left) or NN (multinuclear).
// The table answers majority-vote queries; consumers treat it as an
// opaque lookup and never see the raw counts.
//
// Tables are stored as TOML:
//
//	[relations.elaboration]
//	ns = 5217
//	sn = 237
//	nn = 14
//
//	[relations.list]
//	nn = 1289
//	ns = 33
package stats

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

var (
	// ErrEmptyTable is returned by [Load] when the table has no relations.
	ErrEmptyTable = errors.New("statistics table has no relations")

	// ErrNoObservations is returned by [Load] when a relation entry has all
	// zero counts.
	ErrNoObservations = errors.New("relation has no observations")
)

// Nuclearity patterns as observed on training attachment edges.
const (
	PatternNS = "NS" // nucleus before satellite
	PatternSN = "SN" // satellite before nucleus
	PatternNN = "NN" // nucleus on both sides
)

// Counts records the per-pattern observation counts for one relation label.
type Counts struct {
	NS int `toml:"ns"`
	SN int `toml:"sn"`
	NN int `toml:"nn"`
}

// Total returns the number of observations for the relation.
func (c Counts) Total() int { return c.NS + c.SN + c.NN }

// Majority returns the most frequent pattern. Ties resolve in the fixed
// order NS, SN, NN so that repeated loads of the same table agree.
func (c Counts) Majority() string {
	best, pattern := c.NS, PatternNS
	if c.SN > best {
		best, pattern = c.SN, PatternSN
	}
	if c.NN > best {
		pattern = PatternNN
	}
	return pattern
}

// Table maps relation labels to their majority nuclearity patterns.
// It is immutable after Load and safe for concurrent lookups.
type Table struct {
	patterns map[string]string
}

// tableFile is the TOML shape of a statistics table.
type tableFile struct {
	Relations map[string]Counts `toml:"relations"`
}

// Load reads a statistics table from a TOML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stats table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a statistics table from TOML bytes.
func Parse(data []byte) (*Table, error) {
	var file tableFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode stats table: %w", err)
	}
	if len(file.Relations) == 0 {
		return nil, ErrEmptyTable
	}

	patterns := make(map[string]string, len(file.Relations))
	for label, counts := range file.Relations {
		if counts.Total() == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoObservations, label)
		}
		patterns[label] = counts.Majority()
	}
	return &Table{patterns: patterns}, nil
}

// FromPatterns builds a table directly from label→pattern pairs.
// Useful for tests and for callers that computed majorities elsewhere.
func FromPatterns(patterns map[string]string) *Table {
	copied := make(map[string]string, len(patterns))
	for k, v := range patterns {
		copied[k] = v
	}
	return &Table{patterns: copied}
}

// Labels returns all relation labels the table covers, sorted.
func (t *Table) Labels() []string {
	labels := make([]string, 0, len(t.patterns))
	for l := range t.patterns {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// MajorityPattern returns the most frequent nuclearity pattern for the
// label and whether the label is known.
func (t *Table) MajorityPattern(label string) (string, bool) {
	pattern, ok := t.patterns[label]
	return pattern, ok
}
