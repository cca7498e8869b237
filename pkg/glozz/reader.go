package glozz

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFile reads a Glozz annotation file and, when textPath is non-empty,
// the raw text it annotates.
func ReadFile(annoPath, textPath string) (*Document, error) {
	f, err := os.Open(annoPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", annoPath, err)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", annoPath, err)
	}

	if textPath != "" {
		text, err := os.ReadFile(textPath)
		if err != nil {
			return nil, fmt.Errorf("read text %s: %w", textPath, err)
		}
		doc.Text = string(text)
	}
	return doc, nil
}

// Read decodes a Glozz annotation document from r.
func Read(r io.Reader) (*Document, error) {
	var raw xmlAnnotations
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}

	doc := &Document{}
	if len(raw.Metadata) > 1 {
		return nil, fmt.Errorf("%w: metadata", ErrDuplicateElement)
	}
	if len(raw.Metadata) == 1 {
		doc.Hashcode = raw.Metadata[0].Hashcode
	}

	for _, u := range raw.Units {
		unit, err := u.toUnit()
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		doc.Units = append(doc.Units, unit)
	}
	for _, rel := range raw.Relations {
		relation, err := rel.toRelation()
		if err != nil {
			return nil, fmt.Errorf("relation %s: %w", rel.ID, err)
		}
		doc.Relations = append(doc.Relations, relation)
	}
	for _, s := range raw.Schemas {
		schema, err := s.toSchema()
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", s.ID, err)
		}
		doc.Schemas = append(doc.Schemas, schema)
	}
	return doc, nil
}

// =============================================================================
// XML shapes
// =============================================================================

type xmlAnnotations struct {
	XMLName   xml.Name        `xml:"annotations"`
	Metadata  []xmlTopMeta    `xml:"metadata"`
	Units     []xmlAnnotation `xml:"unit"`
	Relations []xmlAnnotation `xml:"relation"`
	Schemas   []xmlAnnotation `xml:"schema"`
}

type xmlTopMeta struct {
	Hashcode string `xml:"corpusHashcode,attr"`
}

type xmlAnnotation struct {
	ID               string                 `xml:"id,attr"`
	Metadata         *xmlMeta               `xml:"metadata"`
	Characterisation []xmlCharacterisation  `xml:"characterisation"`
	Positioning      []xmlPositioning       `xml:"positioning"`
}

// xmlMeta decodes annotation metadata, whose entries are keyed by element
// name (<author>x</author>), preserving document order.
type xmlMeta struct {
	Entries Pairs
}

func (m *xmlMeta) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			m.Entries = append(m.Entries, Pair{Key: t.Name.Local, Value: value})
		case xml.EndElement:
			return nil
		}
	}
}

type xmlCharacterisation struct {
	Type       []string        `xml:"type"`
	FeatureSet []xmlFeatureSet `xml:"featureSet"`
}

type xmlFeatureSet struct {
	Features []xmlFeature `xml:"feature"`
}

type xmlFeature struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlPositioning struct {
	Start    []xmlBoundary `xml:"start"`
	End      []xmlBoundary `xml:"end"`
	Terms    []xmlRef      `xml:"term"`
	Embedded []xmlRef      `xml:"embedded-unit"`
}

type xmlBoundary struct {
	Positions []xmlSingle `xml:"singlePosition"`
}

type xmlSingle struct {
	Index int `xml:"index,attr"`
}

type xmlRef struct {
	ID string `xml:"id,attr"`
}

// =============================================================================
// Conversion with singleton checks
// =============================================================================

// one enforces that a named child element occurs exactly once.
func one[T any](items []T, name string) (T, error) {
	var zero T
	switch len(items) {
	case 0:
		return zero, fmt.Errorf("%w: %s", ErrMissingElement, name)
	case 1:
		return items[0], nil
	default:
		return zero, fmt.Errorf("%w: %s", ErrDuplicateElement, name)
	}
}

func (a xmlAnnotation) characterise() (string, Pairs, error) {
	char, err := one(a.Characterisation, "characterisation")
	if err != nil {
		return "", nil, err
	}
	typ, err := one(char.Type, "type")
	if err != nil {
		return "", nil, err
	}

	var features Pairs
	if len(char.FeatureSet) > 1 {
		return "", nil, fmt.Errorf("%w: featureSet", ErrDuplicateElement)
	}
	if len(char.FeatureSet) == 1 {
		for _, f := range char.FeatureSet[0].Features {
			features = append(features, Pair{Key: f.Name, Value: f.Value})
		}
	}
	return strings.TrimSpace(typ), features, nil
}

func (a xmlAnnotation) metaPairs() Pairs {
	if a.Metadata == nil {
		return nil
	}
	// Metadata values are trimmed: Glozz writers pad them with layout
	// whitespace that is not part of the value.
	entries := make(Pairs, len(a.Metadata.Entries))
	for i, e := range a.Metadata.Entries {
		entries[i] = Pair{Key: e.Key, Value: strings.TrimSpace(e.Value)}
	}
	return entries
}

func (p xmlPositioning) boundary(which []xmlBoundary, name string) (int, error) {
	b, err := one(which, name)
	if err != nil {
		return 0, err
	}
	pos, err := one(b.Positions, name+"/singlePosition")
	if err != nil {
		return 0, err
	}
	return pos.Index, nil
}

func (a xmlAnnotation) toUnit() (Unit, error) {
	typ, features, err := a.characterise()
	if err != nil {
		return Unit{}, err
	}
	pos, err := one(a.Positioning, "positioning")
	if err != nil {
		return Unit{}, err
	}
	start, err := pos.boundary(pos.Start, "start")
	if err != nil {
		return Unit{}, err
	}
	end, err := pos.boundary(pos.End, "end")
	if err != nil {
		return Unit{}, err
	}
	return Unit{
		ID:       a.ID,
		Type:     typ,
		Features: features,
		Metadata: a.metaPairs(),
		Span:     Span{Start: start, End: end},
	}, nil
}

func (a xmlAnnotation) toRelation() (Relation, error) {
	typ, features, err := a.characterise()
	if err != nil {
		return Relation{}, err
	}
	pos, err := one(a.Positioning, "positioning")
	if err != nil {
		return Relation{}, err
	}
	if len(pos.Terms) != 2 {
		return Relation{}, fmt.Errorf("%w: got %d", ErrBadTermCount, len(pos.Terms))
	}
	return Relation{
		ID:       a.ID,
		Type:     typ,
		Features: features,
		Metadata: a.metaPairs(),
		Span:     RelSpan{T1: pos.Terms[0].ID, T2: pos.Terms[1].ID},
	}, nil
}

func (a xmlAnnotation) toSchema() (Schema, error) {
	typ, features, err := a.characterise()
	if err != nil {
		return Schema{}, err
	}
	pos, err := one(a.Positioning, "positioning")
	if err != nil {
		return Schema{}, err
	}
	members := make([]string, len(pos.Embedded))
	for i, m := range pos.Embedded {
		members[i] = m.ID
	}
	return Schema{
		ID:       a.ID,
		Type:     typ,
		Features: features,
		Metadata: a.metaPairs(),
		Members:  members,
	}, nil
}
