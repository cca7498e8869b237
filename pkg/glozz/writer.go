package glozz

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteFile writes the annotation document to path. The raw text is not
// written; Glozz keeps it in a separate .ac file.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Write encodes the annotation document as Glozz XML.
//
// Output is deterministic: metadata and feature keys are emitted with the
// preferred keys first, the remainder in insertion order.
func Write(w io.Writer, doc *Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	e := &emitter{enc: enc}
	e.open("annotations")

	e.openAttrs("metadata", attr("corpusHashcode", doc.Hashcode))
	e.close("metadata")

	for _, u := range doc.Units {
		e.openAttrs("unit", attr("id", u.ID))
		e.metadata(u.Metadata)
		e.characterisation(u.Type, u.Features)
		e.open("positioning")
		e.open("start")
		e.openAttrs("singlePosition", attr("index", strconv.Itoa(u.Span.Start)))
		e.close("singlePosition")
		e.close("start")
		e.open("end")
		e.openAttrs("singlePosition", attr("index", strconv.Itoa(u.Span.End)))
		e.close("singlePosition")
		e.close("end")
		e.close("positioning")
		e.close("unit")
	}

	for _, r := range doc.Relations {
		e.openAttrs("relation", attr("id", r.ID))
		e.metadata(r.Metadata)
		e.characterisation(r.Type, r.Features)
		e.open("positioning")
		for _, term := range []string{r.Span.T1, r.Span.T2} {
			e.openAttrs("term", attr("id", term))
			e.close("term")
		}
		e.close("positioning")
		e.close("relation")
	}

	for _, s := range doc.Schemas {
		e.openAttrs("schema", attr("id", s.ID))
		e.metadata(s.Metadata)
		e.characterisation(s.Type, s.Features)
		e.open("positioning")
		for _, m := range s.Members {
			e.openAttrs("embedded-unit", attr("id", m))
			e.close("embedded-unit")
		}
		e.close("positioning")
		e.close("schema")
	}

	e.close("annotations")
	if e.err != nil {
		return e.err
	}
	return enc.Flush()
}

// emitter wraps an xml.Encoder with error-sticky token helpers.
type emitter struct {
	enc *xml.Encoder
	err error
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func (e *emitter) token(t xml.Token) {
	if e.err == nil {
		e.err = e.enc.EncodeToken(t)
	}
}

func (e *emitter) open(name string) {
	e.token(xml.StartElement{Name: xml.Name{Local: name}})
}

func (e *emitter) openAttrs(name string, attrs ...xml.Attr) {
	e.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (e *emitter) close(name string) {
	e.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (e *emitter) text(s string) {
	e.token(xml.CharData(s))
}

func (e *emitter) metadata(meta Pairs) {
	e.open("metadata")
	for _, p := range meta.ordered(preferredMetaKeys) {
		e.open(p.Key)
		e.text(p.Value)
		e.close(p.Key)
	}
	e.close("metadata")
}

func (e *emitter) characterisation(typ string, features Pairs) {
	e.open("characterisation")
	e.open("type")
	e.text(typ)
	e.close("type")
	e.open("featureSet")
	for _, p := range features.ordered(preferredFeatureKeys) {
		e.openAttrs("feature", attr("name", p.Key))
		e.text(p.Value)
		e.close("feature")
	}
	e.close("featureSet")
	e.close("characterisation")
}
