package pdtb

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError reports a malformed .pdtb file with the 1-based line where
// parsing failed.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pdtb: line %d: %s", e.Line, e.Msg)
}

const (
	frameBar      = "________________________________________________________"
	textOpen      = "#### Text ####"
	featuresOpen  = "#### Features ####"
	subsectionEnd = "##############"
)

// ParseFile parses a .pdtb file and returns the relations found in it.
func ParseFile(path string) ([]Relation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(string(data))
}

// ParseReader parses .pdtb content from r.
func ParseReader(r io.Reader) ([]Relation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse parses .pdtb content and returns the relations found in it.
func Parse(content string) ([]Relation, error) {
	s := &scanner{lines: strings.Split(content, "\n")}

	var relations []Relation
	for {
		s.skipBlank()
		if s.done() {
			return relations, nil
		}
		rel, err := s.relation()
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}
}

// scanner walks the file line by line.
type scanner struct {
	lines []string
	pos   int
}

func (s *scanner) done() bool { return s.pos >= len(s.lines) }

func (s *scanner) peek() string {
	if s.done() {
		return ""
	}
	return strings.TrimRight(s.lines[s.pos], " \r")
}

func (s *scanner) next() string {
	line := s.peek()
	s.pos++
	return line
}

func (s *scanner) skipBlank() {
	for !s.done() && s.peek() == "" {
		s.pos++
	}
}

func (s *scanner) errf(format string, args ...any) error {
	return &ParseError{Line: s.pos + 1, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) expect(want string) error {
	if s.done() {
		return s.errf("unexpected end of file, want %q", want)
	}
	if got := s.next(); got != want {
		s.pos--
		return s.errf("got %q, want %q", got, want)
	}
	return nil
}

// section matches a "____Name____" header line and returns the name.
func section(line string) (string, bool) {
	if line == frameBar {
		return "", false
	}
	name, ok := strings.CutPrefix(line, "____")
	if !ok {
		return "", false
	}
	name, ok = strings.CutSuffix(name, "____")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// =============================================================================
// Relation frames
// =============================================================================

func (s *scanner) relation() (Relation, error) {
	if err := s.expect(frameBar); err != nil {
		return Relation{}, err
	}
	kind, ok := section(s.peek())
	if !ok {
		return Relation{}, s.errf("got %q, want a relation kind header", s.peek())
	}

	var rel Relation
	var err error
	switch Kind(kind) {
	case Explicit:
		s.next()
		rel, err = s.explicit()
	case Implicit:
		s.next()
		rel, err = s.implicit()
	case AltLex:
		s.next()
		rel, err = s.altLex()
	case EntRel, NoRel:
		s.next()
		rel, err = s.bare(Kind(kind))
	default:
		return Relation{}, s.errf("unknown relation kind %q", kind)
	}
	if err != nil {
		return Relation{}, err
	}

	if err := s.expect(frameBar); err != nil {
		return Relation{}, err
	}
	return rel, nil
}

func (s *scanner) explicit() (Relation, error) {
	sel, err := s.selection()
	if err != nil {
		return Relation{}, err
	}
	attr, err := s.attribution()
	if err != nil {
		return Relation{}, err
	}
	conn, err := s.connectiveLine()
	if err != nil {
		return Relation{}, err
	}
	rel := Relation{Kind: Explicit, Selection: sel, Attribution: attr, Connective: conn}
	err = s.fullArgs(&rel)
	return rel, err
}

func (s *scanner) implicit() (Relation, error) {
	inf, err := s.inferenceSite()
	if err != nil {
		return Relation{}, err
	}
	attr, err := s.attribution()
	if err != nil {
		return Relation{}, err
	}
	conn1, err := s.connectiveLine()
	if err != nil {
		return Relation{}, err
	}
	rel := Relation{Kind: Implicit, Inference: inf, Attribution: attr, Conn1: conn1}

	// A second inferred connective is optional; the next argument section
	// header tells the two cases apart.
	if _, isSection := section(s.peek()); !isSection {
		conn2, err := s.connectiveLine()
		if err != nil {
			return Relation{}, err
		}
		rel.Conn2 = conn2
	}
	err = s.fullArgs(&rel)
	return rel, err
}

func (s *scanner) altLex() (Relation, error) {
	sel, err := s.selection()
	if err != nil {
		return Relation{}, err
	}
	attr, err := s.attribution()
	if err != nil {
		return Relation{}, err
	}
	sem1, sem2, err := s.semClasses(s.next())
	if err != nil {
		return Relation{}, err
	}
	rel := Relation{Kind: AltLex, Selection: sel, Attribution: attr, SemClass1: sem1, SemClass2: sem2}
	err = s.fullArgs(&rel)
	return rel, err
}

func (s *scanner) bare(kind Kind) (Relation, error) {
	inf, err := s.inferenceSite()
	if err != nil {
		return Relation{}, err
	}
	rel := Relation{Kind: kind, Inference: inf}

	for _, name := range []string{"Arg1", "Arg2"} {
		if err := s.expect("____" + name + "____"); err != nil {
			return Relation{}, err
		}
		sel, err := s.selection()
		if err != nil {
			return Relation{}, err
		}
		arg := Arg{Selection: *sel}
		if name == "Arg1" {
			rel.Arg1 = arg
		} else {
			rel.Arg2 = arg
		}
	}
	return rel, nil
}

// fullArgs parses the optional Sup1, the two attributed arguments, and the
// optional Sup2 of the three attributed relation kinds.
func (s *scanner) fullArgs(rel *Relation) error {
	if s.peek() == "____Sup1____" {
		s.next()
		sel, err := s.selection()
		if err != nil {
			return err
		}
		rel.Sup1 = sel
	}

	for _, name := range []string{"Arg1", "Arg2"} {
		if err := s.expect("____" + name + "____"); err != nil {
			return err
		}
		sel, err := s.selection()
		if err != nil {
			return err
		}
		attr, err := s.attribution()
		if err != nil {
			return err
		}
		arg := Arg{Selection: *sel, Attribution: attr}
		if name == "Arg1" {
			rel.Arg1 = arg
		} else {
			rel.Arg2 = arg
		}
	}

	if s.peek() == "____Sup2____" {
		s.next()
		sel, err := s.selection()
		if err != nil {
			return err
		}
		rel.Sup2 = sel
	}
	return nil
}

// =============================================================================
// Shared blocks
// =============================================================================

// selection parses a span list line, a Gorn address list line, and the
// raw text subsection.
func (s *scanner) selection() (*Selection, error) {
	spans, err := s.spanList(s.next())
	if err != nil {
		return nil, err
	}
	gorn, err := s.gornList(s.next())
	if err != nil {
		return nil, err
	}
	text, err := s.rawText()
	if err != nil {
		return nil, err
	}
	return &Selection{Spans: spans, Gorn: gorn, Text: text}, nil
}

func (s *scanner) rawText() (string, error) {
	if err := s.expect(textOpen); err != nil {
		return "", err
	}
	var body []string
	for {
		if s.done() {
			return "", s.errf("unterminated text block")
		}
		line := s.next()
		if line == subsectionEnd {
			return strings.Join(body, "\n"), nil
		}
		body = append(body, line)
	}
}

func (s *scanner) inferenceSite() (*InferenceSite, error) {
	strpos, err := s.natLine()
	if err != nil {
		return nil, err
	}
	sentnum, err := s.natLine()
	if err != nil {
		return nil, err
	}
	return &InferenceSite{StrPos: strpos, SentNum: sentnum}, nil
}

func (s *scanner) natLine() (int, error) {
	line := s.next()
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		s.pos--
		return 0, s.errf("got %q, want a number", line)
	}
	return n, nil
}

// attribution parses a Features subsection: the four core fields and an
// optional anchoring selection, recognized by its span-list first line.
func (s *scanner) attribution() (*Attribution, error) {
	if err := s.expect(featuresOpen); err != nil {
		return nil, err
	}
	fields := strings.Split(s.next(), ",")
	if len(fields) != 4 {
		s.pos--
		return nil, s.errf("attribution needs source, type, polarity, determinacy")
	}
	attr := &Attribution{
		Source:      strings.TrimSpace(fields[0]),
		Type:        strings.TrimSpace(fields[1]),
		Polarity:    strings.TrimSpace(fields[2]),
		Determinacy: strings.TrimSpace(fields[3]),
	}

	if isSpanList(s.peek()) {
		sel, err := s.selection()
		if err != nil {
			return nil, err
		}
		attr.Selection = sel
	}
	return attr, nil
}

// connectiveLine parses "<connective>, <semclass>[, <semclass>]". The
// connective text runs up to the first comma.
func (s *scanner) connectiveLine() (*Connective, error) {
	line := s.next()
	text, rest, ok := strings.Cut(line, ",")
	if !ok {
		s.pos--
		return nil, s.errf("got %q, want a connective with semantic classes", line)
	}
	sem1, sem2, err := s.semClasses(rest)
	if err != nil {
		return nil, err
	}
	return &Connective{Text: strings.TrimSpace(text), SemClass1: sem1, SemClass2: sem2}, nil
}

func (s *scanner) semClasses(line string) (SemClass, SemClass, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 1 || len(parts) > 2 || strings.TrimSpace(parts[0]) == "" {
		s.pos--
		return nil, nil, s.errf("got %q, want one or two semantic classes", line)
	}
	sem1 := parseSemClass(parts[0])
	var sem2 SemClass
	if len(parts) == 2 {
		sem2 = parseSemClass(parts[1])
	}
	return sem1, sem2, nil
}

func parseSemClass(s string) SemClass {
	var class SemClass
	for _, part := range strings.Split(s, ".") {
		class = append(class, strings.TrimSpace(part))
	}
	return class
}

func (s *scanner) spanList(line string) ([]RawSpan, error) {
	if !isSpanList(line) {
		s.pos--
		return nil, s.errf("got %q, want a span list", line)
	}
	var spans []RawSpan
	for _, part := range strings.Split(line, ";") {
		start, end, _ := strings.Cut(part, "..")
		a, err1 := strconv.Atoi(strings.TrimSpace(start))
		b, err2 := strconv.Atoi(strings.TrimSpace(end))
		if err1 != nil || err2 != nil {
			s.pos--
			return nil, s.errf("bad span %q", part)
		}
		spans = append(spans, RawSpan{Start: a, End: b})
	}
	return spans, nil
}

func (s *scanner) gornList(line string) ([]GornAddress, error) {
	var addrs []GornAddress
	for _, part := range strings.Split(line, ";") {
		var addr GornAddress
		for _, step := range strings.Split(part, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(step))
			if err != nil {
				s.pos--
				return nil, s.errf("bad Gorn address %q", part)
			}
			addr = append(addr, n)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// isSpanList reports whether the line looks like "36..139" or a
// semicolon-separated list of such spans.
func isSpanList(line string) bool {
	for _, part := range strings.Split(line, ";") {
		start, end, ok := strings.Cut(part, "..")
		if !ok {
			return false
		}
		if _, err := strconv.Atoi(strings.TrimSpace(start)); err != nil {
			return false
		}
		if _, err := strconv.Atoi(strings.TrimSpace(end)); err != nil {
			return false
		}
	}
	return true
}
