// Package requirements reads the requirements listing that pairs every
// assertion id constant with its requirement sentence:
//
//	public static final String ID_PAYLOADS_SEQ = "payloads-seq";
//	public static final String PAYLOADS_SEQ = "[tck-id-payloads-seq] The seq MUST ...";
//
// The sentence constant may also wrap, with its literal on the next line.
package requirements

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"tckreport/internal/assertion"
)

// idMarker opens a pending id.
const idMarker = "String ID_"

// Descriptions maps assertion ids to requirement sentences.
type Descriptions map[assertion.ID]string

// Lookup returns the description for id.
func (d Descriptions) Lookup(id assertion.ID) (string, bool) {
	s, ok := d[id]
	return s, ok
}

// Load reads the requirements file at path.
func Load(path string) (Descriptions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requirements: %w", err)
	}
	defer f.Close()

	descs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return descs, nil
}

// scanState is the position of the scanner between an id constant and its
// sentence.
type scanState int

const (
	idle           scanState = iota
	pendingID                // an id constant was seen, waiting for its sentence
	pendingLiteral           // the sentence constant was seen, waiting for its literal
)

// scanner pairs id constants with sentence constants one line at a time.
type scanner struct {
	state   scanState
	pending assertion.ID
	descs   Descriptions
}

// Parse reads a requirements listing from r.
func Parse(r io.Reader) (Descriptions, error) {
	s := &scanner{descs: make(Descriptions)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		s.feed(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read requirements: %w", err)
	}
	return s.descs, nil
}

func (s *scanner) feed(line string) {
	// A new id constant always replaces whatever was pending.
	if strings.Contains(line, idMarker) {
		if id := declaredName(line); id != "" {
			s.pending = assertion.Normalize(id)
			s.state = pendingID
			return
		}
	}

	switch s.state {
	case pendingID:
		literal, hasLiteral := quoted(line)
		if declaredName(line) == s.pending.Name() {
			if !hasLiteral {
				s.state = pendingLiteral
				return
			}
			s.emit(literal)
			return
		}
		if hasLiteral && echoes(literal, s.pending) {
			s.emit(literal)
		}
	case pendingLiteral:
		if literal, ok := quoted(line); ok {
			s.emit(literal)
		}
	}
}

func (s *scanner) emit(literal string) {
	s.descs[s.pending] = stripEcho(literal, s.pending)
	s.pending = ""
	s.state = idle
}

// declaredName returns the constant name following "String" on a
// declaration line, or "".
func declaredName(line string) string {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "String" && i+1 < len(fields) {
			return strings.TrimRight(fields[i+1], "=;")
		}
	}
	return ""
}

// quoted returns the first double-quoted literal on line.
func quoted(line string) (string, bool) {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return line[start+1:], true
	}
	return line[start+1 : start+1+end], true
}

// echoes reports whether literal starts with a bracketed echo of id, as in
// "[tck-id-payloads-seq] ...".
func echoes(literal string, id assertion.ID) bool {
	fields := strings.Fields(literal)
	return len(fields) > 0 && strings.HasPrefix(fields[0], "[") && assertion.Normalize(fields[0]) == id
}

// stripEcho removes the leading id echo (e.g. "[tck-id-payloads-seq]").
func stripEcho(literal string, id assertion.ID) string {
	literal = strings.TrimSpace(literal)
	fields := strings.SplitN(literal, " ", 2)
	if len(fields) == 2 && (strings.HasPrefix(fields[0], "[") || assertion.Normalize(fields[0]) == id) {
		return strings.TrimSpace(fields[1])
	}
	return literal
}
