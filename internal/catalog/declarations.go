package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tckreport/internal/assertion"
	"tckreport/internal/diag"
)

const (
	// listMarker opens the test-id declaration in a test source.
	listMarker = "List<String> testIds ="
	// listTerminator closes it.
	listTerminator = ");"
)

// accState tracks where the accumulator is in a declaration.
type accState int

const (
	seekMarker accState = iota // before the marker line
	seekOpen                   // marker seen, waiting for "("
	collecting                 // inside the parenthesised list
	done
)

// accumulator collects comma-separated ids across physical lines.
type accumulator struct {
	state  accState
	tokens []assertion.ID
}

// feed consumes one line.
func (a *accumulator) feed(line string) {
	switch a.state {
	case seekMarker:
		idx := strings.Index(line, listMarker)
		if idx < 0 {
			return
		}
		a.state = seekOpen
		a.feed(line[idx+len(listMarker):])
	case seekOpen:
		idx := strings.IndexByte(line, '(')
		if idx < 0 {
			return
		}
		a.state = collecting
		a.feed(line[idx+1:])
	case collecting:
		line = stripComment(line)
		if idx := strings.Index(line, listTerminator); idx >= 0 {
			line = line[:idx]
			a.state = done
		}
		for _, tok := range strings.Split(line, ",") {
			if id := assertion.Normalize(bareToken(tok)); id != "" {
				a.tokens = append(a.tokens, id)
			}
		}
	}
}

// bareToken drops a nested call opener ("Arrays.asList(") and a class
// qualifier ("Requirements.ID_X") from a list token.
func bareToken(tok string) string {
	if idx := strings.LastIndexByte(tok, '('); idx >= 0 {
		tok = tok[idx+1:]
	}
	tok = strings.TrimSpace(tok)
	if idx := strings.LastIndexByte(tok, '.'); idx >= 0 {
		tok = tok[idx+1:]
	}
	return tok
}

// stripComment drops a trailing // comment.
func stripComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// Declaration is the outcome of scanning one source file.
type Declaration struct {
	// Found is false when the file has no test-id list.
	Found bool
	IDs   assertion.Set
}

// ParseDeclarations extracts the declared test ids from a test source. Ids
// declared more than once are reported to diags once each under source.
func ParseDeclarations(r io.Reader, source string, diags *diag.List) (Declaration, error) {
	var acc accumulator
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && acc.state != done {
		acc.feed(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Declaration{}, fmt.Errorf("read %s: %w", source, err)
	}

	decl := Declaration{Found: acc.state != seekMarker, IDs: assertion.NewSet()}
	seen := make(map[assertion.ID]int, len(acc.tokens))
	for _, id := range acc.tokens {
		seen[id]++
		if seen[id] == 2 {
			diags.Addf(diag.Duplicate, source, 0, "duplicate test id %s", id)
		}
		decl.IDs.Add(id)
	}
	return decl, nil
}
