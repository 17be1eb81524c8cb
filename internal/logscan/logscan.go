// Package logscan reconciles an execution log against the catalog.
//
// The log interleaves free text with result blocks:
//
//	2022-05-10 12:00:01,120 INFO  Summary Test Results for edge SendData Test
//	topics-ndata-mqtt: PASS;
//	Monitor:payloads-sequence-num-always-included: FAIL seq not incremented;
//	OVERALL: FAIL;
//
// Every block header names a profile and a test. The lines that follow, up
// to the OVERALL roll-up, carry one assertion result each.
package logscan

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"tckreport/internal/assertion"
	"tckreport/internal/catalog"
	"tckreport/internal/diag"
)

const (
	headerMarker  = "Summary Test Results for"
	overallMarker = "OVERALL"
	monitorPrefix = "Monitor:"
)

// Pass is the outcome string of a passing assertion.
const Pass = "PASS"

// Record is the latest observed outcome of one assertion.
type Record struct {
	Test string `yaml:"test"`
	// Timestamp is the date and time as written in the log.
	Timestamp string `yaml:"timestamp"`
	// Time is Timestamp parsed, or zero when it could not be parsed.
	Time   time.Time `yaml:"-"`
	Result string    `yaml:"result"`
}

// Passed reports whether the outcome is exactly PASS.
func (r Record) Passed() bool { return r.Result == Pass }

// Unmatched is a result whose id is not declared for the block's profile.
// It is kept out of the report rows but surfaced next to them.
type Unmatched struct {
	Profile assertion.Profile `yaml:"profile"`
	ID      assertion.ID      `yaml:"id"`
	Record  `yaml:",inline"`
}

// Results holds the reconciled records per profile.
type Results struct {
	records   map[assertion.Profile]map[assertion.ID]Record
	unmatched []Unmatched

	// unmatchedAt indexes unmatched by (profile, id).
	unmatchedAt map[unmatchedKey]int
}

type unmatchedKey struct {
	profile assertion.Profile
	id      assertion.ID
}

func newResults() *Results {
	r := &Results{
		records:     make(map[assertion.Profile]map[assertion.ID]Record),
		unmatchedAt: make(map[unmatchedKey]int),
	}
	for _, p := range assertion.Profiles {
		r.records[p] = make(map[assertion.ID]Record)
	}
	return r
}

// Lookup returns the record for (p, id).
func (r *Results) Lookup(p assertion.Profile, id assertion.ID) (Record, bool) {
	rec, ok := r.records[p][id]
	return rec, ok
}

// Len returns how many ids of p have a record.
func (r *Results) Len(p assertion.Profile) int { return len(r.records[p]) }

// Unmatched returns the dropped results, one per (profile, id), ordered by
// first appearance in the log. Like declared results, a later occurrence
// replaces an earlier one.
func (r *Results) Unmatched() []Unmatched {
	out := make([]Unmatched, len(r.unmatched))
	copy(out, r.unmatched)
	return out
}

// ---------------------------------------------------------------------------
// Reconciler
// ---------------------------------------------------------------------------

type scanState int

const (
	scanOuter scanState = iota // between blocks
	scanInner                  // inside a block, before OVERALL
)

// header is a parsed block header.
type header struct {
	profile   assertion.Profile
	known     bool
	test      string
	timestamp string
	time      time.Time
	line      int
}

// Reconciler scans one log. It is not safe for concurrent use.
type Reconciler struct {
	catalog *catalog.Catalog
	diags   *diag.List
	source  string

	state   scanState
	block   header
	lineNo  int
	results *Results
}

// NewReconciler returns a Reconciler that keeps only results declared in c.
// source names the log in diagnostics.
func NewReconciler(c *catalog.Catalog, source string, diags *diag.List) *Reconciler {
	return &Reconciler{catalog: c, diags: diags, source: source, results: newResults()}
}

// Reconcile reads the whole log and returns the per-profile results. Later
// results for the same (profile, id) replace earlier ones.
func (r *Reconciler) Reconcile(in io.Reader) (*Results, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		r.lineNo++
		r.feed(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if r.state == scanInner {
		r.unterminated("end of log")
	}
	return r.results, nil
}

func (r *Reconciler) feed(raw string) {
	line := strings.TrimSpace(raw)

	// A header always opens a new block, even inside an unterminated one.
	if idx := strings.Index(line, headerMarker); idx >= 0 {
		if r.state == scanInner {
			r.unterminated(fmt.Sprintf("next header at line %d", r.lineNo))
		}
		r.openBlock(line, idx)
		return
	}

	if r.state != scanInner {
		return
	}
	if strings.Contains(line, overallMarker) {
		r.state = scanOuter
		return
	}
	if line == "" {
		return
	}
	r.result(line)
}

func (r *Reconciler) unterminated(where string) {
	r.diags.Addf(diag.UnterminatedBlock, r.source, r.block.line,
		"block for %s %s has no %s line before %s", r.block.profileName(), r.block.test, overallMarker, where)
	r.state = scanOuter
}

func (r *Reconciler) openBlock(line string, idx int) {
	h := header{line: r.lineNo}

	if fields := strings.Fields(line); len(fields) >= 2 {
		h.timestamp = fields[0] + " " + fields[1]
		h.time = parseTime(h.timestamp)
	}

	rest := strings.Fields(line[idx+len(headerMarker):])
	if len(rest) == 0 {
		r.diags.Addf(diag.UnknownProfile, r.source, r.lineNo, "header names no profile")
		r.block = h
		r.state = scanInner
		return
	}
	h.test = strings.Join(rest[1:], "")
	p, err := assertion.ParseProfile(rest[0])
	if err != nil {
		r.diags.Addf(diag.UnknownProfile, r.source, r.lineNo, "%v; skipping results of %s", err, h.test)
	} else {
		h.profile, h.known = p, true
	}
	r.block = h
	r.state = scanInner
}

func (r *Reconciler) result(line string) {
	sep := strings.IndexFunc(line, unicode.IsSpace)
	if sep < 0 {
		r.diags.Addf(diag.MalformedResult, r.source, r.lineNo, "cannot split %q into id and result", line)
		return
	}
	id := assertion.Normalize(strings.TrimPrefix(line[:sep], monitorPrefix))
	outcome := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line[sep:]), ";"))
	if id == "" || outcome == "" {
		r.diags.Addf(diag.MalformedResult, r.source, r.lineNo, "cannot split %q into id and result", line)
		return
	}
	if !r.block.known {
		return
	}

	rec := Record{
		Test:      r.block.test,
		Timestamp: r.block.timestamp,
		Time:      r.block.time,
		Result:    outcome,
	}
	p := r.block.profile
	if !r.catalog.Has(p, id) {
		r.diags.Addf(diag.UndeclaredResult, r.source, r.lineNo,
			"%s not declared for %s (test %s), probably a Monitor check", id, p, r.block.test)
		r.results.addUnmatched(Unmatched{Profile: p, ID: id, Record: rec})
		return
	}
	r.results.records[p][id] = rec
}

func (r *Results) addUnmatched(u Unmatched) {
	key := unmatchedKey{u.Profile, u.ID}
	if i, ok := r.unmatchedAt[key]; ok {
		r.unmatched[i] = u
		return
	}
	r.unmatchedAt[key] = len(r.unmatched)
	r.unmatched = append(r.unmatched, u)
}

func (h header) profileName() string {
	if !h.known {
		return "unknown profile"
	}
	return h.profile.String()
}

// parseTime parses a log timestamp such as "2022-05-10 12:00:01,120".
// Timestamps carry no zone and are read as UTC; unparseable ones yield the
// zero time.
func parseTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05,000", s); err == nil {
		return t
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
