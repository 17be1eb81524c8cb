// Package report joins the catalog, the reconciled log results and the
// requirement descriptions into per-profile tables and renders them.
//
// Assembly is pure: Assemble builds an immutable *Report and writes nothing.
// Renderers turn a Report into bytes; Write puts those bytes on disk only
// after rendering succeeded, so a failed run leaves no artifact behind.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tckreport/internal/assertion"
	"tckreport/internal/catalog"
	"tckreport/internal/classify"
	"tckreport/internal/diag"
	"tckreport/internal/logscan"
	"tckreport/internal/requirements"
)

// Report is the reconciled view of one run.
type Report struct {
	RunID       string          `yaml:"run_id"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	LogFile     string          `yaml:"log_file"`
	FirstRun    time.Time       `yaml:"first_run,omitempty"`
	LastRun     time.Time       `yaml:"last_run,omitempty"`
	Profiles    []ProfileReport `yaml:"profiles"`
}

// ProfileReport is the table for one profile.
type ProfileReport struct {
	Profile   assertion.Profile   `yaml:"profile"`
	Stats     Stats               `yaml:"stats"`
	Rows      []Row               `yaml:"rows"`
	Unmatched []logscan.Unmatched `yaml:"unmatched,omitempty"`
}

// Stats summarizes one profile.
type Stats struct {
	Count   int `yaml:"count"`
	Passed  int `yaml:"passed"`
	Percent int `yaml:"percent"`
}

// Row is one declared assertion with its latest result, if any.
type Row struct {
	ID          assertion.ID       `yaml:"id"`
	Type        classify.Normative `yaml:"type"`
	Optional    bool               `yaml:"optional"`
	Description string             `yaml:"description"`
	Exercised   bool               `yaml:"exercised"`
	Test        string             `yaml:"test,omitempty"`
	Time        string             `yaml:"time,omitempty"`
	Result      string             `yaml:"result,omitempty"`
}

// TypeLabel is the type column: "MUST", "SHOULD optional", ...
func (r Row) TypeLabel() string {
	if r.Optional {
		return string(r.Type) + " optional"
	}
	return string(r.Type)
}

// Passed reports whether the row's latest result is PASS.
func (r Row) Passed() bool { return r.Result == logscan.Pass }

// Input gathers everything Assemble joins.
type Input struct {
	Catalog      *catalog.Catalog
	Results      *logscan.Results
	Descriptions requirements.Descriptions
	LogFile      string
	// Now stamps the report; zero means time.Now.
	Now time.Time
}

// Assemble builds the report. Descriptions using a lowercase keyword are
// reported to diags once per id. A declared id with no description, or
// with a description carrying no normative keyword, is fatal.
func Assemble(in Input, diags *diag.List) (*Report, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	rep := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: now,
		LogFile:     in.LogFile,
	}

	flagged := make(map[assertion.ID]bool)
	for _, p := range assertion.Profiles {
		pr := ProfileReport{Profile: p}
		for _, id := range in.Catalog.IDs(p) {
			row, err := buildRow(id, in.Descriptions, diags, flagged)
			if err != nil {
				return nil, err
			}
			if rec, ok := in.Results.Lookup(p, id); ok {
				row.Exercised = true
				row.Test = rec.Test
				row.Time = rec.Timestamp
				row.Result = rec.Result
				rep.observe(rec.Time)
			}
			pr.Rows = append(pr.Rows, row)
		}
		for _, u := range in.Results.Unmatched() {
			if u.Profile == p {
				pr.Unmatched = append(pr.Unmatched, u)
			}
		}
		pr.Stats = computeStats(pr.Rows)
		rep.Profiles = append(rep.Profiles, pr)
	}
	return rep, nil
}

func buildRow(id assertion.ID, descs requirements.Descriptions, diags *diag.List, flagged map[assertion.ID]bool) (Row, error) {
	desc, ok := descs.Lookup(id)
	if !ok {
		return Row{}, fmt.Errorf("%s: %w", id, classify.ErrNoDescription)
	}
	typ, inconsistent, err := classify.Type(desc)
	if err != nil {
		return Row{}, fmt.Errorf("%s: %w", id, err)
	}
	if inconsistent && !flagged[id] {
		flagged[id] = true
		diags.Addf(diag.LowercaseKeyword, "", 0, "Error %s: no uppercase keyword in %q, using %s", id, desc, typ)
	}
	return Row{
		ID:          id,
		Type:        typ,
		Optional:    classify.Optional(id, desc),
		Description: desc,
	}, nil
}

// observe widens the run window to include t.
func (r *Report) observe(t time.Time) {
	if t.IsZero() {
		return
	}
	if r.FirstRun.IsZero() || t.Before(r.FirstRun) {
		r.FirstRun = t
	}
	if t.After(r.LastRun) {
		r.LastRun = t
	}
}

// computeStats counts rows and passes. Percent is floored; an empty
// profile reports 0.
func computeStats(rows []Row) Stats {
	s := Stats{Count: len(rows)}
	for _, r := range rows {
		if r.Passed() {
			s.Passed++
		}
	}
	if s.Count > 0 {
		s.Percent = s.Passed * 100 / s.Count
	}
	return s
}

// Profile returns the table for p.
func (r *Report) Profile(p assertion.Profile) *ProfileReport {
	for i := range r.Profiles {
		if r.Profiles[i].Profile == p {
			return &r.Profiles[i]
		}
	}
	return nil
}
