// Package classify assigns monitor assertions to profiles and derives the
// normative strength and optionality of requirement sentences.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"tckreport/internal/assertion"
)

// Hints are checked in order; edge hints come first so an id mentioning both
// NDATA and HOST is an edge assertion.
var (
	edgeHints = []string{"EDGE", "DEVICE", "NDATA", "DDATA", "DBIRTH", "NBIRTH", "DDEATH", "NDEATH", "RBE"}
	hostHints = []string{"HOST", "STATE"}
)

// optionalMarkers name inherently optional features. MULTPLE is the suite's
// own spelling in some ids.
var optionalMarkers = []string{"MULTIPLE", "MULTPLE", "REORDERING", "TEMPLATE", "PROPERTY", "DATASET", "ALIAS"}

// Scope returns the profiles a cross-cutting assertion belongs to: Edge or
// Host when a hint matches, both when none does.
func Scope(id assertion.ID) assertion.ProfileSet {
	for _, h := range edgeHints {
		if id.Contains(h) {
			return assertion.SetOf(assertion.Edge)
		}
	}
	for _, h := range hostHints {
		if id.Contains(h) {
			return assertion.SetOf(assertion.Host)
		}
	}
	return assertion.SetOf(assertion.Host, assertion.Edge)
}

// Normative is the strength keyword of a requirement.
type Normative string

const (
	Must   Normative = "MUST"
	Should Normative = "SHOULD"
	May    Normative = "MAY"
)

var (
	// ErrUnclassifiable is returned for a description carrying no normative
	// keyword at all. The report cannot assign a type to such a row.
	ErrUnclassifiable = errors.New("description has no normative keyword")
	// ErrNoDescription is returned for a declared id with no requirement text.
	ErrNoDescription = errors.New("assertion has no description")
)

// Type classifies desc by its first keyword in priority order MUST, SHOULD,
// MAY. A lowercase "must" or "can" is accepted as MUST or MAY but reported
// through inconsistent so the caller can flag the authoring slip.
func Type(desc string) (typ Normative, inconsistent bool, err error) {
	switch {
	case strings.Contains(desc, "MUST"):
		return Must, false, nil
	case strings.Contains(desc, "SHOULD"):
		return Should, false, nil
	case strings.Contains(desc, "MAY"):
		return May, false, nil
	case strings.Contains(desc, "must"):
		return Must, true, nil
	case strings.Contains(desc, "can"):
		return May, true, nil
	}
	return "", false, fmt.Errorf("%w: %q", ErrUnclassifiable, desc)
}

// Optional reports whether an assertion is optional: either its id names an
// optional feature or its description has no MUST.
func Optional(id assertion.ID, desc string) bool {
	for _, m := range optionalMarkers {
		if id.Contains(m) {
			return true
		}
	}
	return !strings.Contains(desc, "MUST")
}
