// Package assertion defines the identifiers and profiles shared by every
// stage of the report: declaration scanning, log reconciliation and report
// assembly all key their data by ID and Profile.
package assertion

import (
	"fmt"
	"sort"
	"strings"
)

// idPrefix is the canonical prefix carried by every normalized ID.
const idPrefix = "ID_"

// ID is a normalized assertion identifier such as ID_TOPICS_NBIRTH_MQTT.
type ID string

// Normalize converts any spelling of an assertion identifier into its
// canonical form. The source constant ("ID_FOO_BAR"), the log spelling
// ("foo-bar"), the bare upper form ("FOO_BAR") and the echo carried by
// requirement sentences ("[tck-id-foo-bar]") all map to ID_FOO_BAR.
//
// Normalize is idempotent. An empty or punctuation-only input yields "".
func Normalize(s string) ID {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "[]\"':;,()")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	s = strings.TrimPrefix(s, "TCK_")
	if !strings.HasPrefix(s, idPrefix) {
		s = idPrefix + s
	}
	return ID(s)
}

// Name returns the identifier without its ID_ prefix. Requirement sentences
// are declared under this name next to the ID constant.
func (id ID) Name() string {
	return strings.TrimPrefix(string(id), idPrefix)
}

func (id ID) String() string { return string(id) }

// Contains reports whether the identifier contains substr.
func (id ID) Contains(substr string) bool {
	return strings.Contains(string(id), substr)
}

// Set is an unordered collection of IDs.
type Set map[ID]struct{}

// NewSet returns a Set holding ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id ID) { s[id] = struct{}{} }

func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of other to s.
func (s Set) Union(other Set) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Sorted returns the members in lexicographic order.
func (s Set) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// Profile is one of the three roles under test.
type Profile int

const (
	Broker Profile = iota
	Host
	Edge
)

// Profiles lists every profile in report order.
var Profiles = []Profile{Broker, Host, Edge}

func (p Profile) String() string {
	switch p {
	case Broker:
		return "Broker"
	case Host:
		return "Host"
	case Edge:
		return "Edge"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// MarshalText lets profiles serve as YAML map keys.
func (p Profile) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(p.String())), nil
}

// ParseProfile matches a profile name case-insensitively.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "broker":
		return Broker, nil
	case "host":
		return Host, nil
	case "edge":
		return Edge, nil
	}
	return 0, fmt.Errorf("unknown profile %q", s)
}

// ProfileSet is the set of profiles an assertion belongs to. Monitor
// assertions that cannot be classified belong to both Host and Edge.
type ProfileSet uint8

// SetOf returns a ProfileSet containing ps.
func SetOf(ps ...Profile) ProfileSet {
	var s ProfileSet
	for _, p := range ps {
		s |= 1 << uint(p)
	}
	return s
}

func (s ProfileSet) Has(p Profile) bool { return s&(1<<uint(p)) != 0 }

// Members returns the profiles in report order.
func (s ProfileSet) Members() []Profile {
	var out []Profile
	for _, p := range Profiles {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s ProfileSet) String() string {
	names := make([]string, 0, 3)
	for _, p := range s.Members() {
		names = append(names, p.String())
	}
	return strings.Join(names, "+")
}
