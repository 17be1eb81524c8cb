// Package catalog recovers, per profile, the assertion ids that the suite's
// tests declare they cover.
//
// Each test source carries a list such as
//
//	List<String> testIds = List.of(ID_TOPICS_NBIRTH_MQTT,
//			ID_PAYLOADS_SEQ);
//
// Files are routed to a profile by their path (test/broker, test/host,
// test/edge). The monitor source is cross-cutting: its ids are classified and
// may land in Host, Edge or both.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tckreport/internal/assertion"
	"tckreport/internal/classify"
	"tckreport/internal/diag"
)

// Catalog holds the declared ids for each profile. Contributions are set
// unions, so the result does not depend on the order files are added.
type Catalog struct {
	ids map[assertion.Profile]assertion.Set
}

// New returns an empty catalog.
func New() *Catalog {
	c := &Catalog{ids: make(map[assertion.Profile]assertion.Set, len(assertion.Profiles))}
	for _, p := range assertion.Profiles {
		c.ids[p] = assertion.NewSet()
	}
	return c
}

// Add unions ids into every profile in profiles.
func (c *Catalog) Add(profiles assertion.ProfileSet, ids assertion.Set) {
	for _, p := range profiles.Members() {
		c.ids[p].Union(ids)
	}
}

// Has reports whether id is declared for p.
func (c *Catalog) Has(p assertion.Profile, id assertion.ID) bool {
	return c.ids[p].Has(id)
}

// Len returns the number of ids declared for p.
func (c *Catalog) Len(p assertion.Profile) int { return len(c.ids[p]) }

// IDs returns the ids declared for p in lexicographic order.
func (c *Catalog) IDs(p assertion.Profile) []assertion.ID {
	return c.ids[p].Sorted()
}

// Profiles returns, for id, every profile that declares it.
func (c *Catalog) Profiles(id assertion.ID) assertion.ProfileSet {
	var s assertion.ProfileSet
	for _, p := range assertion.Profiles {
		if c.ids[p].Has(id) {
			s |= assertion.SetOf(p)
		}
	}
	return s
}

// Snapshot returns the catalog as sorted id lists keyed by profile, for
// serialization.
func (c *Catalog) Snapshot() map[assertion.Profile][]assertion.ID {
	out := make(map[assertion.Profile][]assertion.ID, len(c.ids))
	for _, p := range assertion.Profiles {
		out[p] = c.IDs(p)
	}
	return out
}

// ---------------------------------------------------------------------------
// Routing
// ---------------------------------------------------------------------------

// Role says how a source file contributes to the catalog.
type Role int

const (
	Skip Role = iota
	BrokerSource
	HostSource
	EdgeSource
	MonitorSource
)

// Routing holds the path conventions used to route sources.
type Routing struct {
	// OrchestrationSuffix marks files that only compose other tests.
	OrchestrationSuffix string
	// Root is the discovery root. Paths below it are routed on their
	// root-relative part only; directories above the checkout never count.
	Root string
}

// DefaultRouting matches the layout of the Sparkplug TCK.
var DefaultRouting = Routing{OrchestrationSuffix: "TCKTest.java"}

// Route classifies path by its segments. Profile directories must match
// whole segments: test/hosted does not route to Host.
func (r Routing) Route(path string) Role {
	path = filepath.ToSlash(r.relative(path))
	if r.OrchestrationSuffix != "" && strings.HasSuffix(path, r.OrchestrationSuffix) {
		return Skip
	}
	path = "/" + path
	switch {
	case strings.Contains(path, "/test/broker/"):
		return BrokerSource
	case strings.Contains(path, "/test/host/"):
		return HostSource
	case strings.Contains(path, "/test/edge/"):
		return EdgeSource
	case strings.Contains(path, "/test/Monitor"):
		return MonitorSource
	}
	return Skip
}

// relative strips Root from path. Paths outside Root are left as they are.
func (r Routing) relative(path string) string {
	if r.Root == "" || !filepath.IsAbs(path) {
		return path
	}
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// ---------------------------------------------------------------------------
// Building
// ---------------------------------------------------------------------------

// Builder accumulates declarations from source files into a Catalog.
type Builder struct {
	routing Routing
	catalog *Catalog
	diags   *diag.List
}

// NewBuilder returns a Builder that reports problems to diags.
func NewBuilder(routing Routing, diags *diag.List) *Builder {
	return &Builder{routing: routing, catalog: New(), diags: diags}
}

// AddFile scans the source at path and adds its ids to the catalog. Files
// that route to no profile are ignored.
func (b *Builder) AddFile(path string) error {
	role := b.routing.Route(path)
	if role == Skip {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	decl, err := ParseDeclarations(f, path, b.diags)
	if err != nil {
		return err
	}
	if !decl.Found {
		b.diags.Addf(diag.NoDeclaration, path, 0, "no %q declaration", listMarker)
		return nil
	}
	b.Add(role, decl.IDs)
	return nil
}

// Add routes ids according to role.
func (b *Builder) Add(role Role, ids assertion.Set) {
	switch role {
	case BrokerSource:
		b.catalog.Add(assertion.SetOf(assertion.Broker), ids)
	case HostSource:
		b.catalog.Add(assertion.SetOf(assertion.Host), ids)
	case EdgeSource:
		b.catalog.Add(assertion.SetOf(assertion.Edge), ids)
	case MonitorSource:
		// Classify one id at a time; ambiguous ids join both Host and Edge.
		for _, id := range ids.Sorted() {
			b.catalog.Add(classify.Scope(id), assertion.NewSet(id))
		}
	}
}

// AddFiles adds every path in lexicographic order.
func (b *Builder) AddFiles(paths []string) error {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	for _, p := range sorted {
		if err := b.AddFile(p); err != nil {
			return err
		}
	}
	return nil
}

// Catalog returns the catalog built so far.
func (b *Builder) Catalog() *Catalog { return b.catalog }
