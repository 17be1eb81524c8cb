package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"tckreport/internal/diag"
)

// Discovery describes where test sources live.
type Discovery struct {
	// Root is the directory scanned recursively.
	Root string
	// Include globs select test sources, relative to Root.
	Include []string
	// Monitor glob selects the single cross-cutting monitor source.
	Monitor string
	// Denied reports whether a root-relative slash path must not be read.
	Denied func(rel string) bool
}

// DefaultInclude and DefaultMonitor follow the suite's naming convention.
var (
	DefaultInclude = []string{"**/*Test.java"}
	DefaultMonitor = "**/Monitor.java"
)

// Discover returns the sorted paths of every test source plus the monitor
// source. Exactly one monitor is expected; a missing or repeated monitor is
// reported to diags and the first match is used.
func Discover(d Discovery, diags *diag.List) ([]string, error) {
	fsys := os.DirFS(d.Root)

	seen := make(map[string]bool)
	var out []string
	add := func(rel string) {
		if seen[rel] || (d.Denied != nil && d.Denied(rel)) {
			return
		}
		seen[rel] = true
		out = append(out, filepath.Join(d.Root, filepath.FromSlash(rel)))
	}

	for _, pattern := range d.Include {
		matches, err := glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}

	if d.Monitor != "" {
		monitors, err := glob(fsys, d.Monitor)
		if err != nil {
			return nil, err
		}
		var allowed []string
		for _, m := range monitors {
			if d.Denied == nil || !d.Denied(m) {
				allowed = append(allowed, m)
			}
		}
		switch {
		case len(allowed) == 0:
			diags.Addf(diag.NoMonitor, d.Root, 0, "no source matches %q", d.Monitor)
		case len(allowed) > 1:
			diags.Addf(diag.MultipleMonitors, d.Root, 0, "using %s, ignoring %v", allowed[0], allowed[1:])
			fallthrough
		default:
			add(allowed[0])
		}
	}

	sort.Strings(out)
	return out, nil
}

func glob(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
