package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Renderer turns a Report into a file body.
type Renderer interface {
	// Name is the format name used on the command line (e.g. "html").
	Name() string
	Render(rep *Report) ([]byte, error)
}

// renderers is the registry of available output formats.
var renderers = map[string]Renderer{
	"html":     htmlRenderer{},
	"markdown": markdownRenderer{},
	"yaml":     yamlRenderer{},
}

// Lookup returns the renderer for format.
func Lookup(format string) (Renderer, error) {
	r, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (have %v)", format, Formats())
	}
	return r, nil
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for n := range renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Write renders rep and writes it to path. Nothing is written when
// rendering fails. The file is replaced through a temporary sibling so a
// reader never sees a half-written report.
func Write(rep *Report, r Renderer, path string) error {
	body, err := r.Render(rep)
	if err != nil {
		return fmt.Errorf("render %s: %w", r.Name(), err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tckreport-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
