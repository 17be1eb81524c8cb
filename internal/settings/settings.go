// Package settings loads tckreport configuration from .tckreport/settings.yaml.
//
// Every path the report needs has a default matching the Sparkplug TCK
// layout, so the file is optional. A deny list of glob patterns keeps
// generated or copied sources (build output, IDE caches) out of discovery.
// Patterns may be bare globs ("build/**") or wrapped in a Read() verb
// ("Read(./build/**)").
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Settings holds tckreport configuration.
type Settings struct {
	// Requirements is the requirements listing, relative to the root.
	Requirements string      `yaml:"requirements"`
	Sources      Sources     `yaml:"sources"`
	Output       string      `yaml:"output"`
	Format       string      `yaml:"format"`
	Permissions  Permissions `yaml:"permissions"`
}

// Sources says where test declarations are discovered.
type Sources struct {
	Root                string   `yaml:"root"`
	Include             []string `yaml:"include"`
	Monitor             string   `yaml:"monitor"`
	OrchestrationSuffix string   `yaml:"orchestration_suffix"`
}

// Permissions controls which files tckreport reads.
type Permissions struct {
	// Deny is a list of glob patterns for sources that must not be read.
	// Example: ["Read(./build/**)"]
	Deny []string `yaml:"deny"`
}

// Defaults returns the settings used when no file overrides them.
func Defaults() *Settings {
	return &Settings{
		Requirements: "src/main/java/org/eclipse/sparkplug/tck/test/common/Requirements.java",
		Sources: Sources{
			Root:                ".",
			Include:             []string{"**/*Test.java"},
			Monitor:             "**/Monitor.java",
			OrchestrationSuffix: "TCKTest.java",
		},
		Output: "summary.html",
		Format: "html",
	}
}

// Path returns the settings file location under root.
func Path(root string) string {
	return filepath.Join(root, ".tckreport", "settings.yaml")
}

// Load reads .tckreport/settings.yaml relative to root and fills unset
// fields from Defaults. A missing file is not an error.
func Load(root string) (*Settings, error) {
	s := Defaults()
	path := Path(root)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	s.merge(file)
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// merge copies every non-empty field of o over s.
func (s *Settings) merge(o Settings) {
	if o.Requirements != "" {
		s.Requirements = o.Requirements
	}
	if o.Sources.Root != "" {
		s.Sources.Root = o.Sources.Root
	}
	if len(o.Sources.Include) > 0 {
		s.Sources.Include = o.Sources.Include
	}
	if o.Sources.Monitor != "" {
		s.Sources.Monitor = o.Sources.Monitor
	}
	if o.Sources.OrchestrationSuffix != "" {
		s.Sources.OrchestrationSuffix = o.Sources.OrchestrationSuffix
	}
	if o.Output != "" {
		s.Output = o.Output
	}
	if o.Format != "" {
		s.Format = o.Format
	}
	s.Permissions.Deny = append(s.Permissions.Deny, o.Permissions.Deny...)
}

func (s *Settings) validate() error {
	patterns := append([]string{s.Sources.Monitor}, s.Sources.Include...)
	for _, rule := range s.Permissions.Deny {
		patterns = append(patterns, parseDenyRule(rule))
	}
	for _, p := range patterns {
		if p != "" && !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	return nil
}

// Resolve returns p joined to root unless p is already absolute.
func Resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// IsDenied reports whether relPath (forward-slash, relative to the sources
// root) matches any deny rule. Safe to call on a nil *Settings receiver.
func (s *Settings) IsDenied(relPath string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Permissions.Deny {
		if matchDenyPattern(parseDenyRule(rule), relPath) {
			return true
		}
	}
	return false
}

// parseDenyRule extracts the path glob from a deny rule.
//
//	"Read(./build/**)" → "build/**"
//	"build/**"         → "build/**"
func parseDenyRule(rule string) string {
	if strings.HasPrefix(rule, "Read(") && strings.HasSuffix(rule, ")") {
		rule = rule[5 : len(rule)-1]
	}
	return strings.TrimPrefix(rule, "./")
}

// matchDenyPattern reports whether path matches a deny glob. "prefix/**"
// also matches the prefix directory itself.
func matchDenyPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/**") && path == strings.TrimSuffix(pattern, "/**") {
		return true
	}
	ok, _ := doublestar.Match(pattern, path)
	return ok
}
