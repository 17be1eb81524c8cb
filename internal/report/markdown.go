package report

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"tckreport/internal/assertion"
)

// markdownRenderer writes one document with YAML frontmatter carrying the
// per-profile stats, followed by a table per profile.
type markdownRenderer struct{}

func (markdownRenderer) Name() string { return "markdown" }

// summaryMeta is the frontmatter block.
type summaryMeta struct {
	Tags        []string                    `yaml:"tags"`
	RunID       string                      `yaml:"run_id"`
	GeneratedAt string                      `yaml:"generated_at"`
	LogFile     string                      `yaml:"log_file,omitempty"`
	Stats       map[assertion.Profile]Stats `yaml:"stats"`
}

func (markdownRenderer) Render(rep *Report) ([]byte, error) {
	meta := summaryMeta{
		Tags:        []string{"sparkplug/tck", "tck/summary"},
		RunID:       rep.RunID,
		GeneratedAt: rep.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		LogFile:     rep.LogFile,
		Stats:       make(map[assertion.Profile]Stats, len(rep.Profiles)),
	}
	for _, pr := range rep.Profiles {
		meta.Stats[pr.Profile] = pr.Stats
	}

	var body strings.Builder
	body.WriteString("# Sparkplug TCK Results\n")
	for _, pr := range rep.Profiles {
		writeProfileSection(&body, pr)
	}
	return withFrontmatter(meta, body.String())
}

func writeProfileSection(b *strings.Builder, pr ProfileReport) {
	b.WriteString(fmt.Sprintf("\n## %s\n\n", pr.Profile))
	b.WriteString(fmt.Sprintf("Assertion count: %d Number passed: %d Percent passed: %d%%\n\n",
		pr.Stats.Count, pr.Stats.Passed, pr.Stats.Percent))
	b.WriteString("| Assertion ID | Assertion Type | Test | Time | Result |\n")
	b.WriteString("|--------------|----------------|------|------|--------|\n")
	for _, r := range pr.Rows {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			r.ID, r.TypeLabel(), cell(r.Test), cell(r.Time), cell(r.Result)))
	}

	if len(pr.Unmatched) > 0 {
		b.WriteString("\n### Not declared for this profile\n\n")
		for _, u := range pr.Unmatched {
			b.WriteString(fmt.Sprintf("- `%s` %s (%s, %s)\n", u.ID, cell(u.Result), u.Test, u.Timestamp))
		}
	}
}

// cell escapes pipes so free-text results cannot break the table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// withFrontmatter marshals meta as YAML between --- delimiters and appends
// body.
func withFrontmatter(meta any, body string) ([]byte, error) {
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
