package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(sprig.FuncMap()).
		Funcs(template.FuncMap{"rowClass": rowClass}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// htmlRenderer writes the summary page: one table per profile, each
// preceded by its count line.
type htmlRenderer struct{}

func (htmlRenderer) Name() string { return "html" }

func (htmlRenderer) Render(rep *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, rep); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// rowClass styles the result cell.
func rowClass(r Row) string {
	switch {
	case !r.Exercised:
		return "none"
	case r.Passed():
		return "pass"
	default:
		return "fail"
	}
}
