package report

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlRenderer dumps the whole report for other tools.
type yamlRenderer struct{}

func (yamlRenderer) Name() string { return "yaml" }

func (yamlRenderer) Render(rep *Report) ([]byte, error) {
	out, err := yaml.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return out, nil
}
