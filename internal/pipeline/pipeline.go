// Package pipeline runs the stages of one report in their fixed order:
// requirement descriptions, test declarations, then the execution log.
//
// A Run owns all state produced along the way. Nothing is shared between
// runs and nothing outlives the Run value.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tckreport/internal/assertion"
	"tckreport/internal/catalog"
	"tckreport/internal/diag"
	"tckreport/internal/logscan"
	"tckreport/internal/report"
	"tckreport/internal/requirements"
	"tckreport/internal/settings"
)

// Run is the state of one report run.
type Run struct {
	Root     string
	Settings *settings.Settings
	Logger   *zap.Logger

	Descriptions requirements.Descriptions
	Catalog      *catalog.Catalog
	Results      *logscan.Results
	Diagnostics  diag.List
}

// New returns a Run rooted at root. A nil logger discards output.
func New(root string, s *settings.Settings, logger *zap.Logger) *Run {
	if s == nil {
		s = settings.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Run{Root: root, Settings: s, Logger: logger}
}

// LoadDescriptions reads the requirements listing.
func (r *Run) LoadDescriptions() error {
	path := settings.Resolve(r.Root, r.Settings.Requirements)
	r.Logger.Debug("Loading requirements", zap.String("path", path))
	descs, err := requirements.Load(path)
	if err != nil {
		return err
	}
	r.Descriptions = descs
	r.Logger.Debug("Requirements loaded", zap.Int("descriptions", len(descs)))
	return nil
}

// BuildCatalog discovers the test sources and collects their declarations.
func (r *Run) BuildCatalog() error {
	src := r.Settings.Sources
	d := catalog.Discovery{
		Root:    settings.Resolve(r.Root, src.Root),
		Include: src.Include,
		Monitor: src.Monitor,
		Denied:  r.Settings.IsDenied,
	}
	paths, err := catalog.Discover(d, &r.Diagnostics)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}

	routing := catalog.Routing{OrchestrationSuffix: src.OrchestrationSuffix, Root: d.Root}
	b := catalog.NewBuilder(routing, &r.Diagnostics)
	for _, p := range paths {
		r.Logger.Debug("Processing", zap.String("file", p))
		if err := b.AddFile(p); err != nil {
			return err
		}
	}
	r.Catalog = b.Catalog()
	r.Logger.Info("Catalog built",
		zap.Int("files", len(paths)),
		zap.Int("broker", r.Catalog.Len(assertion.Broker)),
		zap.Int("host", r.Catalog.Len(assertion.Host)),
		zap.Int("edge", r.Catalog.Len(assertion.Edge)))
	return nil
}

// ReconcileLog scans the execution log against the catalog.
func (r *Run) ReconcileLog(logPath string) error {
	if r.Catalog == nil {
		return fmt.Errorf("reconcile log: catalog not built")
	}
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("can't open logfile %s: %w", logPath, err)
	}
	defer f.Close()

	r.Logger.Info("Processing logfile", zap.String("path", logPath))
	res, err := logscan.NewReconciler(r.Catalog, filepath.Base(logPath), &r.Diagnostics).Reconcile(f)
	if err != nil {
		return fmt.Errorf("%s: %w", logPath, err)
	}
	r.Results = res
	return nil
}

// Assemble joins the stages into a report.
func (r *Run) Assemble(logPath string) (*report.Report, error) {
	return report.Assemble(report.Input{
		Catalog:      r.Catalog,
		Results:      r.Results,
		Descriptions: r.Descriptions,
		LogFile:      logPath,
	}, &r.Diagnostics)
}

// Execute runs every stage and returns the assembled report. Diagnostics
// collected so far are logged even when a stage fails.
func (r *Run) Execute(logPath string) (*report.Report, error) {
	defer r.Diagnostics.Log(r.Logger)

	if err := r.LoadDescriptions(); err != nil {
		return nil, err
	}
	if err := r.BuildCatalog(); err != nil {
		return nil, err
	}
	if err := r.ReconcileLog(logPath); err != nil {
		return nil, err
	}
	return r.Assemble(logPath)
}
