package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"tckreport/internal/pipeline"
	"tckreport/internal/report"
	"tckreport/internal/settings"
	"tckreport/internal/tui"
)

var (
	// Global flags
	rootDir string
	verbose bool
	outPath string
	format  string

	logger *zap.Logger
)

var errNoLogfile = errors.New("Test result file must be the first argument")

// requireLogfile rejects a command line without the log argument.
func requireLogfile(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return errNoLogfile
	}
	return cobra.MaximumNArgs(1)(cmd, args)
}

var rootCmd = &cobra.Command{
	Use:   "tckreport <logfile>",
	Short: "Sparkplug TCK compliance summary",
	Long: `Summarise a Sparkplug TCK execution log against the assertions the
suite declares.

Reads the requirements listing and every test source under --root, scans the
log for result blocks, and writes one table per profile (Broker, Host, Edge)
with pass counts and percentages.

Configuration is read from <root>/.tckreport/settings.yaml when present.`,
	Args:          requireLogfile,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runReport,
}

var viewCmd = &cobra.Command{
	Use:   "view <logfile>",
	Short: "Browse the summary interactively",
	Long: `Build the same summary as the root command and show it in the terminal.

Keys: tab / shift+tab switch profile, arrows move, q quits.`,
	Args: requireLogfile,
	RunE: runView,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the declared assertion ids per profile as YAML",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "TCK checkout to read sources from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default from settings, summary.html)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", fmt.Sprintf("Output format %v (default from settings, html)", report.Formats()))

	rootCmd.AddCommand(viewCmd, catalogCmd)
}

// loadSettings reads the settings under rootDir and applies flag overrides.
func loadSettings() (*settings.Settings, error) {
	s, err := settings.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if format != "" {
		s.Format = format
	}
	return s, nil
}

// buildReport runs every stage against logPath.
func buildReport(logPath string) (*report.Report, *settings.Settings, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	run := pipeline.New(rootDir, s, logger)
	rep, err := run.Execute(logPath)
	if err != nil {
		return nil, nil, err
	}
	return rep, s, nil
}

// ---------------------------------------------------------------------------
// report
// ---------------------------------------------------------------------------

func runReport(cmd *cobra.Command, args []string) error {
	rep, s, err := buildReport(args[0])
	if err != nil {
		return err
	}
	r, err := report.Lookup(s.Format)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = settings.Resolve(rootDir, s.Output)
	}
	if err := report.Write(rep, r, path); err != nil {
		return err
	}
	logger.Debug("Report written", zap.String("format", r.Name()), zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Results summary written to %s\n", path)
	return nil
}

// ---------------------------------------------------------------------------
// view
// ---------------------------------------------------------------------------

func runView(cmd *cobra.Command, args []string) error {
	rep, _, err := buildReport(args[0])
	if err != nil {
		return err
	}
	return tui.Run(rep)
}

// ---------------------------------------------------------------------------
// catalog
// ---------------------------------------------------------------------------

func runCatalog(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	run := pipeline.New(rootDir, s, logger)
	err = run.BuildCatalog()
	run.Diagnostics.Log(run.Logger)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(run.Catalog.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
