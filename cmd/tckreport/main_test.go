package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const testBase = "src/main/java/org/eclipse/sparkplug/tck/test/"

// writeTCK lays out a minimal checkout with one broker test and a log.
func writeTCK(t *testing.T) (root, logPath string) {
	t.Helper()
	root = t.TempDir()
	files := map[string]string{
		testBase + "common/Requirements.java": `String ID_BROKER_AWARE = "broker-aware";
String BROKER_AWARE = "[tck-id-broker-aware] Aware brokers MUST retain";
String ID_BROKER_QOS = "broker-qos";
String BROKER_QOS = "[tck-id-broker-qos] Brokers SHOULD support QoS 1";`,
		testBase + "broker/AwareTest.java": `List<String> testIds = List.of(ID_BROKER_AWARE, ID_BROKER_QOS);`,
		testBase + "Monitor.java":          `List<String> testIds = List.of();`,
		"tck.log": `2022-05-10 09:00:00,000 INFO Summary Test Results for broker Aware Test
broker-aware: PASS;
OVERALL: PASS;
`,
	}
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root, filepath.Join(root, "tck.log")
}

// resetFlags points the globals at root and restores defaults afterwards.
func resetFlags(t *testing.T, root string) {
	t.Helper()
	logger = zap.NewNop()
	rootDir, outPath, format = root, "", ""
	t.Cleanup(func() { rootDir, outPath, format = ".", "", "" })
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRequireLogfile(t *testing.T) {
	err := requireLogfile(rootCmd, nil)
	if err == nil || err.Error() != "Test result file must be the first argument" {
		t.Fatalf("requireLogfile(nil) = %v", err)
	}
	if err := requireLogfile(rootCmd, []string{"tck.log"}); err != nil {
		t.Errorf("requireLogfile(one) = %v", err)
	}
	if err := requireLogfile(rootCmd, []string{"a", "b"}); err == nil {
		t.Error("expected error for two arguments")
	}
}

func TestRunReportWritesHTML(t *testing.T) {
	root, logPath := writeTCK(t)
	resetFlags(t, root)

	cmd, buf := testCmd()
	if err := runReport(cmd, []string{logPath}); err != nil {
		t.Fatalf("runReport: %v", err)
	}

	want := filepath.Join(root, "summary.html")
	if !strings.Contains(buf.String(), "Results summary written to "+want) {
		t.Errorf("unexpected output: %q", buf.String())
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Assertion count: 2 Number passed: 1 Percent passed: 50%") {
		t.Errorf("broker stats missing from report")
	}
}

func TestRunReportFormatAndOut(t *testing.T) {
	root, logPath := writeTCK(t)
	resetFlags(t, root)
	outPath = filepath.Join(t.TempDir(), "summary.md")
	format = "markdown"

	cmd, _ := testCmd()
	if err := runReport(cmd, []string{logPath}); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("markdown report should start with frontmatter")
	}
}

func TestRunReportUnknownFormat(t *testing.T) {
	root, logPath := writeTCK(t)
	resetFlags(t, root)
	format = "pdf"

	cmd, _ := testCmd()
	if err := runReport(cmd, []string{logPath}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := os.Stat(filepath.Join(root, "summary.html")); !os.IsNotExist(err) {
		t.Error("no report should be written on error")
	}
}

func TestRunReportMissingLog(t *testing.T) {
	root, _ := writeTCK(t)
	resetFlags(t, root)

	cmd, _ := testCmd()
	err := runReport(cmd, []string{filepath.Join(root, "nope.log")})
	if err == nil || !strings.Contains(err.Error(), "can't open logfile") {
		t.Fatalf("expected logfile error, got %v", err)
	}
}

func TestRunCatalog(t *testing.T) {
	root, _ := writeTCK(t)
	resetFlags(t, root)

	cmd, buf := testCmd()
	if err := runCatalog(cmd, nil); err != nil {
		t.Fatalf("runCatalog: %v", err)
	}
	var got map[string][]string
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("catalog output is not YAML: %v\n%s", err, buf.String())
	}
	want := []string{"ID_BROKER_AWARE", "ID_BROKER_QOS"}
	if strings.Join(got["broker"], ",") != strings.Join(want, ",") {
		t.Errorf("broker = %v, want %v", got["broker"], want)
	}
	if len(got["host"]) != 0 || len(got["edge"]) != 0 {
		t.Errorf("host/edge should be empty: %v", got)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"view", "catalog"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
