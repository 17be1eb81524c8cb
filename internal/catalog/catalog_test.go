package catalog_test

// catalog_test.go: declaration parsing, routing and catalog union.
//
// Properties covered:
//   - multi-line lists accumulate until ");" and nothing after it counts
//   - duplicate ids are reported once each and stored once
//   - union is commutative and idempotent across files
//   - monitor ids are classified into Host, Edge or both

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tckreport/internal/assertion"
	"tckreport/internal/catalog"
	"tckreport/internal/diag"
)

// ---------------------------------------------------------------------------
// ParseDeclarations
// ---------------------------------------------------------------------------

func TestParseDeclarationsMultiline(t *testing.T) {
	src := `public class SendDataTest extends TCKTest {
	private final @NotNull List<String> testIds = List.of(ID_TOPICS_NDATA_MQTT, ID_TOPICS_NDATA_SEQ_NUM,
			ID_PAYLOADS_NDATA_TIMESTAMP, // timestamps
			ID_PAYLOADS_NDATA_SEQ_INC);
	private final List<String> other = List.of(ID_NOT_COUNTED);
}
`
	var diags diag.List
	decl, err := catalog.ParseDeclarations(strings.NewReader(src), "SendDataTest.java", &diags)
	require.NoError(t, err)
	require.True(t, decl.Found)

	want := []assertion.ID{
		"ID_PAYLOADS_NDATA_SEQ_INC",
		"ID_PAYLOADS_NDATA_TIMESTAMP",
		"ID_TOPICS_NDATA_MQTT",
		"ID_TOPICS_NDATA_SEQ_NUM",
	}
	if diff := cmp.Diff(want, decl.IDs.Sorted()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, diags.Len())
}

func TestParseDeclarationsSingleLine(t *testing.T) {
	src := `List<String> testIds = Arrays.asList(Requirements.ID_A, ID_B);
List<String> later = List.of(ID_C);`
	var diags diag.List
	decl, err := catalog.ParseDeclarations(strings.NewReader(src), "x", &diags)
	require.NoError(t, err)
	assert.Equal(t, []assertion.ID{"ID_A", "ID_B"}, decl.IDs.Sorted())
}

func TestParseDeclarationsOpenerOnNextLine(t *testing.T) {
	src := `List<String> testIds =
		List.of(
			ID_A,
			ID_B
		);`
	var diags diag.List
	decl, err := catalog.ParseDeclarations(strings.NewReader(src), "x", &diags)
	require.NoError(t, err)
	assert.Equal(t, []assertion.ID{"ID_A", "ID_B"}, decl.IDs.Sorted())
}

func TestParseDeclarationsDuplicates(t *testing.T) {
	src := `List<String> testIds = List.of(ID_A, ID_B,
	ID_A, ID_A, ID_C, ID_B);`
	var diags diag.List
	decl, err := catalog.ParseDeclarations(strings.NewReader(src), "DupTest.java", &diags)
	require.NoError(t, err)
	assert.Equal(t, 3, len(decl.IDs))
	assert.Equal(t, 2, diags.Count(diag.Duplicate))
	for _, d := range diags.Items() {
		assert.Equal(t, "DupTest.java", d.Source)
	}
}

func TestParseDeclarationsMissingMarker(t *testing.T) {
	var diags diag.List
	decl, err := catalog.ParseDeclarations(strings.NewReader("class Empty {}\n"), "x", &diags)
	require.NoError(t, err)
	assert.False(t, decl.Found)
	assert.Empty(t, decl.IDs)
}

// ---------------------------------------------------------------------------
// Routing
// ---------------------------------------------------------------------------

func TestRoute(t *testing.T) {
	r := catalog.DefaultRouting
	tests := []struct {
		path string
		want catalog.Role
	}{
		{"src/main/java/org/eclipse/sparkplug/tck/test/broker/AwareBrokerTest.java", catalog.BrokerSource},
		{"src/main/java/org/eclipse/sparkplug/tck/test/host/SessionEstablishmentTest.java", catalog.HostSource},
		{"src/main/java/org/eclipse/sparkplug/tck/test/edge/SendDataTest.java", catalog.EdgeSource},
		{"src/main/java/org/eclipse/sparkplug/tck/test/Monitor.java", catalog.MonitorSource},
		{"src/main/java/org/eclipse/sparkplug/tck/test/SparkplugTCKTest.java", catalog.Skip},
		{"src/main/java/org/eclipse/sparkplug/tck/test/edge/EdgeTCKTest.java", catalog.Skip},
		{"src/main/java/org/eclipse/sparkplug/tck/utility/HelperTest.java", catalog.Skip},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, r.Route(tc.path), tc.path)
	}
}

// Directories above the discovery root must not influence routing, even
// when they look like profile directories.
func TestRouteIgnoresRootPrefix(t *testing.T) {
	root := filepath.Join(t.TempDir(), "test", "host", "ci", "tck")
	r := catalog.Routing{OrchestrationSuffix: "TCKTest.java", Root: root}
	tests := []struct {
		rel  string
		want catalog.Role
	}{
		{"src/test/broker/AwareTest.java", catalog.BrokerSource},
		{"src/test/edge/SendDataTest.java", catalog.EdgeSource},
		{"src/test/Monitor.java", catalog.MonitorSource},
		{"src/utility/HelperTest.java", catalog.Skip},
	}
	for _, tc := range tests {
		path := filepath.Join(root, filepath.FromSlash(tc.rel))
		assert.Equal(t, tc.want, r.Route(path), tc.rel)
	}
}

func TestRouteWholeSegments(t *testing.T) {
	r := catalog.DefaultRouting
	assert.Equal(t, catalog.Skip, r.Route("ci/test/hosted/tck/utility/HelperTest.java"))
	assert.Equal(t, catalog.EdgeSource, r.Route("test/hosted/tck/test/edge/SendDataTest.java"))
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

func TestBuilderMonitorClassification(t *testing.T) {
	var diags diag.List
	b := catalog.NewBuilder(catalog.DefaultRouting, &diags)
	b.Add(catalog.MonitorSource, assertion.NewSet(
		"ID_TOPICS_NBIRTH_SEQ_NUM", // edge
		"ID_HOST_STATE_RETAINED",   // host
		"ID_PAYLOADS_SEQUENCE_NUM", // both
	))
	c := b.Catalog()

	assert.Equal(t, assertion.SetOf(assertion.Edge), c.Profiles("ID_TOPICS_NBIRTH_SEQ_NUM"))
	assert.Equal(t, assertion.SetOf(assertion.Host), c.Profiles("ID_HOST_STATE_RETAINED"))
	assert.Equal(t, assertion.SetOf(assertion.Host, assertion.Edge), c.Profiles("ID_PAYLOADS_SEQUENCE_NUM"))
	assert.Equal(t, 0, c.Len(assertion.Broker))
}

func TestCatalogUnionCommutativeAndIdempotent(t *testing.T) {
	type contribution struct {
		role catalog.Role
		ids  assertion.Set
	}
	contribs := []contribution{
		{catalog.BrokerSource, assertion.NewSet("ID_A", "ID_B")},
		{catalog.BrokerSource, assertion.NewSet("ID_B", "ID_C")},
		{catalog.HostSource, assertion.NewSet("ID_HOST_X")},
		{catalog.MonitorSource, assertion.NewSet("ID_PAYLOADS_Y", "ID_NDATA_Z")},
	}

	build := func(order []int, repeat bool) map[assertion.Profile][]assertion.ID {
		var diags diag.List
		b := catalog.NewBuilder(catalog.DefaultRouting, &diags)
		for _, i := range order {
			b.Add(contribs[i].role, contribs[i].ids)
			if repeat {
				b.Add(contribs[i].role, contribs[i].ids)
			}
		}
		return b.Catalog().Snapshot()
	}

	forward := build([]int{0, 1, 2, 3}, false)
	reverse := build([]int{3, 2, 1, 0}, false)
	twice := build([]int{1, 3, 0, 2}, true)

	if diff := cmp.Diff(forward, reverse); diff != "" {
		t.Errorf("order changed catalog (-forward +reverse):\n%s", diff)
	}
	if diff := cmp.Diff(forward, twice); diff != "" {
		t.Errorf("repeat changed catalog (-once +twice):\n%s", diff)
	}
	assert.Equal(t, []assertion.ID{"ID_A", "ID_B", "ID_C"}, forward[assertion.Broker])
	assert.Equal(t, []assertion.ID{"ID_HOST_X", "ID_PAYLOADS_Y"}, forward[assertion.Host])
	assert.Equal(t, []assertion.ID{"ID_NDATA_Z", "ID_PAYLOADS_Y"}, forward[assertion.Edge])
}

// writeTree creates files under root from a path → content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
}

func TestBuilderAddFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"tck/test/broker/AwareTest.java": "List<String> testIds = List.of(ID_BROKER_A);",
		"tck/test/edge/SendTest.java":    "List<String> testIds = List.of(ID_EDGE_B,\n ID_EDGE_B);",
		"tck/test/edge/EdgeTCKTest.java": "List<String> testIds = List.of(ID_IGNORED);",
		"tck/test/host/NoListTest.java":  "class NoListTest {}",
	})

	paths := []string{
		filepath.Join(root, "tck/test/edge/SendTest.java"),
		filepath.Join(root, "tck/test/broker/AwareTest.java"),
		filepath.Join(root, "tck/test/edge/EdgeTCKTest.java"),
		filepath.Join(root, "tck/test/host/NoListTest.java"),
	}

	var diags diag.List
	b := catalog.NewBuilder(catalog.DefaultRouting, &diags)
	require.NoError(t, b.AddFiles(paths))
	c := b.Catalog()

	assert.Equal(t, []assertion.ID{"ID_BROKER_A"}, c.IDs(assertion.Broker))
	assert.Equal(t, []assertion.ID{"ID_EDGE_B"}, c.IDs(assertion.Edge))
	assert.Empty(t, c.IDs(assertion.Host))
	assert.Equal(t, 1, diags.Count(diag.Duplicate))
	assert.Equal(t, 1, diags.Count(diag.NoDeclaration))
}

func TestBuilderAddFileMissing(t *testing.T) {
	var diags diag.List
	b := catalog.NewBuilder(catalog.DefaultRouting, &diags)
	err := b.AddFile(filepath.Join(t.TempDir(), "test/edge/GoneTest.java"))
	require.Error(t, err)
}
