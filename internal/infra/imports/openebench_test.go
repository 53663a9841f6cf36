package imports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func metricsServer(t *testing.T, metrics func(base string) []map[string]any) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(metrics(server.URL + "/"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenEBench_GroupsByToolAndSkipsUnknownDirs(t *testing.T) {
	server := metricsServer(t, func(base string) []map[string]any {
		return []map[string]any{
			{"@id": base + "biotools:trimal/agent", "project": map[string]any{"build": 1.0}},
			{"@id": base + "biotools:trimal", "project": map[string]any{"build": 2.0}},
			{"@id": base + "ghost", "project": map[string]any{}},
		}
	})

	dataDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "trimal"), 0o755))

	stats, err := NewOpenEBench(server.URL, zap.NewNop()).Run(context.Background(), dataDir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesAdded)
	assert.Equal(t, 2, stats.ObjectsAdded)

	data, err := os.ReadFile(filepath.Join(dataDir, "trimal", "trimal.oeb.metrics.json"))
	require.NoError(t, err)
	var written []map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Len(t, written, 2)

	// No file for the tool missing from the content tree.
	_, err = os.Stat(filepath.Join(dataDir, "ghost", "ghost.oeb.metrics.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenEBench_DiffAgainstPreviousSnapshot(t *testing.T) {
	server := metricsServer(t, func(base string) []map[string]any {
		return []map[string]any{
			{
				"@id":        base + "biotools:trimal",
				"@timestamp": "2026-08-23T00:00:00Z",
				"project": map[string]any{
					"build": map[string]any{"passed": true},
				},
			},
		}
	})

	dataDir := t.TempDir()
	toolDir := filepath.Join(dataDir, "trimal")
	require.NoError(t, os.MkdirAll(toolDir, 0o755))

	importer := NewOpenEBench(server.URL, zap.NewNop())

	// First run seeds the snapshot.
	stats, err := importer.Run(context.Background(), dataDir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesAdded)
	assert.Equal(t, 1, stats.ObjectsAdded)

	// Second run against an edited snapshot: one real change, plus a
	// volatile timestamp that must not count, plus a removed object.
	previous := []map[string]any{
		{
			"@id":        importer.endpoint + "biotools:trimal",
			"@timestamp": "2020-01-01T00:00:00Z",
			"project": map[string]any{
				"build": map[string]any{"passed": false},
			},
		},
		{"@id": importer.endpoint + "biotools:removed"},
	}
	data, err := json.Marshal(previous)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(toolDir, "trimal.oeb.metrics.json"), data, 0o644))

	stats, err = importer.Run(context.Background(), dataDir)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesAdded)
	assert.Equal(t, 0, stats.ObjectsAdded)
	assert.Equal(t, 1, stats.ObjectsRemoved)
	assert.Equal(t, 1, stats.PropsChanged)
	assert.Positive(t, stats.PropsTotal)
	assert.Greater(t, stats.ChangeRatio(), 0.0)
}

func TestCountProps(t *testing.T) {
	value := map[string]any{
		"a": "x",
		"b": []any{1.0, 2.0},
	}
	// 2 keys + scalar a + (list len 2 + two scalars)
	assert.Equal(t, 7, countProps(value))
}
