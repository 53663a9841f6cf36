package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestLoadRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trimal", "trimal.biotools.json")
	writeFile(t, path, `{"biotoolsID": "trimal", "name": "trimAl"}`)

	record, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, "trimal", record.ID())
}

func TestLoadRecord_Missing(t *testing.T) {
	_, err := LoadRecord(filepath.Join(t.TempDir(), "nope.biotools.json"))
	require.Error(t, err)
}

func TestLoadRecord_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.biotools.json")
	writeFile(t, path, `{"biotoolsID"`)

	_, err := LoadRecord(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestToolFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "trimal", "trimal.biotools.json"), `{}`)
	writeFile(t, filepath.Join(dir, "signalp", "signalp.biotools.json"), `{}`)
	// Annotation files never count as tool descriptions.
	writeFile(t, filepath.Join(dir, "trimal", "trimal.biocontainers.yaml"), `{}`)

	files, err := ToolFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "signalp", "signalp.biotools.json"), files[0])
	assert.Equal(t, filepath.Join(dir, "trimal", "trimal.biotools.json"), files[1])
}

func TestHasToolDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "trimal"), 0o755))
	writeFile(t, filepath.Join(dir, "plainfile"), "x")

	assert.True(t, HasToolDir(dir, "trimal"))
	assert.False(t, HasToolDir(dir, "ghost"))
	assert.False(t, HasToolDir(dir, "plainfile"))
}
