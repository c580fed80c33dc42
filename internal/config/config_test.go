package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ValidatesCleanly(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, StorageModeCentral, cfg.StorageMode)
}

func TestValidate_RejectsBadWeightSum(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.BM25Weight = 0.9
	cfg.Search.SemanticWeight = 0.9
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownTransport(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Transport = "websocket"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownStorageMode(t *testing.T) {
	cfg := NewConfig()
	cfg.StorageMode = "remote"
	assert.Error(t, cfg.Validate())
}

func TestLoad_AppliesProjectConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codeseeker"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codeseeker", "config.yaml"),
		[]byte("search:\n  max_results: 42\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Search.MaxResults)
}

func TestLoad_EnvOverridesTakePrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODESEEKER_DATA_DIR", "/tmp/codeseeker-test-data")
	t.Setenv("CODESEEKER_STORAGE_MODE", "local")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/codeseeker-test-data", cfg.DataDir)
	assert.Equal(t, StorageModeLocal, cfg.StorageMode)
}

func TestDetectProjectType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644))
	assert.Equal(t, ProjectTypeGo, DetectProjectType(dir))
}

func TestFindProjectRoot_FindsCodeseekerDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codeseeker"), 0o755))

	root, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	cfg := NewConfig()
	require.NoError(t, cfg.WriteYAML(path))
	assert.FileExists(t, path)
}
