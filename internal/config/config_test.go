package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPassesValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ametsuchi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /var/lib/ametsuchi\nmerkle_fanout: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/ametsuchi", cfg.DBPath)
	require.Equal(t, 8, cfg.MerkleFanout)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("AMETSUCHI_DB_PATH", "/env/path")
	t.Setenv("AMETSUCHI_MERKLE_FANOUT", "12")
	t.Setenv("AMETSUCHI_LOG_JSON", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/env/path", cfg.DBPath)
	require.Equal(t, 12, cfg.MerkleFanout)
	require.True(t, cfg.LogJSON)
}

func TestValidateRejectsBadFanout(t *testing.T) {
	cfg := Default()
	cfg.MerkleFanout = 1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyDBPath(t *testing.T) {
	cfg := Default()
	cfg.DBPath = ""
	require.Error(t, cfg.Validate())
}
