package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/driftnote/pkg/sync"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "driftnote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFillsDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, "ledger_dir: /tmp/driftnote\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.SnapshotDepth)
	require.Equal(t, sync.Automatic, cfg.SyncMode)
	require.Equal(t, "/tmp/driftnote", cfg.LedgerDir)
}

func TestLoadRejectsUnknownSyncMode(t *testing.T) {
	path := writeConfig(t, "sync_mode: eventually\nledger_dir: /tmp/driftnote\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveSnapshotDepth(t *testing.T) {
	path := writeConfig(t, "snapshot_depth: 0\nledger_dir: /tmp/driftnote\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadAcceptsManualMode(t *testing.T) {
	path := writeConfig(t, "sync_mode: manual\nledger_dir: /tmp/driftnote\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, sync.Manual, cfg.SyncMode)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
