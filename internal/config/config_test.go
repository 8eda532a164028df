package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htdao/slotdb/internal/bufferpool"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_ParsesTableAndBufferPoolSections(t *testing.T) {
	path := writeConfig(t, `
table:
  path: /tmp/example.tbl
buffer_pool:
  capacity: 16
  strategy: lruk
  strat_param: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/example.tbl", cfg.Table.Path)
	require.Equal(t, 16, cfg.BufferPool.Capacity)
	require.Equal(t, 2, cfg.BufferPool.StratParam)

	kind, err := cfg.StrategyKind()
	require.NoError(t, err)
	require.Equal(t, bufferpool.LRUK, kind)
}

func TestStrategyKind_DefaultsToFIFOWhenUnset(t *testing.T) {
	cfg := &Config{}
	kind, err := cfg.StrategyKind()
	require.NoError(t, err)
	require.Equal(t, bufferpool.FIFO, kind)
}

func TestStrategyKind_UnknownStrategy_ReturnsError(t *testing.T) {
	cfg := &Config{}
	cfg.BufferPool.Strategy = "bogus"
	_, err := cfg.StrategyKind()
	require.Error(t, err)
}
