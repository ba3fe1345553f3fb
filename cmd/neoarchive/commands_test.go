package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoarchive/neoarchive/internal/config"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	return dir
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["sync"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSyncCmd_OfflineStatus(t *testing.T) {
	dir := writeConfig(t, "remote:\n  driver: none\n")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sync", "--config", dir})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var status struct {
		State  string `json:"state"`
		Online bool   `json:"online"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &status))
	assert.Equal(t, "ready", status.State)
	assert.False(t, status.Online)
}

func TestSyncCmd_MemoryRemoteIsOnline(t *testing.T) {
	dir := writeConfig(t, "remote:\n  driver: memory\n")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sync", "--config", dir})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), `"online": true`)
}

func TestRunMigrate_RequiresPostgres(t *testing.T) {
	err := runMigrate(context.Background(), config.RemoteConfig{Driver: "memory"})
	assert.ErrorContains(t, err, "postgres")
}
