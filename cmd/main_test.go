package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, dispatch(ctx, nil))
	assert.NoError(t, dispatch(ctx, []string{"version"}))
	assert.NoError(t, dispatch(ctx, []string{"validate", "--help"}))

	err := dispatch(ctx, []string{"frobnicate"})
	assert.EqualError(t, err, `unknown command "frobnicate"`)

	err = dispatch(ctx, []string{"version", "extra"})
	assert.EqualError(t, err, "unexpected argument: extra")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"layout": {"rows": 1, "columns": 2}, "buttons": [{"name": "A", "command": "true", "position": [0, 1]}]}`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"layout": {"rows": 1, "columns": 2}, "buttons": [{"name": "A", "command": "true", "position": [0, 2]}]}`), 0o644))

	assert.NoError(t, dispatch(context.Background(), []string{"validate", "--config", good}))
	assert.ErrorIs(t, dispatch(context.Background(), []string{"validate", "-c", bad}), errInvalid)
}

func TestIconsCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "icons")
	require.NoError(t, dispatch(context.Background(), []string{"icons", "--dir", dir}))
	assert.FileExists(t, filepath.Join(dir, "terminal.png"))
	assert.FileExists(t, filepath.Join(dir, "app-icon.png"))
}

func TestSudoersCommandPrintsFragment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "off.sh"), []byte("#!/bin/sh\nsudo /sbin/shutdown -h now\n"), 0o755))
	cfg := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"layout": {"rows": 1, "columns": 1}, "buttons": [{"name": "Off", "command": "@/off.sh", "position": [0, 0]}]}`), 0o644))

	assert.NoError(t, dispatch(context.Background(), []string{"sudoers", "--config", cfg, "--user", "kiosk"}))
	assert.Error(t, dispatch(context.Background(), []string{"sudoers", "--config", cfg, "--user", "Bad User"}))
}
