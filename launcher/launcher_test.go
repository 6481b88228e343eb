package launcher

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubesail/desk-controller/logging"
)

func newTestLauncher(t *testing.T) (*Launcher, string) {
	t.Helper()
	base := t.TempDir()
	scripts := filepath.Join(base, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	return New(scripts, logging.Discard()), scripts
}

func TestResolvePassThrough(t *testing.T) {
	l, _ := newTestLauncher(t)
	line, err := l.Resolve("  chromium-browser --kiosk https://example.com ")
	require.NoError(t, err)
	assert.Equal(t, "chromium-browser --kiosk https://example.com", line)

	_, err = l.Resolve("   ")
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestResolveScriptMakesExecutable(t *testing.T) {
	l, scripts := newTestLauncher(t)
	path := filepath.Join(scripts, "reboot.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nsudo reboot\n"), 0o644))

	line, err := l.Resolve("@/reboot.sh")
	require.NoError(t, err)
	assert.Equal(t, path, line)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	line, err = l.Resolve("@/reboot.sh now")
	require.NoError(t, err)
	assert.Equal(t, path+" now", line)
}

func TestResolveScriptMissing(t *testing.T) {
	l, scripts := newTestLauncher(t)
	_, err := l.Resolve("@/nope.sh")
	assert.ErrorIs(t, err, ErrScriptNotFound)

	require.NoError(t, os.Mkdir(filepath.Join(scripts, "dir"), 0o755))
	_, err = l.Resolve("@/dir")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestResolveScriptStaysInsideScriptsDir(t *testing.T) {
	l, scripts := newTestLauncher(t)
	outside := filepath.Join(filepath.Dir(scripts), "secret.sh")
	require.NoError(t, os.WriteFile(outside, []byte("#!/bin/sh\n"), 0o755))

	_, err := l.Resolve("@/../secret.sh")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestLaunchUsesShell(t *testing.T) {
	l, _ := newTestLauncher(t)
	var got *exec.Cmd
	l.start = func(cmd *exec.Cmd) error {
		got = cmd
		return nil
	}

	pid, err := l.Launch(context.Background(), "echo hi")
	require.NoError(t, err)
	assert.Zero(t, pid)
	require.NotNil(t, got)
	assert.Equal(t, []string{Shell, "-c", "echo hi"}, got.Args)
	assert.True(t, got.SysProcAttr.Setpgid)
}

func TestLaunchReapsChild(t *testing.T) {
	if _, err := os.Stat(Shell); err != nil {
		t.Skip("no /bin/sh")
	}
	l, _ := newTestLauncher(t)
	pid, err := l.Launch(context.Background(), "exit 0")
	require.NoError(t, err)
	assert.NotZero(t, pid)

	assert.Eventually(t, func() bool { return l.Running() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/opt/a.sh", shellQuote("/opt/a.sh"))
	assert.Equal(t, "'/opt/my scripts/a.sh'", shellQuote("/opt/my scripts/a.sh"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
