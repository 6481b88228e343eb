package sudoers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultTarget is where the fragment is installed.
const DefaultTarget = "/etc/sudoers.d/desk-controller"

// ErrVisudo is returned when visudo rejects the rendered fragment.
var ErrVisudo = errors.New("sudoers: visudo rejected fragment")

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Installer validates and atomically replaces a sudoers fragment.
type Installer struct {
	Visudo string
	Run    Runner
}

// NewInstaller returns an Installer that checks fragments with visudo.
func NewInstaller() *Installer {
	return &Installer{Visudo: "visudo", Run: ExecRunner}
}

// Install writes fragment to target. The file is staged next to target with
// a dotted name (sudo ignores such files), checked with "visudo -c -f",
// then renamed into place. An empty fragment removes target.
func (i *Installer) Install(ctx context.Context, fragment, target string) error {
	if strings.Contains(filepath.Base(target), ".") {
		return fmt.Errorf("sudoers: %s would be ignored by sudo (name contains '.')", target)
	}
	if fragment == "" {
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("sudoers: remove %s: %w", target, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("sudoers: stage fragment: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.WriteString(fragment); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sudoers: write %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(0o440); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sudoers: chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("sudoers: close %s: %w", tmpPath, err)
	}

	if out, err := i.Run(ctx, i.Visudo, "-c", "-f", tmpPath); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v: %s", ErrVisudo, err, strings.TrimSpace(string(out)))
	}

	if err := os.Rename(tmpPath, target); err != nil {
		cleanup()
		return fmt.Errorf("sudoers: install %s: %w", target, err)
	}
	return nil
}
