// Package system inspects the machine the dashboard runs on: whether it is a
// Raspberry Pi, which displays xrandr reports, whether a DSI panel and a
// touch screen are attached. All file reads go through Host.Root and all
// external tools through Host.Run so the probes can be exercised in tests.
package system

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// probeTimeout bounds each external tool invocation.
const probeTimeout = 5 * time.Second

// Runner executes an external tool and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs tools with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}

// Host is a view of the local machine.
type Host struct {
	// Root prefixes every absolute path read; "" means "/".
	Root string
	Run  Runner
	// Getenv and Setenv default to the process environment.
	Getenv func(string) string
	Setenv func(string, string) error
}

// Local returns a Host for the running machine.
func Local() *Host {
	return &Host{Run: ExecRunner, Getenv: os.Getenv, Setenv: os.Setenv}
}

func (h *Host) path(p string) string {
	if h.Root == "" {
		return p
	}
	return filepath.Join(h.Root, p)
}

func (h *Host) readFile(p string) (string, error) {
	data, err := os.ReadFile(h.path(p))
	return string(data), err
}

func (h *Host) getenv(key string) string {
	if h.Getenv == nil {
		return os.Getenv(key)
	}
	return h.Getenv(key)
}

func (h *Host) setenv(key, value string) error {
	if h.Setenv == nil {
		return os.Setenv(key, value)
	}
	return h.Setenv(key, value)
}

func (h *Host) run(ctx context.Context, name string, args ...string) (string, error) {
	run := h.Run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, name, args...)
	return string(out), err
}

// EnsureDisplay points DISPLAY at :0 when it is unset, so X tools work from
// a console or a systemd unit. It returns the value in effect.
func (h *Host) EnsureDisplay() string {
	if display := h.getenv("DISPLAY"); display != "" {
		return display
	}
	if err := h.setenv("DISPLAY", ":0"); err != nil {
		return ""
	}
	return ":0"
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
