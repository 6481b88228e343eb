// Package launcher turns button commands into running processes. Commands
// starting with "@/" name a file in the scripts directory; everything else is
// handed to /bin/sh as-is. Processes are started detached from the dashboard
// and reaped in the background.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/kubesail/desk-controller/config"
)

var (
	// ErrEmptyCommand is returned for buttons without a command.
	ErrEmptyCommand = errors.New("launcher: empty command")

	// ErrScriptNotFound is returned when an "@/" script does not exist.
	ErrScriptNotFound = errors.New("launcher: script not found")
)

// Shell is the interpreter used for every command.
const Shell = "/bin/sh"

// Launcher starts button commands.
type Launcher struct {
	scriptsDir string
	logger     *slog.Logger

	mu      sync.Mutex
	running map[int]string

	// start is swapped out in tests.
	start func(cmd *exec.Cmd) error
}

// New returns a Launcher resolving "@/" commands against scriptsDir.
func New(scriptsDir string, logger *slog.Logger) *Launcher {
	return &Launcher{
		scriptsDir: scriptsDir,
		logger:     logger,
		running:    make(map[int]string),
		start:      func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// ScriptsDir returns the directory "@/" commands resolve against.
func (l *Launcher) ScriptsDir() string {
	return l.scriptsDir
}

// Resolve returns the shell command line for command. Script references are
// mapped to absolute paths and made executable if needed.
func (l *Launcher) Resolve(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", ErrEmptyCommand
	}
	if !strings.HasPrefix(command, config.ScriptPrefix) {
		return command, nil
	}

	name, args, _ := strings.Cut(strings.TrimPrefix(command, config.ScriptPrefix), " ")
	path := filepath.Join(l.scriptsDir, filepath.Clean("/"+name))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	if info.Mode().Perm()&0o111 != 0o111 {
		if err := os.Chmod(path, info.Mode().Perm()|0o111); err != nil {
			return "", fmt.Errorf("launcher: make %s executable: %w", path, err)
		}
	}
	if args != "" {
		return shellQuote(path) + " " + args, nil
	}
	return shellQuote(path), nil
}

// Launch starts command and returns its pid without waiting for it.
func (l *Launcher) Launch(ctx context.Context, command string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	line, err := l.Resolve(command)
	if err != nil {
		return 0, err
	}

	// Not exec.CommandContext: children outlive the dashboard.
	cmd := exec.Command(Shell, "-c", line)
	cmd.Dir = filepath.Dir(l.scriptsDir)
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := l.start(cmd); err != nil {
		return 0, fmt.Errorf("launcher: start %q: %w", command, err)
	}
	if cmd.Process == nil {
		return 0, nil
	}

	pid := cmd.Process.Pid
	l.mu.Lock()
	l.running[pid] = command
	l.mu.Unlock()
	l.logger.Info("command started", "command", command, "pid", pid)

	go l.reap(cmd, command)
	return pid, nil
}

func (l *Launcher) reap(cmd *exec.Cmd, command string) {
	err := cmd.Wait()
	pid := cmd.Process.Pid
	l.mu.Lock()
	delete(l.running, pid)
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("command exited", "command", command, "pid", pid, "error", err)
		return
	}
	l.logger.Debug("command exited", "command", command, "pid", pid)
}

// Running returns the number of children not yet reaped.
func (l *Launcher) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.running)
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()*?[]#~!{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
