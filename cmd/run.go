package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kubesail/desk-controller/config"
	"github.com/kubesail/desk-controller/launcher"
	"github.com/kubesail/desk-controller/logging"
	"github.com/kubesail/desk-controller/pkg"
	"github.com/kubesail/desk-controller/terminal"
)

func runCommand(ctx context.Context, args []string) error {
	f := newFlags("run", true)
	defaults := pkg.DefaultConfig()
	terminalMode := f.Bool("terminal", false, "draw the dashboard in this terminal instead of the framebuffer")
	logFile := f.String("log-file", "", "terminal mode: append JSON logs to this file")
	fb := f.String("fb", "", "framebuffer device, e.g. fb1 (default: discover)")
	socket := f.String("socket", defaults.Socket, "control API socket ($LISTEN_SOCKET)")
	touchDevice := f.String("touch", "", "touch device path or name (default: display.touch_device, then discover)")
	noTouch := f.Bool("no-touch", false, "do not read a touch screen")
	spiMirror := f.Bool("spi-mirror", false, "also draw on an ST7789 panel on SPI0.1")
	backlightPin := f.Int("backlight-pin", defaults.BacklightPin, "BCM pin of the backlight, -1 to disable")
	idle := f.Duration("idle", defaults.IdleTimeout, "turn the backlight off after this long without touches, 0 to disable")
	diskPrefix := f.String("disk", defaults.DiskMountPrefix, "mount point prefix shown on the stats screen")
	if done, err := f.parse(args); done {
		return err
	}
	baseDir := f.baseDir()

	if *terminalMode {
		return runTerminal(ctx, f, baseDir, *logFile)
	}

	logger, err := loggerFor(f)
	if err != nil {
		return err
	}
	cfg := pkg.Config{
		ConfigPath:      f.configPath,
		BaseDir:         baseDir,
		FrameBuffer:     *fb,
		Socket:          *socket,
		BacklightPin:    *backlightPin,
		IdleTimeout:     *idle,
		TouchDevice:     *touchDevice,
		NoTouch:         *noTouch,
		SPIMirror:       *spiMirror,
		DiskMountPrefix: *diskPrefix,
	}
	screen, err := pkg.OpenScreen(&cfg)
	if err != nil {
		return fmt.Errorf("could not open framebuffer: %w", err)
	}
	buffer, err := pkg.NewFrameBuffer(cfg, screen, logger)
	if err != nil {
		screen.Close()
		return err
	}
	return buffer.Run(ctx)
}

// runTerminal shows the dashboard with bubbletea. Logs would corrupt the
// screen, so they go to logFile or nowhere.
func runTerminal(ctx context.Context, f *flags, baseDir, logFile string) error {
	report := config.Validate(f.configPath, baseDir)
	if !report.IsValid() {
		report.Print(os.Stderr)
		return errInvalid
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	logger := logging.Discard()
	if logFile != "" {
		level, err := logging.ParseLevel(f.logLevel)
		if err != nil {
			return err
		}
		out, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()
		logger = logging.NewWithWriter(out, level, false)
	}
	logger.Info("terminal dashboard", "config", f.configPath, "buttons", len(cfg.Buttons))
	return terminal.Run(ctx, cfg, launcher.New(config.ScriptsDir(baseDir), logger))
}

// loggerFor builds the command logger from --log-level.
func loggerFor(f *flags) (*slog.Logger, error) {
	return logging.New(f.logLevel)
}
