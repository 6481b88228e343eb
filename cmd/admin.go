package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kubesail/desk-controller/config"
	"github.com/kubesail/desk-controller/icons"
	"github.com/kubesail/desk-controller/install"
	"github.com/kubesail/desk-controller/sudoers"
	"github.com/kubesail/desk-controller/system"
)

func validateCommand(ctx context.Context, args []string) error {
	f := newFlags("validate", true)
	if done, err := f.parse(args); done {
		return err
	}
	report := config.Validate(f.configPath, f.baseDir())
	report.Print(os.Stdout)
	if !report.IsValid() {
		return errInvalid
	}
	return nil
}

func checkCommand(ctx context.Context, args []string) error {
	f := newFlags("check", false)
	bypass := f.Bool("bypass-dsi-check", false, "accept a machine without a DSI panel (HDMI displays)")
	allowNonPi := f.Bool("allow-non-pi", false, "accept a machine that is not a Raspberry Pi")
	primary := f.String("primary-display", "", "xrandr output that must be connected")
	if done, err := f.parse(args); done {
		return err
	}
	result := system.Local().Check(ctx, system.CheckOptions{
		BypassDSICheck: *bypass,
		AllowNonPi:     *allowNonPi,
		PrimaryDisplay: *primary,
	})
	result.Print(os.Stdout)
	if !result.OK() {
		return errors.New("system check failed")
	}
	return nil
}

func sudoersCommand(ctx context.Context, args []string) error {
	f := newFlags("sudoers", true)
	user := f.StringP("user", "u", install.DefaultUser, "user the rule grants")
	scripts := f.String("scripts", "", "scripts directory (default: <base dir>/scripts)")
	doInstall := f.Bool("install", false, "validate with visudo and install the fragment (root)")
	target := f.String("target", sudoers.DefaultTarget, "fragment path used by --install")
	if done, err := f.parse(args); done {
		return err
	}
	logger, err := loggerFor(f)
	if err != nil {
		return err
	}
	if *scripts == "" {
		*scripts = config.ScriptsDir(f.baseDir())
	}

	commands, err := sudoers.NewScanner(logger).Scan(*scripts, f.configPath)
	if err != nil {
		return err
	}
	fragment, err := sudoers.Render(sudoers.Fragment{
		User:     *user,
		Commands: commands,
		Sources:  []string{*scripts, f.configPath},
	})
	if err != nil {
		return err
	}
	if !*doInstall {
		if fragment == "" {
			fmt.Println("# no sudo commands found")
			return nil
		}
		fmt.Print(fragment)
		return nil
	}
	if err := sudoers.NewInstaller().Install(ctx, fragment, *target); err != nil {
		return err
	}
	if fragment == "" {
		logger.Info("no sudo commands, fragment removed", "target", *target)
	} else {
		logger.Info("sudoers fragment installed", "target", *target, "commands", len(commands))
	}
	return nil
}

func installCommand(ctx context.Context, args []string) error {
	f := newFlags("install", true)
	opts := install.Options{}
	f.BoolVar(&opts.BypassDSICheck, "bypass-dsi-check", false, "install on a machine without a DSI panel (HDMI displays)")
	f.BoolVar(&opts.DryRun, "dry-run", false, "log the steps without running them")
	f.StringVarP(&opts.User, "user", "u", install.DefaultUser, "kiosk user, created when missing")
	f.StringVar(&opts.Session, "session", install.ModeFramebuffer, "framebuffer, or x11 for an X session running the terminal dashboard")
	f.StringVar(&opts.InstallDir, "install-dir", config.InstallDir, "where the dashboard files are installed")
	f.StringVar(&opts.Binary, "binary", install.DefaultBinary, "where this executable is installed")
	if done, err := f.parse(args); done {
		return err
	}
	logger, err := loggerFor(f)
	if err != nil {
		return err
	}

	source := f.baseDir()
	report := config.Validate(f.configPath, source)
	if !report.IsValid() {
		report.Print(os.Stderr)
		return errInvalid
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	opts.SourceDir = source
	opts.ConfigFile = f.configPath
	if exe, err := os.Executable(); err == nil {
		opts.Executable = exe
	}
	if err := install.New(logger).Install(ctx, cfg, opts); err != nil {
		return err
	}
	if !opts.DryRun {
		logger.Info("installed; reboot or run: systemctl start " + install.UnitName)
	}
	return nil
}

func uninstallCommand(ctx context.Context, args []string) error {
	f := newFlags("uninstall", false)
	opts := install.Options{}
	f.BoolVar(&opts.DryRun, "dry-run", false, "log the steps without running them")
	f.StringVar(&opts.InstallDir, "install-dir", config.InstallDir, "where the dashboard files were installed")
	if done, err := f.parse(args); done {
		return err
	}
	logger, err := loggerFor(f)
	if err != nil {
		return err
	}
	return install.New(logger).Uninstall(ctx, opts)
}

func calibrateCommand(ctx context.Context, args []string) error {
	f := newFlags("calibrate", true)
	rotation := f.Int("rotation", -1, "0, 90, 180 or 270 (default: display.rotation)")
	device := f.String("device", "", "xinput device name (default: display.touch_device, then the first touch screen)")
	persist := f.Bool("persist", false, "also write an Xorg snippet so the rotation survives restarts (root)")
	xorgDir := f.String("xorg-dir", install.DefaultXorgConfDir, "directory for --persist")
	if done, err := f.parse(args); done {
		return err
	}
	logger, err := loggerFor(f)
	if err != nil {
		return err
	}

	if *rotation < 0 || *device == "" {
		cfg, err := config.Load(f.configPath)
		if err != nil {
			return err
		}
		if *rotation < 0 {
			*rotation = cfg.Display.Rotation
		}
		if *device == "" {
			*device = cfg.Display.TouchDevice
		}
	}
	host := system.Local()
	if *device == "" {
		devices := host.TouchDevices()
		if len(devices) == 0 {
			return errors.New("no touch screen found; pass --device")
		}
		*device = devices[0].Name
	}

	host.EnsureDisplay()
	line, err := install.Calibrate(ctx, sudoers.ExecRunner, *device, *rotation)
	if err != nil {
		return err
	}
	logger.Info("touch rotated", "command", line)
	if *persist {
		path, err := install.WriteTouchConf(*xorgDir, *device, *rotation)
		if err != nil {
			return err
		}
		logger.Info("rotation persisted", "path", path)
	}
	return nil
}

func iconsCommand(ctx context.Context, args []string) error {
	f := newFlags("icons", false)
	dir := f.String("dir", filepath.Join(config.BaseDir(), "icons"), "output directory")
	if done, err := f.parse(args); done {
		return err
	}
	paths, err := icons.Generate(*dir)
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(paths, "\n"))
	return nil
}

func versionCommand(ctx context.Context, args []string) error {
	f := newFlags("version", false)
	if done, err := f.parse(args); done {
		return err
	}
	fmt.Println("desk-controller " + version)
	return nil
}
