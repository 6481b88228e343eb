// Package install turns a checkout into a kiosk: it renders the systemd
// unit, the X session script and the autostart entry, creates the kiosk
// user, copies the dashboard files and installs the sudoers fragment.
package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kubesail/desk-controller/config"
	"github.com/kubesail/desk-controller/sudoers"
	"github.com/kubesail/desk-controller/system"
)

// ErrNotRoot is returned when the plan needs EUID 0.
var ErrNotRoot = errors.New("install: must be run as root")

// Runner executes an external command and returns its combined output.
type Runner = sudoers.Runner

// Default locations.
const (
	DefaultUser         = "kiosk"
	DefaultBinary       = "/usr/local/bin/desk-controller"
	DefaultUnitDir      = "/etc/systemd/system"
	DefaultAutostartDir = "/etc/xdg/autostart"
	DefaultXorgConfDir  = "/etc/X11/xorg.conf.d"
	DefaultSocket       = "/var/run/desk-controller/control.sock"
)

// Options select what the plan installs and where.
type Options struct {
	User string
	// SourceDir holds scripts/ and icons/ to install.
	SourceDir string
	// ConfigFile is the document to install, SourceDir/config.json by
	// default. It keeps its name, so YAML documents stay YAML.
	ConfigFile string
	InstallDir string
	// Executable is copied to Binary when set.
	Executable string
	Binary     string
	// Session is ModeFramebuffer or ModeX11.
	Session        string
	Socket         string
	UnitDir        string
	AutostartDir   string
	XorgConfDir    string
	SudoersTarget  string
	BypassDSICheck bool
	DryRun         bool
}

func (o *Options) setDefaults() {
	if o.User == "" {
		o.User = DefaultUser
	}
	if o.InstallDir == "" {
		o.InstallDir = config.InstallDir
	}
	if o.SourceDir == "" {
		o.SourceDir = o.InstallDir
	}
	if o.ConfigFile == "" {
		o.ConfigFile = filepath.Join(o.SourceDir, config.FileName)
	}
	if o.Binary == "" {
		o.Binary = DefaultBinary
	}
	if o.Session == "" {
		o.Session = ModeFramebuffer
	}
	if o.Socket == "" {
		o.Socket = DefaultSocket
	}
	if o.UnitDir == "" {
		o.UnitDir = DefaultUnitDir
	}
	if o.AutostartDir == "" {
		o.AutostartDir = DefaultAutostartDir
	}
	if o.XorgConfDir == "" {
		o.XorgConfDir = DefaultXorgConfDir
	}
	if o.SudoersTarget == "" {
		o.SudoersTarget = sudoers.DefaultTarget
	}
}

func (o *Options) configPath() string {
	return filepath.Join(o.InstallDir, filepath.Base(o.ConfigFile))
}

func (o *Options) sessionPath() string { return filepath.Join(o.InstallDir, SessionName) }

func (o *Options) unitPath() string { return filepath.Join(o.UnitDir, UnitName) }

func (o *Options) desktopPath() string { return filepath.Join(o.AutostartDir, DesktopName) }

func (o *Options) touchConfPath() string { return filepath.Join(o.XorgConfDir, TouchConfName) }

// Step is one unit of work in a plan.
type Step struct {
	Name   string
	Detail string
	Run    func(ctx context.Context) error
}

// Installer builds and runs install and uninstall plans.
type Installer struct {
	Host    *system.Host
	Run     Runner
	Geteuid func() int
	Sudoers *sudoers.Installer
	Scanner *sudoers.Scanner
	Logger  *slog.Logger
}

// New returns an Installer acting on the local machine.
func New(logger *slog.Logger) *Installer {
	return &Installer{
		Host:    system.Local(),
		Run:     sudoers.ExecRunner,
		Geteuid: os.Geteuid,
		Sudoers: sudoers.NewInstaller(),
		Scanner: sudoers.NewScanner(logger),
		Logger:  logger,
	}
}

// Install builds the plan for cfg and runs it.
func (i *Installer) Install(ctx context.Context, cfg *config.Config, opts Options) error {
	steps, err := i.Plan(cfg, opts)
	if err != nil {
		return err
	}
	return i.Execute(ctx, steps, opts.DryRun)
}

// Plan returns the ordered install steps.
func (i *Installer) Plan(cfg *config.Config, opts Options) ([]Step, error) {
	opts.setDefaults()
	if opts.Session != ModeFramebuffer && opts.Session != ModeX11 {
		return nil, fmt.Errorf("install: unknown session %q (use %s or %s)", opts.Session, ModeFramebuffer, ModeX11)
	}
	matrix, err := Matrix(cfg.Display.Rotation)
	if err != nil {
		return nil, err
	}

	steps := []Step{
		{Name: "require root", Run: i.requireRoot},
		{Name: "system check", Run: func(ctx context.Context) error {
			return i.systemCheck(ctx, cfg, opts)
		}},
		{Name: "create user", Detail: opts.User, Run: func(ctx context.Context) error {
			return i.ensureUser(ctx, opts.User)
		}},
		{Name: "copy files", Detail: opts.SourceDir + " -> " + opts.InstallDir, Run: func(context.Context) error {
			return i.copyFiles(opts)
		}},
	}

	if opts.Session == ModeX11 {
		session, err := RenderSession(SessionData{
			Binary:         opts.Binary,
			ConfigPath:     opts.configPath(),
			Background:     cfg.Layout.BackgroundColor,
			HideCursor:     cfg.Layout.HideCursor,
			TouchDevice:    cfg.Display.TouchDevice,
			Matrix:         matrix,
			PrimaryDisplay: cfg.Display.PrimaryDisplay,
			Rotate:         rotateFlag(cfg.Display.Rotation),
		})
		if err != nil {
			return nil, err
		}
		steps = append(steps, i.writeStep("write session script", opts.sessionPath(), session, 0o755))

		if cfg.Display.Rotation != 0 {
			conf, err := RenderTouchConf(TouchConfData{TouchDevice: cfg.Display.TouchDevice, Matrix: matrix})
			if err != nil {
				return nil, err
			}
			steps = append(steps, i.writeStep("write touch rotation", opts.touchConfPath(), conf, 0o644))
		}
	}

	unit, err := RenderUnit(UnitData{
		User:          opts.User,
		InstallDir:    opts.InstallDir,
		Binary:        opts.Binary,
		ConfigPath:    opts.configPath(),
		SessionScript: opts.sessionPath(),
		Socket:        opts.Socket,
		Mode:          opts.Session,
		HideCursor:    cfg.Layout.HideCursor,
	})
	if err != nil {
		return nil, err
	}
	steps = append(steps, i.writeStep("write unit", opts.unitPath(), unit, 0o644))

	if cfg.Display.AutoStart {
		desktop, err := RenderDesktop(DesktopData{
			Binary:     opts.Binary,
			ConfigPath: opts.configPath(),
			InstallDir: opts.InstallDir,
			AutoStart:  true,
		})
		if err != nil {
			return nil, err
		}
		steps = append(steps, i.writeStep("write desktop entry", opts.desktopPath(), desktop, 0o644))
	}

	steps = append(steps,
		Step{Name: "sudoers", Detail: opts.SudoersTarget, Run: func(ctx context.Context) error {
			return i.installSudoers(ctx, opts)
		}},
		Step{Name: "enable unit", Detail: UnitName, Run: func(ctx context.Context) error {
			if err := i.command(ctx, "systemctl", "daemon-reload"); err != nil {
				return err
			}
			if !cfg.Display.KioskMode {
				i.Logger.Info("kiosk_mode is off, unit installed but not enabled", "unit", UnitName)
				return nil
			}
			return i.command(ctx, "systemctl", "enable", UnitName)
		}},
	)
	return steps, nil
}

// Uninstall disables the unit and removes every generated file. Files
// copied into the install directory are left in place.
func (i *Installer) Uninstall(ctx context.Context, opts Options) error {
	opts.setDefaults()
	steps := []Step{
		{Name: "require root", Run: i.requireRoot},
		{Name: "disable unit", Detail: UnitName, Run: func(ctx context.Context) error {
			if err := i.command(ctx, "systemctl", "disable", "--now", UnitName); err != nil {
				i.Logger.Warn("disable unit", "err", err)
			}
			return nil
		}},
		i.removeStep("remove unit", opts.unitPath()),
		i.removeStep("remove session script", opts.sessionPath()),
		i.removeStep("remove desktop entry", opts.desktopPath()),
		i.removeStep("remove touch rotation", opts.touchConfPath()),
		{Name: "remove sudoers", Detail: opts.SudoersTarget, Run: func(ctx context.Context) error {
			return i.Sudoers.Install(ctx, "", opts.SudoersTarget)
		}},
		{Name: "daemon reload", Run: func(ctx context.Context) error {
			return i.command(ctx, "systemctl", "daemon-reload")
		}},
	}
	return i.Execute(ctx, steps, opts.DryRun)
}

// Execute runs steps in order and stops at the first failure. In dry-run
// mode each step is only logged.
func (i *Installer) Execute(ctx context.Context, steps []Step, dryRun bool) error {
	for n, step := range steps {
		log := i.Logger.With("step", step.Name, "n", fmt.Sprintf("%d/%d", n+1, len(steps)))
		if step.Detail != "" {
			log = log.With("detail", step.Detail)
		}
		if dryRun {
			log.Info("dry run: skipped")
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info("running")
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

func (i *Installer) requireRoot(context.Context) error {
	if i.Geteuid() != 0 {
		return ErrNotRoot
	}
	return nil
}

func (i *Installer) systemCheck(ctx context.Context, cfg *config.Config, opts Options) error {
	result := i.Host.Check(ctx, system.CheckOptions{
		BypassDSICheck: opts.BypassDSICheck,
		PrimaryDisplay: cfg.Display.PrimaryDisplay,
	})
	for _, item := range result.Items {
		i.Logger.Info("check", "name", item.Name, "status", item.Status.String(), "detail", item.Detail)
	}
	if result.OK() {
		return nil
	}
	var names []string
	for _, item := range result.Failures() {
		names = append(names, item.Name)
	}
	return fmt.Errorf("system check failed: %s", strings.Join(names, ", "))
}

// userGroups grant the framebuffer, input devices and the tty. gpio, for
// the backlight through /dev/gpiomem, only exists on Raspberry Pi OS.
var userGroups = []string{"video", "input", "tty"}

func (i *Installer) ensureUser(ctx context.Context, user string) error {
	groups := userGroups
	if _, err := i.Run(ctx, "getent", "group", "gpio"); err == nil {
		groups = append(groups[:len(groups):len(groups)], "gpio")
	}
	list := strings.Join(groups, ",")
	if _, err := i.Run(ctx, "id", "-u", user); err == nil {
		i.Logger.Info("user exists", "user", user, "groups", list)
		return i.command(ctx, "usermod", "--append", "--groups", list, user)
	}
	return i.command(ctx, "useradd", "--create-home", "--groups", list, user)
}

func (i *Installer) copyFiles(opts Options) error {
	if opts.Executable != "" {
		if _, err := copyFile(opts.Executable, opts.Binary, 0o755); err != nil {
			return fmt.Errorf("copy binary: %w", err)
		}
	}
	if _, err := copyFile(opts.ConfigFile, opts.configPath(), 0o644); err != nil {
		return fmt.Errorf("copy config: %w", err)
	}
	for _, dir := range []string{"scripts", "icons"} {
		n, err := copyTree(filepath.Join(opts.SourceDir, dir), filepath.Join(opts.InstallDir, dir))
		if err != nil {
			return fmt.Errorf("copy %s: %w", dir, err)
		}
		i.Logger.Info("copied", "dir", dir, "files", n)
	}
	return nil
}

func (i *Installer) installSudoers(ctx context.Context, opts Options) error {
	commands, err := i.Scanner.Scan(config.ScriptsDir(opts.InstallDir), opts.configPath())
	if err != nil {
		return err
	}
	fragment, err := sudoers.Render(sudoers.Fragment{
		User:     opts.User,
		Commands: commands,
		Sources:  []string{config.ScriptsDir(opts.InstallDir), opts.configPath()},
	})
	if err != nil {
		return err
	}
	i.Logger.Info("sudo commands", "count", len(commands))
	return i.Sudoers.Install(ctx, fragment, opts.SudoersTarget)
}

func (i *Installer) writeStep(name, path string, data []byte, mode os.FileMode) Step {
	return Step{Name: name, Detail: path, Run: func(context.Context) error {
		changed, err := writeFile(path, data, mode)
		if err != nil {
			return err
		}
		if !changed {
			i.Logger.Info("unchanged", "path", path)
		}
		return nil
	}}
}

func (i *Installer) removeStep(name, path string) Step {
	return Step{Name: name, Detail: path, Run: func(context.Context) error {
		_, err := removeFile(path)
		return err
	}}
}

func (i *Installer) command(ctx context.Context, name string, args ...string) error {
	out, err := i.Run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func rotateFlag(rotation int) string {
	if rotation == 0 {
		return ""
	}
	return xrandrRotations[rotation]
}
