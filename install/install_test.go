package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubesail/desk-controller/config"
	"github.com/kubesail/desk-controller/logging"
	"github.com/kubesail/desk-controller/sudoers"
	"github.com/kubesail/desk-controller/system"
)

type recorder struct {
	calls []string
	fail  map[string]bool
}

func (r *recorder) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.calls = append(r.calls, line)
	if r.fail[name] {
		return []byte("no such user"), errors.New("exit status 1")
	}
	return nil, nil
}

type fixture struct {
	installer *Installer
	rec       *recorder
	opts      Options
	root      string
}

func newFixture(t *testing.T, euid int) *fixture {
	t.Helper()
	root := t.TempDir()
	hostRoot := filepath.Join(root, "host")
	require.NoError(t, os.MkdirAll(filepath.Join(hostRoot, "proc/device-tree"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hostRoot, "proc/device-tree/model"), []byte("Raspberry Pi 4 Model B\x00"), 0o644))

	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "scripts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, config.FileName), []byte(`{"layout":{"rows":1,"columns":1},"buttons":[]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "scripts", "reboot.sh"), []byte("#!/bin/sh\nsudo reboot\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "icons", "reboot.png"), []byte("png"), 0o644))

	rec := &recorder{fail: map[string]bool{"id": true}}
	host := &system.Host{
		Root: hostRoot,
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			if name == "xrandr" {
				return []byte("DSI-1 connected primary 800x480+0+0 (normal)\n"), nil
			}
			return nil, errors.New("not found")
		},
		Getenv: func(string) string { return ":0" },
		Setenv: func(string, string) error { return nil },
	}
	logger := logging.Discard()
	return &fixture{
		installer: &Installer{
			Host:    host,
			Run:     rec.run,
			Geteuid: func() int { return euid },
			Sudoers: &sudoers.Installer{Visudo: "visudo", Run: rec.run},
			Scanner: &sudoers.Scanner{
				LookPath: func(name string) (string, error) { return "/usr/sbin/" + name, nil },
				Logger:   logger,
			},
			Logger: logger,
		},
		rec: rec,
		opts: Options{
			User:          "kiosk",
			SourceDir:     src,
			InstallDir:    filepath.Join(root, "opt"),
			Binary:        filepath.Join(root, "bin", "desk-controller"),
			UnitDir:       filepath.Join(root, "systemd"),
			AutostartDir:  filepath.Join(root, "autostart"),
			XorgConfDir:   filepath.Join(root, "xorg.conf.d"),
			SudoersTarget: filepath.Join(root, "sudoers.d", "desk-controller"),
		},
		root: root,
	}
}

func kioskConfig() *config.Config {
	cfg := config.Default()
	cfg.Display.KioskMode = true
	cfg.Display.AutoStart = true
	cfg.Display.Rotation = 90
	cfg.Display.TouchDevice = "FT5406 memory based driver"
	return cfg
}

func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestPlanSteps(t *testing.T) {
	f := newFixture(t, 0)

	steps, err := f.installer.Plan(kioskConfig(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"require root", "system check", "create user", "copy files",
		"write unit", "write desktop entry", "sudoers", "enable unit",
	}, stepNames(steps))

	f.opts.Session = ModeX11
	steps, err = f.installer.Plan(kioskConfig(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"require root", "system check", "create user", "copy files",
		"write session script", "write touch rotation",
		"write unit", "write desktop entry", "sudoers", "enable unit",
	}, stepNames(steps))

	f.opts.Session = "wayland"
	_, err = f.installer.Plan(kioskConfig(), f.opts)
	assert.Error(t, err)
}

func TestInstall(t *testing.T) {
	f := newFixture(t, 0)
	f.opts.Session = ModeX11
	require.NoError(t, os.MkdirAll(filepath.Dir(f.opts.SudoersTarget), 0o755))

	require.NoError(t, f.installer.Install(context.Background(), kioskConfig(), f.opts))

	assert.FileExists(t, filepath.Join(f.opts.InstallDir, config.FileName))
	assert.FileExists(t, filepath.Join(f.opts.InstallDir, "icons", "reboot.png"))
	info, err := os.Stat(filepath.Join(f.opts.InstallDir, "scripts", "reboot.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	session, err := os.ReadFile(filepath.Join(f.opts.InstallDir, SessionName))
	require.NoError(t, err)
	assert.Contains(t, string(session), `"Coordinate Transformation Matrix" 0 1 0 -1 0 1 0 0 1`)

	unit, err := os.ReadFile(filepath.Join(f.opts.UnitDir, UnitName))
	require.NoError(t, err)
	assert.Contains(t, string(unit), "User=kiosk")
	assert.Contains(t, string(unit), "ExecStart=/usr/bin/xinit "+filepath.Join(f.opts.InstallDir, SessionName))

	assert.FileExists(t, filepath.Join(f.opts.AutostartDir, DesktopName))
	assert.FileExists(t, filepath.Join(f.opts.XorgConfDir, TouchConfName))

	fragment, err := os.ReadFile(f.opts.SudoersTarget)
	require.NoError(t, err)
	assert.Contains(t, string(fragment), "kiosk ALL=(ALL) NOPASSWD: /usr/sbin/reboot")
	info, err = os.Stat(f.opts.SudoersTarget)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o440), info.Mode().Perm())

	assert.Contains(t, f.rec.calls, "useradd --create-home --groups video,input,tty,gpio kiosk")
	assert.Contains(t, f.rec.calls, "systemctl daemon-reload")
	assert.Contains(t, f.rec.calls, "systemctl enable "+UnitName)
}

func TestInstallKeepsConfigName(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.opts.SudoersTarget), 0o755))
	doc := filepath.Join(f.opts.SourceDir, "dashboard.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("layout: {rows: 1, columns: 1}\nbuttons: []\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(f.opts.SourceDir, config.FileName)))
	f.opts.ConfigFile = doc

	require.NoError(t, f.installer.Install(context.Background(), kioskConfig(), f.opts))

	installed := filepath.Join(f.opts.InstallDir, "dashboard.yaml")
	assert.FileExists(t, installed)
	_, err := config.Load(installed)
	require.NoError(t, err)

	unit, err := os.ReadFile(filepath.Join(f.opts.UnitDir, UnitName))
	require.NoError(t, err)
	assert.Contains(t, string(unit), "run --config "+installed+"\n")
}

func TestEnsureUserGroups(t *testing.T) {
	f := newFixture(t, 0)
	f.rec.fail["getent"] = true
	require.NoError(t, f.installer.ensureUser(context.Background(), "kiosk"))
	assert.Contains(t, f.rec.calls, "useradd --create-home --groups video,input,tty kiosk")

	f.rec.calls = nil
	f.rec.fail = map[string]bool{}
	require.NoError(t, f.installer.ensureUser(context.Background(), "kiosk"))
	assert.Equal(t, []string{
		"getent group gpio",
		"id -u kiosk",
		"usermod --append --groups video,input,tty,gpio kiosk",
	}, f.rec.calls)
}

func TestInstallRequiresRoot(t *testing.T) {
	f := newFixture(t, 1000)
	err := f.installer.Install(context.Background(), kioskConfig(), f.opts)
	assert.ErrorIs(t, err, ErrNotRoot)
	assert.Empty(t, f.rec.calls)
	assert.NoDirExists(t, f.opts.InstallDir)
}

func TestInstallDryRun(t *testing.T) {
	f := newFixture(t, 1000)
	f.opts.DryRun = true
	require.NoError(t, f.installer.Install(context.Background(), kioskConfig(), f.opts))
	assert.Empty(t, f.rec.calls)
	assert.NoDirExists(t, f.opts.InstallDir)
	assert.NoDirExists(t, f.opts.UnitDir)
}

func TestInstallSystemCheckFails(t *testing.T) {
	f := newFixture(t, 0)
	f.installer.Host.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("HDMI-1 connected primary 1920x1080+0+0\n"), nil
	}
	err := f.installer.Install(context.Background(), kioskConfig(), f.opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system check: system check failed: dsi display")

	f.opts.BypassDSICheck = true
	require.NoError(t, os.MkdirAll(filepath.Dir(f.opts.SudoersTarget), 0o755))
	assert.NoError(t, f.installer.Install(context.Background(), kioskConfig(), f.opts))
}

func TestUninstall(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.opts.SudoersTarget), 0o755))
	require.NoError(t, f.installer.Install(context.Background(), kioskConfig(), f.opts))
	f.rec.calls = nil

	require.NoError(t, f.installer.Uninstall(context.Background(), f.opts))
	assert.NoFileExists(t, filepath.Join(f.opts.UnitDir, UnitName))
	assert.NoFileExists(t, filepath.Join(f.opts.AutostartDir, DesktopName))
	assert.NoFileExists(t, f.opts.SudoersTarget)
	assert.FileExists(t, filepath.Join(f.opts.InstallDir, config.FileName))
	assert.Equal(t, []string{"systemctl disable --now " + UnitName, "systemctl daemon-reload"}, f.rec.calls)
}

func TestRenderUnit(t *testing.T) {
	unit, err := RenderUnit(UnitData{
		User:       "kiosk",
		InstallDir: "/opt/desk-controller",
		Binary:     "/usr/local/bin/desk-controller",
		ConfigPath: "/opt/desk-controller/config.json",
		Socket:     DefaultSocket,
		Mode:       ModeFramebuffer,
	})
	require.NoError(t, err)
	text := string(unit)
	assert.Contains(t, text, "Conflicts=getty@tty1.service")
	assert.Contains(t, text, "TTYPath=/dev/tty1")
	assert.Contains(t, text, "Environment=LISTEN_SOCKET="+DefaultSocket)
	assert.Contains(t, text, "\nRuntimeDirectory=desk-controller\nRuntimeDirectoryMode=0755\n")
	assert.Contains(t, text, "\nExecStart=/usr/local/bin/desk-controller run --config /opt/desk-controller/config.json\n")
	assert.NotContains(t, text, "xinit")
}

func TestRuntimeDirectory(t *testing.T) {
	for socket, want := range map[string]string{
		"/var/run/desk-controller/control.sock": "desk-controller",
		"/run/kiosk/api/control.sock":           "kiosk/api",
		"/run/control.sock":                     "",
		"/tmp/desk/control.sock":                "",
		"":                                      "",
	} {
		assert.Equal(t, want, runtimeDirectory(socket), socket)
	}

	unit, err := RenderUnit(UnitData{User: "kiosk", Socket: "/tmp/control.sock", Mode: ModeFramebuffer})
	require.NoError(t, err)
	assert.NotContains(t, string(unit), "RuntimeDirectory")
}

func TestRenderSession(t *testing.T) {
	script, err := RenderSession(SessionData{
		Binary:     "/usr/local/bin/desk-controller",
		ConfigPath: "/opt/my kiosk/config.json",
		Background: "#2E3440",
		HideCursor: true,
	})
	require.NoError(t, err)
	text := string(script)
	assert.True(t, strings.HasPrefix(text, "#!/bin/sh\n"))
	assert.Contains(t, text, "xset -dpms")
	assert.Contains(t, text, "unclutter -idle 0.1 -root &")
	assert.Contains(t, text, "-bg '#2E3440'")
	assert.Contains(t, text, "--config '/opt/my kiosk/config.json'")
	assert.NotContains(t, text, "xinput")
	assert.NotContains(t, text, "xrandr")
}

func TestRenderTouchConf(t *testing.T) {
	conf, err := RenderTouchConf(TouchConfData{TouchDevice: "Goodix Capacitive TouchScreen", Matrix: "-1 0 1 0 -1 1 0 0 1"})
	require.NoError(t, err)
	assert.Contains(t, string(conf), `MatchProduct "Goodix Capacitive TouchScreen"`)
	assert.Contains(t, string(conf), `Option "TransformationMatrix" "-1 0 1 0 -1 1 0 0 1"`)

	_, err = RenderTouchConf(TouchConfData{TouchDevice: `bad"name`})
	assert.Error(t, err)
}

func TestShellEscape(t *testing.T) {
	for in, want := range map[string]string{
		"/usr/bin/xterm": "/usr/bin/xterm",
		"":               "''",
		"two words":      "'two words'",
		"it's":           `'it'\''s'`,
		"#fff":           "'#fff'",
	} {
		assert.Equal(t, want, shellEscape(in), in)
	}
}

func TestCalibrate(t *testing.T) {
	rec := &recorder{}
	line, err := Calibrate(context.Background(), rec.run, "FT5406 memory based driver", 270)
	require.NoError(t, err)
	assert.Equal(t, "xinput set-prop FT5406 memory based driver Coordinate Transformation Matrix 0 -1 1 1 0 0 0 0 1", line)
	require.Len(t, rec.calls, 1)

	_, err = Calibrate(context.Background(), rec.run, "", 0)
	assert.Error(t, err)
	_, err = Calibrate(context.Background(), rec.run, "touch", 45)
	assert.Error(t, err)
}

func TestWriteFileSkipsIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "unit")

	changed, err := writeFile(path, []byte("a"), 0o644)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = writeFile(path, []byte("a"), 0o644)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = writeFile(path, []byte("a"), 0o755)
	require.NoError(t, err)
	assert.True(t, changed)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteTouchConf(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteTouchConf(dir, "", 180)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TouchConfName), path)

	conf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(conf), `Option "TransformationMatrix" "-1 0 1 0 -1 1 0 0 1"`)
	assert.NotContains(t, string(conf), "MatchProduct")
}
