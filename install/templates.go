package install

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"shellEscape": shellEscape,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Names of the generated files.
const (
	UnitName      = "desk-controller.service"
	SessionName   = "kiosk-session.sh"
	DesktopName   = "desk-controller.desktop"
	TouchConfName = "99-desk-controller-touch.conf"
)

// Session modes for the unit.
const (
	ModeFramebuffer = "framebuffer"
	ModeX11         = "x11"
)

// UnitData fills desk-controller.service.
type UnitData struct {
	User          string
	InstallDir    string
	Binary        string
	ConfigPath    string
	SessionScript string
	Socket        string
	// RuntimeDirectory is derived from Socket when it lives under /run.
	RuntimeDirectory string
	Mode             string
	TTY              string
	VT               int
	HideCursor       bool
}

// SessionData fills kiosk-session.sh.
type SessionData struct {
	Unit           string
	Binary         string
	ConfigPath     string
	Background     string
	HideCursor     bool
	TouchDevice    string
	Matrix         string
	PrimaryDisplay string
	Rotate         string
}

// DesktopData fills the autostart entry.
type DesktopData struct {
	Binary     string
	ConfigPath string
	InstallDir string
	AutoStart  bool
}

// TouchConfData fills the Xorg input snippet.
type TouchConfData struct {
	TouchDevice string
	Matrix      string
}

// RenderUnit renders the systemd unit.
func RenderUnit(d UnitData) ([]byte, error) {
	if d.TTY == "" {
		d.TTY = "tty1"
	}
	if d.VT == 0 {
		d.VT = 1
	}
	if d.RuntimeDirectory == "" {
		d.RuntimeDirectory = runtimeDirectory(d.Socket)
	}
	return render(UnitName, d)
}

// runtimeDirectory returns the directory systemd must create for socket,
// relative to /run, or "" when socket is elsewhere.
func runtimeDirectory(socket string) string {
	if socket == "" {
		return ""
	}
	dir := filepath.Dir(filepath.Clean(socket)) + "/"
	for _, root := range []string{"/run/", "/var/run/"} {
		if rel, ok := strings.CutPrefix(dir, root); ok && rel != "" {
			return strings.TrimSuffix(rel, "/")
		}
	}
	return ""
}

// RenderSession renders the X session script started by xinit.
func RenderSession(d SessionData) ([]byte, error) {
	if d.Unit == "" {
		d.Unit = UnitName
	}
	return render(SessionName, d)
}

// RenderDesktop renders the autostart desktop entry.
func RenderDesktop(d DesktopData) ([]byte, error) {
	return render(DesktopName, d)
}

// RenderTouchConf renders the Xorg snippet that rotates touch input.
func RenderTouchConf(d TouchConfData) ([]byte, error) {
	if strings.ContainsAny(d.TouchDevice, "\"\n") {
		return nil, fmt.Errorf("install: invalid touch device name %q", d.TouchDevice)
	}
	return render(TouchConfName, d)
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return nil, fmt.Errorf("install: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// shellEscape single-quotes s for /bin/sh.
func shellEscape(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./:=,+@") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
