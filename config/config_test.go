package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
  // comments are allowed
  "layout": {"rows": 3},
  "buttons": [
    {"label": "Terminal", "command": "lxterminal", "position": [1, 2]},
    {"command": "true"}
  ]
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Layout.Rows)
	assert.Equal(t, DefaultColumns, cfg.Layout.Columns)
	assert.Equal(t, DefaultButtonSpacing, cfg.Layout.ButtonSpacing)
	assert.Equal(t, DefaultBackgroundColor, cfg.Layout.BackgroundColor)
	assert.True(t, cfg.Layout.Fullscreen)
	assert.Equal(t, ModeSingle, cfg.Display.Mode)

	require.Len(t, cfg.Buttons, 2)
	assert.Equal(t, "Terminal", cfg.Buttons[0].Name)
	assert.Equal(t, 1, cfg.Buttons[0].Row())
	assert.Equal(t, 2, cfg.Buttons[0].Column())
	assert.Equal(t, DefaultButtonColor, cfg.Buttons[0].Color)
	assert.Equal(t, DefaultTextColor, cfg.Buttons[0].TextColor)
	assert.Equal(t, DefaultButtonName, cfg.Buttons[1].Name)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `layout:
  rows: 1
  columns: 2
  fullscreen: false
display:
  rotation: 90
buttons:
  - name: Reboot
    command: "@/reboot.sh"
    position: [0, 1]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Layout.Fullscreen)
	assert.Equal(t, 90, cfg.Display.Rotation)
	require.Len(t, cfg.Buttons, 1)
	assert.True(t, cfg.Buttons[0].IsScript())

	report := Validate(path, dir)
	assert.True(t, report.IsValid(), report.Errors)
}

func TestFindAndButtonAt(t *testing.T) {
	cfg := Default()
	cfg.Buttons = []Button{
		{Name: "Files", Position: [2]int{0, 0}},
		{Name: "Browser", Position: [2]int{1, 2}},
	}

	i, ok := cfg.Find("browser")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = cfg.Find("missing")
	assert.False(t, ok)

	b, ok := cfg.ButtonAt(1, 2)
	require.True(t, ok)
	assert.Equal(t, "Browser", b.Name)
	assert.True(t, cfg.InGrid(b))
	assert.False(t, cfg.InGrid(Button{Position: [2]int{2, 0}}))
}

func TestBaseDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	t.Setenv(EnvConfig, "")
	assert.Equal(t, dir, BaseDir())
	assert.Equal(t, filepath.Join(dir, FileName), DefaultPath())
	assert.Equal(t, filepath.Join(dir, "scripts"), ScriptsDir(BaseDir()))

	t.Setenv(EnvConfig, "/tmp/other.json")
	assert.Equal(t, "/tmp/other.json", DefaultPath())
}

func TestIconPath(t *testing.T) {
	assert.Equal(t, "", IconPath("/opt/x", ""))
	assert.Equal(t, "/usr/share/icons/a.png", IconPath("/opt/x", "/usr/share/icons/a.png"))
	assert.Equal(t, "/opt/x/icons/a.png", IconPath("/opt/x", "icons/a.png"))
}
