// Package config models the dashboard document: the grid layout, the
// optional display section and the ordered list of buttons. Documents are
// JSON (comments allowed) or YAML; both are normalised to JSON before
// decoding so that validation sees a single representation.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	// InstallDir is where the installer places the application.
	InstallDir = "/opt/desk-controller"

	// FileName is the document name looked up inside the base directory.
	FileName = "config.json"

	// ScriptPrefix marks commands that name a file in the scripts directory.
	ScriptPrefix = "@/"

	// EnvHome overrides the base directory.
	EnvHome = "DESK_CONTROLLER_HOME"

	// EnvConfig overrides the document path.
	EnvConfig = "DESK_CONTROLLER_CONFIG"
)

// Defaults applied to absent fields.
const (
	DefaultRows            = 2
	DefaultColumns         = 3
	DefaultButtonSpacing   = 10
	DefaultBackgroundColor = "#2E3440"
	DefaultButtonColor     = "#88C0D0"
	DefaultTextColor       = "#ECEFF4"
	DefaultButtonName      = "Button"
)

// Display modes.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Layout is the grid geometry and window behaviour.
type Layout struct {
	Rows            int    `json:"rows"`
	Columns         int    `json:"columns"`
	ButtonSpacing   int    `json:"button_spacing"`
	BackgroundColor string `json:"background_color"`
	Fullscreen      bool   `json:"fullscreen"`
	HideCursor      bool   `json:"hide_cursor"`
}

// Display selects the output and input devices used in kiosk mode.
type Display struct {
	Mode           string `json:"mode,omitempty"`
	KioskMode      bool   `json:"kiosk_mode"`
	AutoStart      bool   `json:"auto_start"`
	PrimaryDisplay string `json:"primary_display,omitempty"`
	// Rotation in degrees clockwise: 0, 90, 180 or 270.
	Rotation    int    `json:"rotation,omitempty"`
	TouchDevice string `json:"touch_device,omitempty"`
}

// Button is one grid cell.
type Button struct {
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Command   string `json:"command"`
	Color     string `json:"color,omitempty"`
	TextColor string `json:"text_color,omitempty"`
	Position  [2]int `json:"position"`
}

// Row returns the zero-based grid row.
func (b Button) Row() int { return b.Position[0] }

// Column returns the zero-based grid column.
func (b Button) Column() int { return b.Position[1] }

// IsScript reports whether the command refers to the scripts directory.
func (b Button) IsScript() bool { return strings.HasPrefix(b.Command, ScriptPrefix) }

// Config is a decoded dashboard document.
type Config struct {
	Layout  Layout   `json:"layout"`
	Display Display  `json:"display"`
	Buttons []Button `json:"buttons"`
}

// Default returns a Config with every layout default filled in and no buttons.
func Default() *Config {
	return &Config{
		Layout: Layout{
			Rows:            DefaultRows,
			Columns:         DefaultColumns,
			ButtonSpacing:   DefaultButtonSpacing,
			BackgroundColor: DefaultBackgroundColor,
			Fullscreen:      true,
		},
		Display: Display{Mode: ModeSingle},
	}
}

// Load reads and decodes the document at path. It does not validate it;
// callers run Validate first when they need the invariants.
func Load(path string) (*Config, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a normalised JSON document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Display.Mode == "" {
		c.Display.Mode = ModeSingle
	}
	for i := range c.Buttons {
		b := &c.Buttons[i]
		if b.Name == "" {
			b.Name = b.Label
		}
		if b.Name == "" {
			b.Name = DefaultButtonName
		}
		if b.Color == "" {
			b.Color = DefaultButtonColor
		}
		if b.TextColor == "" {
			b.TextColor = DefaultTextColor
		}
	}
}

// ReadDocument returns the file at path as plain JSON. YAML files (.yaml,
// .yml) are converted; JSON files may carry // and /* */ comments.
func ReadDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("config: convert %s: %w", path, err)
		}
		return out, nil
	default:
		return bytes.TrimSpace(jsonc.ToJSON(data)), nil
	}
}

// ButtonAt returns the first button placed at row, column.
func (c *Config) ButtonAt(row, column int) (Button, bool) {
	for _, b := range c.Buttons {
		if b.Row() == row && b.Column() == column {
			return b, true
		}
	}
	return Button{}, false
}

// Find returns the index of the button with the given name.
func (c *Config) Find(name string) (int, bool) {
	for i, b := range c.Buttons {
		if strings.EqualFold(b.Name, name) {
			return i, true
		}
	}
	return -1, false
}

// InGrid reports whether the button lies inside the configured grid.
func (c *Config) InGrid(b Button) bool {
	return b.Row() >= 0 && b.Row() < c.Layout.Rows && b.Column() >= 0 && b.Column() < c.Layout.Columns
}

// BaseDir returns the application directory: $DESK_CONTROLLER_HOME when set,
// the install directory when it holds a document, else the working directory.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	if fileExists(filepath.Join(InstallDir, FileName)) {
		return InstallDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// DefaultPath returns $DESK_CONTROLLER_CONFIG or the document inside BaseDir.
func DefaultPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}
	return filepath.Join(BaseDir(), FileName)
}

// ScriptsDir is the directory "@/" commands resolve against.
func ScriptsDir(baseDir string) string {
	return filepath.Join(baseDir, "scripts")
}

// IconPath resolves a button icon against baseDir. Empty icons stay empty.
func IconPath(baseDir, icon string) string {
	if icon == "" || filepath.IsAbs(icon) {
		return icon
	}
	return filepath.Join(baseDir, icon)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
