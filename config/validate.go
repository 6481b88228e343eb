package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Report collects the outcome of validating one document. Errors make the
// document unusable; warnings are printed but do not stop the dashboard.
type Report struct {
	Path     string
	Errors   []string
	Warnings []string
}

// IsValid reports whether no errors were found.
func (r *Report) IsValid() bool {
	return len(r.Errors) == 0
}

// Err folds the errors into a single error, or nil.
func (r *Report) Err() error {
	if r.IsValid() {
		return nil
	}
	return fmt.Errorf("config: %s: %s", r.Path, strings.Join(r.Errors, "; "))
}

// Print writes the report in the operator-facing format.
func (r *Report) Print(w io.Writer) {
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Configuration errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Configuration warnings:")
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		fmt.Fprintln(w, "Configuration is valid.")
	}
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var validRotations = map[int64]bool{0: true, 90: true, 180: true, 270: true}

// Validate checks the document at path. Relative icon paths resolve against
// baseDir. Read and syntax failures are reported as errors, not returned.
func Validate(path, baseDir string) *Report {
	report := &Report{Path: path}
	if _, err := os.Stat(path); err != nil {
		report.errorf("Configuration file '%s' not found", path)
		return report
	}
	data, err := ReadDocument(path)
	if err != nil {
		report.errorf("Error reading configuration file: %v", err)
		return report
	}
	ValidateDocument(report, data, baseDir)
	return report
}

// ValidateDocument checks an already normalised JSON document into report.
func ValidateDocument(report *Report, data []byte, baseDir string) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		report.errorf("Invalid JSON in configuration file: %v", err)
		return
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		report.errorf("Configuration must be a JSON object")
		return
	}
	for _, section := range []string{"layout", "buttons"} {
		if _, ok := doc[section]; !ok {
			report.errorf("Missing required section '%s' in configuration", section)
			return
		}
	}

	layout, ok := doc["layout"].(map[string]any)
	if !ok {
		report.errorf("'layout' must be a JSON object")
		return
	}
	rows, columns := validateLayout(report, layout)

	if display, present := doc["display"]; present {
		if section, ok := display.(map[string]any); ok {
			validateDisplay(report, section)
		} else {
			report.errorf("'display' must be a JSON object")
		}
	}

	buttons, ok := doc["buttons"].([]any)
	if !ok {
		report.errorf("'buttons' must be a JSON array")
		return
	}
	validateButtons(report, buttons, rows, columns, baseDir)
}

// validateLayout returns the grid size, or zeros when it is unusable.
func validateLayout(report *Report, layout map[string]any) (rows, columns int) {
	rows = positiveInt(report, layout, "rows")
	columns = positiveInt(report, layout, "columns")

	if v, ok := layout["button_spacing"]; ok {
		if _, isInt := asInt(v); !isInt {
			report.errorf("'button_spacing' must be an integer")
		}
	}
	requireBool(report, layout, "fullscreen")
	requireBool(report, layout, "hide_cursor")
	if v, ok := layout["background_color"]; ok && !isColor(v) {
		report.errorf("'background_color' must be a valid hex color (e.g., '#RRGGBB')")
	}
	return rows, columns
}

func positiveInt(report *Report, section map[string]any, key string) int {
	v, ok := section[key]
	if !ok {
		report.errorf("Missing '%s' in layout configuration", key)
		return 0
	}
	n, isInt := asInt(v)
	if !isInt || n < 1 {
		report.errorf("'%s' must be a positive integer", key)
		return 0
	}
	return int(n)
}

func validateDisplay(report *Report, display map[string]any) {
	if v, ok := display["mode"]; ok {
		mode, _ := v.(string)
		if mode != ModeSingle && mode != ModeMulti {
			report.errorf("Invalid display mode '%v'. Must be one of: %s, %s", v, ModeSingle, ModeMulti)
		}
	}
	requireBool(report, display, "kiosk_mode")
	requireBool(report, display, "auto_start")
	for _, key := range []string{"primary_display", "touch_device"} {
		if v, ok := display[key]; ok {
			if _, isString := v.(string); !isString {
				report.errorf("'%s' must be a string", key)
			}
		}
	}
	if v, ok := display["rotation"]; ok {
		n, isInt := asInt(v)
		if !isInt || !validRotations[n] {
			report.errorf("'rotation' must be one of 0, 90, 180, 270")
		}
	}
}

func validateButtons(report *Report, buttons []any, rows, columns int, baseDir string) {
	if len(buttons) == 0 {
		report.warnf("No buttons defined in configuration")
		return
	}
	if capacity := rows * columns; capacity > 0 && len(buttons) > capacity {
		report.warnf("Number of buttons (%d) exceeds grid capacity (%d)", len(buttons), capacity)
	}

	type cell struct{ row, column int64 }
	seen := make(map[cell]int)

	for i, entry := range buttons {
		n := i + 1
		button, ok := entry.(map[string]any)
		if !ok {
			report.errorf("Button %d must be a JSON object", n)
			continue
		}
		name := displayName(button, n)

		_, hasName := button["name"]
		_, hasLabel := button["label"]
		if !hasName && !hasLabel {
			report.errorf("Button %d is missing 'name'", n)
		}
		for _, key := range []string{"name", "label"} {
			if v, ok := button[key]; ok {
				if _, isString := v.(string); !isString {
					report.errorf("Button %d '%s' must be a string", n, key)
				}
			}
		}
		if command, ok := button["command"]; !ok {
			report.errorf("Button %d is missing 'command'", n)
		} else if s, isString := command.(string); !isString || strings.TrimSpace(s) == "" {
			report.errorf("Button %d 'command' must be a non-empty string", n)
		}

		for _, key := range []string{"color", "text_color"} {
			if v, ok := button[key]; ok && !isColor(v) {
				report.errorf("Button %d '%s' must be a valid hex color (e.g., '#RRGGBB')", n, key)
			}
		}

		if v, ok := button["icon"]; ok {
			icon, isString := v.(string)
			switch {
			case !isString:
				report.errorf("Button %d 'icon' must be a string", n)
			case icon != "" && !fileExists(IconPath(baseDir, icon)):
				report.errorf("Icon file '%s' for button '%s' not found", icon, name)
			}
		}

		// A button without a position is placed at [0, 0].
		var row, column int64
		if v, ok := button["position"]; ok {
			position, isList := v.([]any)
			if !isList || len(position) != 2 {
				report.errorf("Button %d 'position' must be an array [row, column]", n)
				continue
			}
			var rowOK, columnOK bool
			row, rowOK = asInt(position[0])
			column, columnOK = asInt(position[1])
			if !rowOK || !columnOK {
				report.errorf("Button %d position values must be integers", n)
				continue
			}
		}
		if rows == 0 || columns == 0 {
			// Grid size is already reported as broken.
			continue
		}
		if row < 0 || row >= int64(rows) || column < 0 || column >= int64(columns) {
			report.errorf("Button %d position [%d, %d] is outside the grid (%dx%d)", n, row, column, rows, columns)
			continue
		}
		key := cell{row, column}
		if first, dup := seen[key]; dup {
			report.errorf("Button %d has the same position [%d, %d] as button %d", n, row, column, first)
			continue
		}
		seen[key] = n
	}
}

func displayName(button map[string]any, n int) string {
	for _, key := range []string{"name", "label"} {
		if s, ok := button[key].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprint(n)
}

func requireBool(report *Report, section map[string]any, key string) {
	if v, ok := section[key]; ok {
		if _, isBool := v.(bool); !isBool {
			report.errorf("'%s' must be a boolean", key)
		}
	}
}

func isColor(v any) bool {
	s, ok := v.(string)
	return ok && IsHexColor(s)
}

// asInt accepts json.Number values without a fractional part.
func asInt(v any) (int64, bool) {
	number, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := number.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}
