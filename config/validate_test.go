package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocument = `{
  "layout": {"rows": 2, "columns": 3, "button_spacing": 10, "background_color": "#2E3440", "fullscreen": true},
  "display": {"mode": "single", "kiosk_mode": true, "primary_display": "DSI-1", "rotation": 180},
  "buttons": [
    {"name": "Terminal", "icon": "icons/terminal.png", "command": "lxterminal", "color": "#88C0D0", "text_color": "#ECEFF4", "position": [0, 0]},
    {"name": "Reboot", "command": "@/reboot.sh", "position": [1, 2]}
  ]
}`

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name         string
		doc          string
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name: "valid",
			doc:  validDocument,
		},
		{
			name:       "not-an-object",
			doc:        `[1, 2]`,
			wantErrors: []string{"Configuration must be a JSON object"},
		},
		{
			name:       "syntax",
			doc:        `{"layout": `,
			wantErrors: []string{"Invalid JSON"},
		},
		{
			name:       "missing-buttons",
			doc:        `{"layout": {"rows": 1, "columns": 1}}`,
			wantErrors: []string{"Missing required section 'buttons'"},
		},
		{
			name: "bad-layout-types",
			doc: `{"layout": {"rows": 0, "columns": 1.5, "button_spacing": "x", "fullscreen": "yes",
			       "hide_cursor": 1, "background_color": "#12345"}, "buttons": []}`,
			wantErrors: []string{
				"'rows' must be a positive integer",
				"'columns' must be a positive integer",
				"'button_spacing' must be an integer",
				"'fullscreen' must be a boolean",
				"'hide_cursor' must be a boolean",
				"'background_color' must be a valid hex color",
			},
			wantWarnings: []string{"No buttons defined"},
		},
		{
			name:       "missing-rows",
			doc:        `{"layout": {"columns": 2}, "buttons": [{"name": "a", "command": "b"}]}`,
			wantErrors: []string{"Missing 'rows' in layout configuration"},
		},
		{
			name: "bad-display",
			doc: `{"layout": {"rows": 1, "columns": 1}, "buttons": [{"name": "a", "command": "b"}],
			       "display": {"mode": "mirror", "kiosk_mode": "on", "auto_start": 0, "primary_display": 7, "rotation": 45}}`,
			wantErrors: []string{
				"Invalid display mode 'mirror'",
				"'kiosk_mode' must be a boolean",
				"'auto_start' must be a boolean",
				"'primary_display' must be a string",
				"'rotation' must be one of",
			},
		},
		{
			name: "button-fields",
			doc: `{"layout": {"rows": 2, "columns": 2}, "buttons": [
			        "oops",
			        {"icon": 3, "color": "blue", "text_color": "#FFF"},
			        {"name": "x", "command": "", "position": [0]},
			        {"name": "y", "command": "z", "position": [0, "1"]}
			      ]}`,
			wantErrors: []string{
				"Button 1 must be a JSON object",
				"Button 2 is missing 'name'",
				"Button 2 is missing 'command'",
				"Button 2 'color' must be a valid hex color",
				"Button 2 'text_color' must be a valid hex color",
				"Button 2 'icon' must be a string",
				"Button 3 'command' must be a non-empty string",
				"Button 3 'position' must be an array [row, column]",
				"Button 4 position values must be integers",
			},
		},
		{
			name: "bounds-and-duplicates",
			doc: `{"layout": {"rows": 2, "columns": 2}, "buttons": [
			        {"name": "a", "command": "a", "position": [0, 0]},
			        {"name": "b", "command": "b", "position": [2, 0]},
			        {"name": "c", "command": "c", "position": [0, -1]},
			        {"name": "d", "command": "d", "position": [0, 0]}
			      ]}`,
			wantErrors: []string{
				"Button 2 position [2, 0] is outside the grid (2x2)",
				"Button 3 position [0, -1] is outside the grid (2x2)",
				"Button 4 has the same position [0, 0] as button 1",
			},
		},
		{
			name: "capacity",
			doc: `{"layout": {"rows": 1, "columns": 1}, "buttons": [
			        {"name": "a", "command": "a", "position": [0, 0]},
			        {"name": "b", "command": "b", "position": [0, 0]}
			      ]}`,
			wantErrors:   []string{"Button 2 has the same position"},
			wantWarnings: []string{"Number of buttons (2) exceeds grid capacity (1)"},
		},
		{
			name: "implicit-position",
			doc: `{"layout": {"rows": 2, "columns": 2}, "buttons": [
			        {"name": "a", "command": "a"},
			        {"name": "b", "command": "b"},
			        {"name": "c", "command": "c", "position": [0, 0]}
			      ]}`,
			wantErrors: []string{
				"Button 2 has the same position [0, 0] as button 1",
				"Button 3 has the same position [0, 0] as button 1",
			},
		},
		{
			name: "non-string-names",
			doc: `{"layout": {"rows": 1, "columns": 2}, "buttons": [
			        {"name": 5, "command": "a", "position": [0, 0]},
			        {"label": ["x"], "command": "b", "position": [0, 1]}
			      ]}`,
			wantErrors: []string{
				"Button 1 'name' must be a string",
				"Button 2 'label' must be a string",
			},
		},
		{
			name:       "missing-icon",
			doc:        `{"layout": {"rows": 1, "columns": 1}, "buttons": [{"name": "a", "command": "a", "icon": "icons/nope.png"}]}`,
			wantErrors: []string{"Icon file 'icons/nope.png' for button 'a' not found"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "icons/terminal.png", "png")
			report := &Report{Path: "config.json"}
			ValidateDocument(report, []byte(test.doc), dir)

			assertContainsAll(t, report.Errors, test.wantErrors)
			assertContainsAll(t, report.Warnings, test.wantWarnings)
			assert.Len(t, report.Errors, len(test.wantErrors), "errors: %v", report.Errors)
			assert.Equal(t, len(test.wantErrors) == 0, report.IsValid())
		})
	}
}

func assertContainsAll(t *testing.T, got, want []string) {
	t.Helper()
	for _, w := range want {
		found := false
		for _, g := range got {
			if strings.Contains(g, w) {
				found = true
				break
			}
		}
		assert.True(t, found, "missing %q in %v", w, got)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	report := Validate(filepath.Join(dir, "config.json"), dir)
	require.False(t, report.IsValid())
	assert.Contains(t, report.Errors[0], "not found")
	assert.Error(t, report.Err())

	path := writeFile(t, dir, "config.json", validDocument)
	writeFile(t, dir, "icons/terminal.png", "png")
	report = Validate(path, dir)
	assert.True(t, report.IsValid(), report.Errors)
	assert.NoError(t, report.Err())
}

func TestValidDocumentsLoad(t *testing.T) {
	for _, doc := range []string{
		validDocument,
		`{"layout": {"rows": 1, "columns": 1}, "buttons": [{"label": "only", "command": "a"}]}`,
	} {
		dir := t.TempDir()
		writeFile(t, dir, "icons/terminal.png", "png")
		report := &Report{}
		ValidateDocument(report, []byte(doc), dir)
		require.True(t, report.IsValid(), "%v", report.Errors)
		_, err := Parse([]byte(doc))
		assert.NoError(t, err)
	}

	_, err := Parse([]byte(`{"buttons": [{"name": 5, "command": "a"}]}`))
	assert.Error(t, err)
}

func TestReportPrint(t *testing.T) {
	var buf bytes.Buffer
	(&Report{}).Print(&buf)
	assert.Equal(t, "Configuration is valid.\n", buf.String())

	buf.Reset()
	(&Report{Errors: []string{"bad"}, Warnings: []string{"meh"}}).Print(&buf)
	assert.Equal(t, "Configuration errors:\n  - bad\nConfiguration warnings:\n  - meh\n", buf.String())
}
