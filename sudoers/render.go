package sudoers

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

//go:embed templates/sudoers.tmpl
var templateFS embed.FS

var fragmentTemplate = template.Must(template.New("sudoers.tmpl").Funcs(template.FuncMap{
	"join": joinCommands,
}).Option("missingkey=error").ParseFS(templateFS, "templates/sudoers.tmpl"))

var userPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)

// Fragment is the input to the sudoers template.
type Fragment struct {
	User     string
	Commands []string
	// Sources are listed as comments, typically the scanned directories.
	Sources []string
}

// Entry returns the bare rule line, or "" when there are no commands.
func Entry(user string, commands []string) string {
	if len(commands) == 0 {
		return ""
	}
	return user + " ALL=(ALL) NOPASSWD: " + joinCommands(commands)
}

// Render produces the complete fragment file. It returns "" when there is
// nothing to grant.
func Render(f Fragment) (string, error) {
	if !userPattern.MatchString(f.User) {
		return "", fmt.Errorf("sudoers: invalid user name %q", f.User)
	}
	if len(f.Commands) == 0 {
		return "", nil
	}
	for _, command := range f.Commands {
		if strings.ContainsAny(command, "\n\x00") {
			return "", fmt.Errorf("sudoers: invalid command %q", command)
		}
	}
	var buf bytes.Buffer
	if err := fragmentTemplate.Execute(&buf, f); err != nil {
		return "", fmt.Errorf("sudoers: render: %w", err)
	}
	return buf.String(), nil
}

func joinCommands(commands []string) string {
	escaped := make([]string, len(commands))
	for i, command := range commands {
		escaped[i] = escape(command)
	}
	return strings.Join(escaped, ", ")
}

// escape backslash-escapes the characters sudoers treats specially in a Cmnd list.
func escape(command string) string {
	var b strings.Builder
	for _, r := range command {
		switch r {
		case ',', ':', '=', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
