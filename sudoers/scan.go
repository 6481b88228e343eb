// Package sudoers derives the privileged commands the dashboard's scripts
// need and installs a matching NOPASSWD fragment under /etc/sudoers.d.
//
// Scripts are parsed as shell where possible so that only real "sudo"
// invocations count; anything that does not parse falls back to a pattern
// match on the raw text.
package sudoers

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/kubesail/desk-controller/config"
)

// sudoPattern is the fallback for files that are not parseable shell.
// Quotes and parentheses end the match so that calls embedded in other
// languages ("os.system('sudo reboot')") yield the bare command.
var sudoPattern = regexp.MustCompile(`\bsudo\s+([^;&|<>\n"'()]+)`)

// sudo options that consume the following word.
var optionsWithArgument = map[string]bool{
	"-u": true, "-g": true, "-h": true, "-p": true, "-C": true, "-D": true,
	"-r": true, "-t": true, "-U": true, "-T": true, "-R": true,
}

// Scanner finds commands run through sudo.
type Scanner struct {
	// LookPath resolves bare command names; exec.LookPath when nil.
	LookPath func(string) (string, error)
	Logger   *slog.Logger
}

// NewScanner returns a Scanner using exec.LookPath.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{LookPath: exec.LookPath, Logger: logger}
}

// Scan returns the absolute paths of every command invoked with sudo by the
// scripts in scriptsDir, by scripts the document at configPath references,
// and by the document's inline commands, sorted and without duplicates.
// configPath may be empty.
func (s *Scanner) Scan(scriptsDir, configPath string) ([]string, error) {
	var found []string

	files, err := candidateScripts(scriptsDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.Logger.Warn("scripts directory not found", "dir", scriptsDir)
	case err != nil:
		return nil, fmt.Errorf("sudoers: list %s: %w", scriptsDir, err)
	}

	var inline []string
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			s.Logger.Warn("could not scan configuration", "path", configPath, "error", err)
		} else {
			for _, b := range cfg.Buttons {
				if !b.IsScript() {
					inline = append(inline, b.Command)
					continue
				}
				name, _, _ := strings.Cut(strings.TrimPrefix(b.Command, config.ScriptPrefix), " ")
				path := filepath.Join(scriptsDir, filepath.Clean("/"+name))
				if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
					files = append(files, path)
				}
			}
		}
	}

	seenFiles := make(map[string]bool)
	for _, path := range files {
		if seenFiles[path] {
			continue
		}
		seenFiles[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			s.Logger.Warn("could not scan script", "path", path, "error", err)
			continue
		}
		found = append(found, ScanScript(path, data)...)
	}
	for _, command := range inline {
		found = append(found, ScanScript("", []byte(command))...)
	}

	return s.resolve(found), nil
}

func (s *Scanner) resolve(names []string) []string {
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		resolved := name
		if !filepath.IsAbs(name) {
			if full, err := lookPath(name); err == nil && full != "" {
				resolved = full
			}
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, resolved)
	}
	sort.Strings(out)
	return out
}

// candidateScripts lists regular files in dir that are .sh, .py or executable.
func candidateScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []string
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".sh") || strings.HasSuffix(name, ".py") || info.Mode().Perm()&0o111 != 0 {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// ScanScript returns the commands invoked through sudo in one script, in
// order of appearance. name is used to choose the parser; an empty name is
// treated as a shell fragment.
func ScanScript(name string, data []byte) []string {
	if isShell(name, data) {
		if commands, err := scanShell(name, data); err == nil {
			return commands
		}
	}
	return scanPattern(data)
}

func isShell(name string, data []byte) bool {
	switch {
	case name == "", strings.HasSuffix(name, ".sh"), strings.HasSuffix(name, ".bash"):
		return true
	case strings.HasSuffix(name, ".py"):
		return false
	}
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if !bytes.HasPrefix(line, []byte("#!")) {
		return true
	}
	return bytes.Contains(line, []byte("sh"))
}

func scanShell(name string, data []byte) ([]string, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(bytes.NewReader(data), name)
	if err != nil {
		return nil, err
	}
	var commands []string
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		words := make([]string, len(call.Args))
		for i, word := range call.Args {
			words[i] = literal(word)
		}
		if filepath.Base(words[0]) != "sudo" {
			return true
		}
		if command := commandAfterSudo(words[1:]); command != "" {
			commands = append(commands, command)
		}
		return true
	})
	return commands, nil
}

// literal returns the value of a word made only of literal and quoted
// text, or "" when it depends on expansions.
func literal(word *syntax.Word) string {
	var b strings.Builder
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
			b.WriteString(part.Value)
		case *syntax.SglQuoted:
			b.WriteString(part.Value)
		case *syntax.DblQuoted:
			for _, inner := range part.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return ""
				}
				b.WriteString(lit.Value)
			}
		default:
			return ""
		}
	}
	return b.String()
}

func scanPattern(data []byte) []string {
	var commands []string
	for _, match := range sudoPattern.FindAllSubmatch(data, -1) {
		if command := commandAfterSudo(strings.Fields(string(match[1]))); command != "" {
			commands = append(commands, command)
		}
	}
	return commands
}

// commandAfterSudo skips sudo's own options and returns the command word.
// Non-literal words (variables, substitutions) yield "".
func commandAfterSudo(words []string) string {
	for i := 0; i < len(words); i++ {
		word := words[i]
		switch {
		case word == "--":
			if i+1 < len(words) {
				return words[i+1]
			}
			return ""
		case optionsWithArgument[word]:
			i++
		case strings.HasPrefix(word, "-"):
		case strings.Contains(word, "=") && !strings.Contains(word, "/"):
			// VAR=value environment assignment.
		default:
			return word
		}
	}
	return ""
}
