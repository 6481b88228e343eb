// desk-controller is a kiosk button dashboard for a Raspberry Pi touch
// screen. Build with: go build -o desk-controller ./cmd
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kubesail/desk-controller/config"
	"github.com/kubesail/desk-controller/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"run", "show the dashboard on the framebuffer (or --terminal)", runCommand},
		{"validate", "check a configuration file", validateCommand},
		{"check", "check that this machine can host the kiosk", checkCommand},
		{"sudoers", "derive the sudoers rule the scripts need", sudoersCommand},
		{"install", "install the kiosk service (root)", installCommand},
		{"uninstall", "remove the kiosk service (root)", uninstallCommand},
		{"calibrate", "rotate touch input to match the display", calibrateCommand},
		{"icons", "write the sample button icons", iconsCommand},
		{"version", "print the version", versionCommand},
	}
}

// errInvalid is returned after a report has already been printed.
var errInvalid = errors.New("configuration is invalid")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := dispatch(ctx, os.Args[1:])
	stop()
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(os.Stdout)
		return nil
	}
	if args[0] == "--version" {
		return versionCommand(ctx, nil)
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, args[1:])
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: desk-controller <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun \"desk-controller <command> --help\" for the flags of a command.\n")
}

// flags wraps a command's flag set with the options every command shares.
type flags struct {
	*pflag.FlagSet
	logLevel   string
	configPath string
}

func newFlags(name string, withConfig bool) *flags {
	f := &flags{FlagSet: pflag.NewFlagSet("desk-controller "+name, pflag.ContinueOnError)}
	f.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (default $"+logging.EnvLevel+" or info)")
	if withConfig {
		f.StringVarP(&f.configPath, "config", "c", config.DefaultPath(), "configuration file")
	}
	return f
}

// parse parses args. done is true when the command should stop, after
// --help or on error.
func (f *flags) parse(args []string) (done bool, err error) {
	if err := f.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return true, err
	}
	if f.NArg() > 0 {
		return true, fmt.Errorf("unexpected argument: %s", f.Arg(0))
	}
	return false, nil
}

// baseDir is the directory relative icons and "@/" scripts resolve
// against: the config file's directory when --config was given.
func (f *flags) baseDir() string {
	if f.Lookup("config") != nil && f.Changed("config") {
		if abs, err := filepath.Abs(f.configPath); err == nil {
			return filepath.Dir(abs)
		}
	}
	return config.BaseDir()
}
