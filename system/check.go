package system

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	human "github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"golang.org/x/sys/unix"
)

// Status of one check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "ok"
	case Warn:
		return "warn"
	default:
		return "FAIL"
	}
}

// Item is one line of the check report.
type Item struct {
	Name   string
	Status Status
	Detail string
}

// Result is the outcome of Check.
type Result struct {
	Items []Item
}

// OK reports whether no item failed.
func (r *Result) OK() bool {
	for _, item := range r.Items {
		if item.Status == Fail {
			return false
		}
	}
	return true
}

// Failures returns the failed items.
func (r *Result) Failures() []Item {
	var failed []Item
	for _, item := range r.Items {
		if item.Status == Fail {
			failed = append(failed, item)
		}
	}
	return failed
}

// Print writes one line per item.
func (r *Result) Print(w io.Writer) {
	for _, item := range r.Items {
		if item.Detail == "" {
			fmt.Fprintf(w, "[%-4s] %s\n", item.Status, item.Name)
			continue
		}
		fmt.Fprintf(w, "[%-4s] %s: %s\n", item.Status, item.Name, item.Detail)
	}
}

func (r *Result) add(name string, status Status, format string, args ...any) {
	r.Items = append(r.Items, Item{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
}

// CheckOptions tunes Check.
type CheckOptions struct {
	// BypassDSICheck turns a missing DSI panel into a warning.
	BypassDSICheck bool
	// AllowNonPi turns a non-Pi host into a warning (development machines).
	AllowNonPi bool
	// PrimaryDisplay is the xrandr output expected to be connected.
	PrimaryDisplay string
}

// Check verifies the machine can host the kiosk.
func (h *Host) Check(ctx context.Context, opts CheckOptions) *Result {
	result := &Result{}

	switch {
	case h.IsRaspberryPi():
		result.add("raspberry pi", Pass, "%s", orUnknown(h.Model()))
	case opts.AllowNonPi:
		result.add("raspberry pi", Warn, "not detected, continuing")
	default:
		result.add("raspberry pi", Fail, "this application is designed to run on a Raspberry Pi")
	}

	switch {
	case h.IsDSIConnected(ctx):
		result.add("dsi display", Pass, "connected")
	case opts.BypassDSICheck:
		result.add("dsi display", Warn, "not detected, bypassed")
	default:
		result.add("dsi display", Fail, "no DSI display detected (use --bypass-dsi-check for HDMI)")
	}

	if opts.PrimaryDisplay != "" {
		if out, err := h.DisplayGeometry(ctx, opts.PrimaryDisplay); err == nil {
			result.add("primary display", Pass, "%s", out)
		} else {
			result.add("primary display", Warn, "%v", err)
		}
	}

	if found, how := h.DetectTouchScreen(ctx); found {
		result.add("touch screen", Pass, "%s", how)
	} else {
		result.add("touch screen", Warn, "none detected, buttons need a mouse")
	}

	if h.Root == "" {
		h.addHostFacts(result)
	}
	return result
}

func (h *Host) addHostFacts(result *Result) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		result.add("kernel", Pass, "%s %s", unix.ByteSliceToString(uts.Release[:]), unix.ByteSliceToString(uts.Machine[:]))
	}
	if info, err := host.Info(); err == nil {
		uptime := time.Duration(info.Uptime) * time.Second
		result.add("os", Pass, "%s %s, up %s", info.Platform, info.PlatformVersion, strings.TrimSpace(human.RelTime(time.Now().Add(-uptime), time.Now(), "", "")))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status := Pass
		if vm.Total < 512*human.MiByte {
			status = Warn
		}
		result.add("memory", status, "%s total, %s available", human.IBytes(vm.Total), human.IBytes(vm.Available))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown model"
	}
	return s
}
