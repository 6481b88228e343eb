package pkg

import (
	"fmt"
	"image/color"
	"math"
	"net"
	"strings"

	human "github.com/dustin/go-humanize"
	"github.com/fogleman/gg"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
)

// Snapshot is one sample for the stats screen.
type Snapshot struct {
	CPU, Mem  float64
	DiskUsed  uint64
	DiskTotal uint64
	DiskFound bool
	// Addrs maps "eth" and "wifi" to an IPv4 address, "" when down.
	Addrs map[string]string
}

// Sample reads CPU, memory, the partition mounted under diskMountPrefix and
// the eth0/wlan0 addresses.
func Sample(diskMountPrefix string) Snapshot {
	var s Snapshot
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		s.CPU = usage[0]
	}
	if v, err := mem.VirtualMemory(); err == nil {
		s.Mem = v.UsedPercent
	}

	parts, _ := disk.Partitions(false)
	for _, p := range parts {
		if !strings.HasPrefix(p.Mountpoint, diskMountPrefix) {
			continue
		}
		u, err := disk.Usage(p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		s.DiskUsed, s.DiskTotal, s.DiskFound = u.Used, u.Total, true
		break
	}

	s.Addrs = map[string]string{}
	interfaces, _ := net.Interfaces()
	for _, inter := range interfaces {
		label := map[string]string{"eth0": "eth", "wlan0": "wifi"}[inter.Name]
		if label == "" {
			continue
		}
		s.Addrs[label] = ""
		addrs, _ := inter.Addrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				s.Addrs[label] = ipnet.IP.String()
			}
		}
	}
	return s
}

var (
	statsBackground = color.RGBA{51, 51, 51, 255}
	statsLabel      = color.RGBA{160, 160, 160, 255}
	statsValue      = color.RGBA{180, 180, 180, 255}
	statsDim        = color.RGBA{100, 100, 100, 255}
	statsBar        = color.RGBA{70, 70, 70, 255}
)

func loadColor(percent float64) color.RGBA {
	switch {
	case percent > 70:
		return color.RGBA{244, 199, 195, 255}
	case percent > 40:
		return color.RGBA{252, 232, 178, 255}
	}
	return color.RGBA{183, 225, 205, 255}
}

// renderStats draws the stats screen. Positions are laid out for a 240px
// square and scaled to the screen.
func renderStats(dc *gg.Context, s Snapshot, f *fonts) {
	w, h := float64(dc.Width()), float64(dc.Height())
	k := math.Min(w, h) / 240
	dc.SetColor(statsBackground)
	dc.Clear()

	// center the 240 box
	dc.Push()
	dc.Translate((w-240*k)/2, (h-240*k)/2)
	dc.Scale(k, k)
	defer dc.Pop()

	text := func(x, y, size float64, c color.Color, content string, bold bool, ax float64) {
		dc.SetFontFace(f.face(size, bold))
		dc.SetColor(c)
		dc.DrawStringAnchored(content, x, y, ax, 0.5)
	}

	const barWidth, barTop = 200, 105
	dc.DrawRoundedRectangle(20, barTop, barWidth, 40, 5)
	dc.SetColor(statsLabel)
	dc.Fill()
	dc.DrawRoundedRectangle(21, barTop+1, barWidth-2, 38, 4)
	dc.SetColor(statsBackground)
	dc.Fill()
	if s.DiskFound {
		used := float64(s.DiskUsed) / float64(s.DiskTotal)
		dc.DrawRoundedRectangle(21, barTop+1, used*(barWidth-2), 38, 4)
		dc.SetColor(statsBar)
		dc.Fill()
		text(120, 125, 22, statsLabel, fmt.Sprintf("%s / %s", human.Bytes(s.DiskUsed), human.Bytes(s.DiskTotal)), false, 0.5)
	} else {
		text(120, 125, 22, statsLabel, "No disk found", false, 0.5)
	}

	text(70, 28, 22, statsLabel, "CPU", false, 0.5)
	text(70, 66, 30, loadColor(s.CPU), fmt.Sprintf("%v%%", math.Round(s.CPU)), true, 0.5)
	text(170, 28, 22, statsLabel, "MEM", false, 0.5)
	text(170, 66, 30, loadColor(s.Mem), fmt.Sprintf("%v%%", math.Round(s.Mem)), true, 0.5)

	for label, y := range map[string]float64{"eth": 180, "wifi": 210} {
		ip, ok := s.Addrs[label]
		if !ok {
			continue
		}
		text(130, y, 22, statsLabel, label, false, 0)
		if ip == "" {
			text(110, y, 22, statsDim, "Disconnected", true, 1)
			continue
		}
		size := 26.0
		dc.SetFontFace(f.face(size, true))
		if width, _ := dc.MeasureString(ip); width > 150 {
			size = 22
		}
		text(110, y, size, statsValue, ip, true, 1)
	}
}
