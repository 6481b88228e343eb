// Package pkg runs the kiosk dashboard on a Linux framebuffer: it draws
// the button grid, launches commands on touch, and serves a small control
// API on a unix socket.
package pkg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/gonutz/framebuffer"
	"github.com/rakyll/statik/fs"

	"github.com/kubesail/desk-controller/config"
	"github.com/kubesail/desk-controller/launcher"
	_ "github.com/kubesail/desk-controller/statik"
	"github.com/kubesail/desk-controller/system"
	"github.com/kubesail/desk-controller/touch"
)

//go:generate statik -src=../assets -dest=.. -f

// ErrNoButton is returned when a press names no configured button.
var ErrNoButton = errors.New("no such button")

// Screen is a drawable output such as /dev/fb0.
type Screen interface {
	draw.Image
	Close()
}

type mode int

const (
	modeDashboard mode = iota
	modeStats
	modeOverlay
)

// KioskFrameBuffer owns the screen and the dashboard state.
type KioskFrameBuffer struct {
	config    *Config
	logger    *slog.Logger
	launcher  *launcher.Launcher
	fonts     *fonts
	screen    Screen
	mirror    *Display
	backlight *Backlight
	touchPath string
	rotation  int

	// paint serializes drawing on screen and mirror. It is taken before mu.
	paint sync.Mutex

	mu          sync.Mutex
	dash        *config.Config
	geom        Geometry
	icons       map[int]image.Image
	pressed     int
	banner      string
	bannerUntil time.Time
	mode        mode
	swallow     bool
	stop        context.CancelFunc
}

// preferredFramebuffers are driver names picked over fb0 when present.
var preferredFramebuffers = []string{"fb_st7789v"}

// FindFramebuffer returns the framebuffer device name (such as "fb1") to
// draw on, reading /sys/class/graphics under root.
func FindFramebuffer(root string) (string, error) {
	dir := filepath.Join(root, "sys/class/graphics")
	items, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not enumerate framebuffers: %w", err)
	}
	var found []string
	for _, item := range items {
		if !strings.HasPrefix(item.Name(), "fb") || item.Name() == "fbcon" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, item.Name(), "name"))
		if err != nil {
			continue
		}
		for _, name := range preferredFramebuffers {
			if strings.TrimSpace(string(data)) == name {
				return item.Name(), nil
			}
		}
		found = append(found, item.Name())
	}
	if len(found) == 0 {
		return "", errors.New("no framebuffer found")
	}
	sort.Strings(found)
	return found[0], nil
}

// OpenScreen opens the configured framebuffer, discovering it when unset.
func OpenScreen(cfg *Config) (Screen, error) {
	name := cfg.FrameBuffer
	if name == "" {
		var err error
		if name, err = FindFramebuffer("/"); err != nil {
			return nil, err
		}
	}
	fb, err := framebuffer.Open("/dev/" + strings.TrimPrefix(name, "/dev/"))
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// NewFrameBuffer loads the dashboard document and prepares to draw on
// screen. Hardware extras (backlight, touch, SPI mirror) are enabled when
// configured and available; their absence is logged, not fatal.
func NewFrameBuffer(cfg Config, screen Screen, logger *slog.Logger) (*KioskFrameBuffer, error) {
	cfg.setDefaults()
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = screen.Bounds().Dx(), screen.Bounds().Dy()
	}
	b := &KioskFrameBuffer{
		config:   &cfg,
		logger:   logger,
		launcher: launcher.New(config.ScriptsDir(cfg.BaseDir), logger),
		fonts:    newFonts(cfg.FontRegular, cfg.FontBold, logger),
		screen:   screen,
		pressed:  -1,
	}

	dash, err := b.loadDocument()
	if err != nil {
		return nil, err
	}
	b.rotation = dash.Display.Rotation
	if !cfg.NoTouch {
		b.touchPath, err = touch.FindDevice(system.Local(), firstNonEmpty(cfg.TouchDevice, dash.Display.TouchDevice))
		if err != nil {
			logger.Warn("touch disabled", "err", err)
		}
	}
	b.apply(dash)

	if cfg.BacklightPin >= 0 {
		if b.backlight, err = OpenBacklight(cfg.BacklightPin, cfg.IdleTimeout); err != nil {
			logger.Warn("could not control backlight", "pin", cfg.BacklightPin, "err", err)
		}
	}
	if cfg.SPIMirror {
		if b.mirror, err = OpenDisplay(b.rotation); err != nil {
			logger.Warn("spi mirror disabled", "err", err)
		} else {
			b.backlight.Notify(b.mirror.SetPower)
		}
	}
	return b, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (b *KioskFrameBuffer) loadDocument() (*config.Config, error) {
	report := config.Validate(b.config.ConfigPath, b.config.BaseDir)
	if !report.IsValid() {
		return nil, report.Err()
	}
	for _, w := range report.Warnings {
		b.logger.Warn("configuration", "warning", w)
	}
	return config.Load(b.config.ConfigPath)
}

func (b *KioskFrameBuffer) apply(dash *config.Config) {
	geom := NewGeometry(b.config.Width, b.config.Height, dash.Layout, b.touchPath != "")
	icons := loadIcons(dash, b.config.BaseDir, geom.IconSize, b.logger)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.dash, b.geom, b.icons = dash, geom, icons
	b.pressed = -1
}

// Reload re-reads the document. An invalid document keeps the current
// dashboard and returns the validation errors.
func (b *KioskFrameBuffer) Reload() error {
	dash, err := b.loadDocument()
	if err != nil {
		b.logger.Error("reload rejected, keeping previous layout", "path", b.config.ConfigPath, "err", err)
		return err
	}
	b.apply(dash)
	b.logger.Info("configuration reloaded", "path", b.config.ConfigPath, "buttons", len(dash.Buttons))
	b.Redraw()
	return nil
}

// Buttons returns the current buttons.
func (b *KioskFrameBuffer) Buttons() []config.Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]config.Button(nil), b.dash.Buttons...)
}

// Find returns the index of the button called name.
func (b *KioskFrameBuffer) Find(name string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dash.Find(name)
}

// Press launches the command of button index. Failures are shown in a
// banner and returned.
func (b *KioskFrameBuffer) Press(ctx context.Context, index int) (int, error) {
	b.mu.Lock()
	if index < 0 || index >= len(b.dash.Buttons) {
		b.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrNoButton, index)
	}
	button := b.dash.Buttons[index]
	b.mu.Unlock()

	pid, err := b.launcher.Launch(ctx, button.Command)
	if err != nil {
		b.logger.Error("launch failed", "button", button.Name, "command", button.Command, "err", err)
		b.showBanner(fmt.Sprintf("%s: %v", button.Name, err))
		return 0, err
	}
	b.logger.Info("launched", "button", button.Name, "pid", pid)
	return pid, nil
}

func (b *KioskFrameBuffer) showBanner(text string) {
	b.mu.Lock()
	b.banner = text
	b.bannerUntil = time.Now().Add(b.config.BannerFor)
	b.mu.Unlock()
	b.Redraw()
}

// HandleTap reacts to a screen-space touch. A touch that wakes the
// backlight does nothing else; a tap on an overlay returns to the
// dashboard.
func (b *KioskFrameBuffer) HandleTap(ctx context.Context, tap touch.Tap) {
	if b.backlight.Wake() {
		b.mu.Lock()
		b.swallow = tap.Down
		b.mu.Unlock()
		return
	}

	b.mu.Lock()
	if !tap.Down && b.swallow {
		b.swallow = false
		b.mu.Unlock()
		return
	}
	if b.mode != modeDashboard {
		b.mu.Unlock()
		if !tap.Down {
			b.Dashboard()
		}
		return
	}
	index, hit := b.geom.HitTest(b.dash, tap.X, tap.Y)
	if tap.Down {
		b.pressed = index
	} else {
		b.pressed = -1
	}
	b.mu.Unlock()

	b.Redraw()
	if !tap.Down && hit {
		b.Press(ctx, index)
	}
}

// Dashboard leaves any overlay and draws the button grid.
func (b *KioskFrameBuffer) Dashboard() {
	b.mu.Lock()
	b.mode = modeDashboard
	b.mu.Unlock()
	b.Redraw()
}

// Redraw renders the current screen.
func (b *KioskFrameBuffer) Redraw() {
	b.paint.Lock()
	defer b.paint.Unlock()
	b.mu.Lock()
	if b.mode != modeDashboard {
		b.mu.Unlock()
		return
	}
	if b.banner != "" && time.Now().After(b.bannerUntil) {
		b.banner = ""
	}
	view := dashboardView{cfg: b.dash, geom: b.geom, icons: b.icons, pressed: b.pressed, banner: b.banner}
	b.mu.Unlock()

	dc := gg.NewContext(b.config.Width, b.config.Height)
	renderDashboard(dc, view, b.fonts)
	b.flushLocked(dc.Image())
}

// showOverlay switches away from the dashboard and draws img.
func (b *KioskFrameBuffer) showOverlay(m mode, img image.Image) {
	b.paint.Lock()
	defer b.paint.Unlock()
	b.mu.Lock()
	b.mode = m
	b.mu.Unlock()
	b.flushLocked(img)
}

func (b *KioskFrameBuffer) flush(img image.Image) {
	b.paint.Lock()
	defer b.paint.Unlock()
	b.flushLocked(img)
}

// flushLocked copies img to the screen and the mirror. b.paint must be held.
func (b *KioskFrameBuffer) flushLocked(img image.Image) {
	draw.Draw(b.screen, b.screen.Bounds(), img, image.Point{}, draw.Src)
	if b.mirror != nil {
		b.mirror.Draw(img)
	}
}

// Splash draws the embedded splash image with a status line.
func (b *KioskFrameBuffer) Splash(status string) error {
	statikFS, err := fs.New()
	if err != nil {
		return err
	}
	r, err := statikFS.Open("/splash.png")
	if err != nil {
		return err
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return err
	}

	dc := gg.NewContext(b.config.Width, b.config.Height)
	dc.SetColor(b.background())
	dc.Clear()
	size := min(b.config.Width, b.config.Height)
	logo := scaleToFit(img, size*3/4, size*3/4)
	dc.DrawImageAnchored(logo, b.config.Width/2, b.config.Height/2-size/16, 0.5, 0.5)
	dc.SetColor(color.RGBA{100, 100, 100, 255})
	b.TextOnContext(dc, float64(b.config.Width)/2, float64(b.config.Height)-float64(size)/8, float64(max(12, size/12)), status, true, gg.AlignCenter)
	b.showOverlay(modeOverlay, dc.Image())
	return nil
}

// TextOnContext draws wrapped text centred on x, y in the current color.
func (b *KioskFrameBuffer) TextOnContext(dc *gg.Context, x, y, size float64, content string, bold bool, align gg.Align) {
	dc.SetFontFace(b.fonts.face(size, bold))
	dc.DrawStringWrapped(content, x, y, 0.5, 0.5, float64(b.config.Width), 1.5, align)
}

// Tick expires banners, refreshes the stats screen and dims an idle
// backlight.
func (b *KioskFrameBuffer) Tick(now time.Time) {
	b.backlight.Tick(now)

	b.mu.Lock()
	m := b.mode
	expired := b.banner != "" && now.After(b.bannerUntil)
	b.mu.Unlock()

	switch {
	case m == modeStats:
		b.drawStats()
	case expired:
		b.Redraw()
	}
}

func (b *KioskFrameBuffer) drawStats() {
	dc := gg.NewContext(b.config.Width, b.config.Height)
	renderStats(dc, Sample(b.config.DiskMountPrefix), b.fonts)
	b.showOverlay(modeStats, dc.Image())
}

// Exit clears the screen to the background color and releases hardware.
func (b *KioskFrameBuffer) Exit() {
	b.logger.Info("shutting down")
	bg := b.background()
	b.paint.Lock()
	defer b.paint.Unlock()
	draw.Draw(b.screen, b.screen.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if err := b.backlight.Close(); err != nil {
		b.logger.Warn("backlight close", "err", err)
	}
	if b.mirror != nil {
		b.mirror.SetPower(true)
		b.mirror.FillScreen(bg)
		if err := b.mirror.Close(); err != nil {
			b.logger.Warn("spi mirror close", "err", err)
		}
	}
	b.screen.Close()
}
