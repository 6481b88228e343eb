package pkg

import (
	"os"
	"time"

	"github.com/kubesail/desk-controller/config"
)

// Runtime defaults.
const (
	DefaultSocket       = "/var/run/desk-controller/control.sock"
	DefaultBacklightPin = 22
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultStatsEvery   = 3 * time.Second
	DefaultBannerFor    = 4 * time.Second

	fontRegular = "/usr/share/fonts/truetype/piboto/Piboto-Regular.ttf"
	fontBold    = "/usr/share/fonts/truetype/piboto/Piboto-Bold.ttf"
)

// Config holds the runtime settings of the framebuffer dashboard. The
// button layout itself lives in the document at ConfigPath.
type Config struct {
	ConfigPath string
	BaseDir    string

	// FrameBuffer is a device name such as "fb1"; empty means discover.
	FrameBuffer string
	// Width and Height are taken from the framebuffer when zero.
	Width, Height int

	Socket string

	// BacklightPin is the BCM pin driving the panel backlight; negative
	// disables backlight control.
	BacklightPin int
	IdleTimeout  time.Duration

	// TouchDevice is a /dev/input path or a device name; empty means the
	// first touch screen found.
	TouchDevice string
	NoTouch     bool

	// SPIMirror also draws every frame on an ST7789 panel on SPI0.1.
	SPIMirror bool

	FontRegular, FontBold string

	// DiskMountPrefix selects the partition shown by the stats screen.
	DiskMountPrefix string
	StatsEvery      time.Duration
	BannerFor       time.Duration
}

// DefaultConfig returns the settings used by "desk-controller run".
func DefaultConfig() Config {
	socket := os.Getenv("LISTEN_SOCKET")
	if socket == "" {
		socket = DefaultSocket
	}
	return Config{
		ConfigPath:      config.DefaultPath(),
		BaseDir:         config.BaseDir(),
		Socket:          socket,
		BacklightPin:    DefaultBacklightPin,
		IdleTimeout:     DefaultIdleTimeout,
		FontRegular:     fontRegular,
		FontBold:        fontBold,
		DiskMountPrefix: "/",
		StatsEvery:      DefaultStatsEvery,
		BannerFor:       DefaultBannerFor,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.ConfigPath == "" {
		c.ConfigPath = d.ConfigPath
	}
	if c.BaseDir == "" {
		c.BaseDir = d.BaseDir
	}
	if c.Socket == "" {
		c.Socket = d.Socket
	}
	if c.FontRegular == "" {
		c.FontRegular = d.FontRegular
	}
	if c.FontBold == "" {
		c.FontBold = d.FontBold
	}
	if c.DiskMountPrefix == "" {
		c.DiskMountPrefix = d.DiskMountPrefix
	}
	if c.StatsEvery <= 0 {
		c.StatsEvery = d.StatsEvery
	}
	if c.BannerFor <= 0 {
		c.BannerFor = d.BannerFor
	}
}
