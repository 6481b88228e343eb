package pkg

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/rubiojr/go-pirateaudio/st7789"
	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// spiPanelSize is the ST7789 resolution.
const spiPanelSize = 240

// rotations maps display.rotation degrees to the panel's rotation steps.
var rotations = map[int]st7789.Rotation{
	0:   st7789.Rotation(0),
	90:  st7789.Rotation(1),
	180: st7789.Rotation(2),
	270: st7789.Rotation(3),
}

var (
	once    sync.Once
	display *Display
	initErr error
)

// Display is an ST7789 panel driven directly over SPI, used as a mirror
// of the framebuffer dashboard (Pirate Audio style boards).
type Display struct {
	p   spi.PortCloser
	dev *st7789.Device
}

// OpenDisplay initialises periph and opens the panel on SPI0.1 with GPIO9
// as the data/command line. It is opened at most once per process.
func OpenDisplay(rotation int) (*Display, error) {
	once.Do(func() {
		if _, err := host.Init(); err != nil {
			initErr = fmt.Errorf("spi display: host init: %w", err)
			return
		}
		if _, err := driverreg.Init(); err != nil {
			initErr = fmt.Errorf("spi display: drivers: %w", err)
			return
		}
		p, err := spireg.Open("SPI0.1")
		if err != nil {
			initErr = fmt.Errorf("spi display: %w", err)
			return
		}
		// GPIO9 sends data/commands: https://pinout.xyz/pinout/pirate_audio_line_out
		dev, err := st7789.NewSPI(p.(spi.Port), gpioreg.ByName("GPIO9"), &st7789.DefaultOpts)
		if err != nil {
			p.Close()
			initErr = fmt.Errorf("spi display: %w", err)
			return
		}
		display = &Display{p: p, dev: dev}
	})
	if initErr != nil {
		return nil, initErr
	}
	if r, ok := rotations[rotation]; ok {
		display.dev.SetRotation(r)
	}
	return display, nil
}

// Close releases the SPI port.
func (d *Display) Close() error {
	return d.p.Close()
}

// Draw scales frame to the panel and sends it.
func (d *Display) Draw(frame image.Image) {
	d.dev.DrawRAW(scaleToFit(frame, spiPanelSize, spiPanelSize))
}

// FillScreen paints the whole panel.
func (d *Display) FillScreen(c color.RGBA) {
	d.dev.FillScreen(c)
}

// SetPower wakes or sleeps the panel. It follows the backlight.
func (d *Display) SetPower(on bool) {
	if on {
		d.dev.PowerOn()
		return
	}
	d.dev.PowerOff()
}
