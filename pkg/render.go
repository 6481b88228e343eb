package pkg

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/kubesail/desk-controller/config"
)

const (
	bannerColor    = "#BF616A"
	bannerText     = "#ECEFF4"
	lineSpacing    = 1.3
	pressedShading = config.DefaultShade
)

// loadIcons decodes and scales every button icon to size x size. Icons
// that cannot be read are logged and skipped.
func loadIcons(cfg *config.Config, baseDir string, size int, logger *slog.Logger) map[int]image.Image {
	icons := map[int]image.Image{}
	for i, b := range cfg.Buttons {
		if b.Icon == "" {
			continue
		}
		path := config.IconPath(baseDir, b.Icon)
		img, err := decodeImage(path)
		if err != nil {
			logger.Warn("icon not loaded", "button", b.Name, "path", path, "err", err)
			continue
		}
		icons[i] = scaleToFit(img, size, size)
	}
	return icons
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// scaleToFit scales img into a w x h box keeping its aspect ratio.
func scaleToFit(img image.Image, w, h int) image.Image {
	src := img.Bounds()
	if src.Dx() == 0 || src.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	scale := min(float64(w)/float64(src.Dx()), float64(h)/float64(src.Dy()))
	dw, dh := max(1, int(float64(src.Dx())*scale)), max(1, int(float64(src.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Over, nil)
	return dst
}

// dashboardView is everything needed to draw one dashboard frame.
type dashboardView struct {
	cfg     *config.Config
	geom    Geometry
	icons   map[int]image.Image
	pressed int
	banner  string
}

func renderDashboard(dc *gg.Context, v dashboardView, f *fonts) {
	dc.SetColor(config.MustParseHex(v.cfg.Layout.BackgroundColor, config.DefaultBackgroundColor))
	dc.Clear()

	drawn := map[[2]int]bool{}
	for i, b := range v.cfg.Buttons {
		if !v.cfg.InGrid(b) || drawn[b.Position] {
			continue
		}
		drawn[b.Position] = true
		drawButton(dc, v.geom, b, v.icons[i], i == v.pressed, f)
	}

	if v.banner != "" {
		drawBanner(dc, v.geom, v.banner, f)
	}
}

func drawButton(dc *gg.Context, g Geometry, b config.Button, icon image.Image, pressed bool, f *fonts) {
	rect := g.Cell(b.Row(), b.Column())
	fill := b.Color
	if pressed {
		if darker, err := config.Darken(b.Color, pressedShading); err == nil {
			fill = darker
		}
	}
	dc.DrawRoundedRectangle(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), float64(g.Radius))
	dc.SetColor(config.MustParseHex(fill, config.DefaultButtonColor))
	dc.Fill()

	dc.SetFontFace(f.face(float64(g.FontSize), true))
	lines := dc.WordWrap(b.Name, float64(rect.Dx()-2*g.Padding))
	lineH := float64(g.FontSize) * lineSpacing
	textH := float64(len(lines)) * lineH

	total := textH
	var iconH, gap float64
	if icon != nil {
		iconH = float64(icon.Bounds().Dy())
		gap = float64(g.Padding) / 2
		total += iconH + gap
	}
	cx := float64(rect.Min.X) + float64(rect.Dx())/2
	top := float64(rect.Min.Y) + (float64(rect.Dy())-total)/2

	if icon != nil {
		dc.DrawImageAnchored(icon, int(cx), int(top+iconH/2), 0.5, 0.5)
		top += iconH + gap
	}
	dc.SetColor(config.MustParseHex(b.TextColor, config.DefaultTextColor))
	for n, line := range lines {
		dc.DrawStringAnchored(line, cx, top+float64(n)*lineH+lineH/2, 0.5, 0.5)
	}
}

func drawBanner(dc *gg.Context, g Geometry, text string, f *fonts) {
	h := float64(g.FontSize) * 2.2
	y := float64(g.Height) - h
	dc.DrawRectangle(0, y, float64(g.Width), h)
	dc.SetColor(config.MustParseHex(bannerColor, bannerColor))
	dc.Fill()
	dc.SetFontFace(f.face(float64(g.FontSize), false))
	dc.SetColor(config.MustParseHex(bannerText, bannerText))
	dc.DrawStringAnchored(text, float64(g.Width)/2, y+h/2, 0.5, 0.5)
}
