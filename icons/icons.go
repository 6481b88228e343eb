// Package icons draws the sample button icons shipped with the default
// dashboard.
package icons

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
)

// Size is the edge length of every generated icon.
const Size = 128

// Icon is a letter on a rounded colored tile.
type Icon struct {
	Name   string
	Letter string
	Color  string
}

// Samples are the icons referenced by the example configuration.
var Samples = []Icon{
	{Name: "terminal", Letter: "T", Color: "#88C0D0"},
	{Name: "browser", Letter: "B", Color: "#5E81AC"},
	{Name: "files", Letter: "F", Color: "#A3BE8C"},
	{Name: "monitor", Letter: "M", Color: "#B48EAD"},
	{Name: "reboot", Letter: "R", Color: "#BF616A"},
	{Name: "shutdown", Letter: "S", Color: "#D08770"},
}

// appTiles are the four cells of the application icon.
var appTiles = []string{"#88C0D0", "#A3BE8C", "#EBCB8B", "#BF616A"}

// Generate writes every sample icon and app-icon.png into dir and returns
// the written paths.
func Generate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, icon := range Samples {
		path := filepath.Join(dir, icon.Name+".png")
		dc, err := Letter(icon)
		if err != nil {
			return written, err
		}
		if err := dc.SavePNG(path); err != nil {
			return written, fmt.Errorf("icons: %w", err)
		}
		written = append(written, path)
	}
	path := filepath.Join(dir, "app-icon.png")
	if err := App().SavePNG(path); err != nil {
		return written, fmt.Errorf("icons: %w", err)
	}
	return append(written, path), nil
}

// Letter draws one letter icon.
func Letter(icon Icon) (*gg.Context, error) {
	ttf, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(Size, Size)
	dc.DrawRoundedRectangle(4, 4, Size-8, Size-8, 20)
	dc.SetHexColor(icon.Color)
	dc.Fill()

	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{Size: Size * 0.5}))
	dc.SetHexColor("#ECEFF4")
	dc.DrawStringAnchored(icon.Letter, Size/2, Size/2, 0.5, 0.35)
	return dc, nil
}

// App draws the 2x2 grid application icon.
func App() *gg.Context {
	dc := gg.NewContext(Size, Size)
	dc.DrawRoundedRectangle(0, 0, Size, Size, 16)
	dc.SetHexColor("#5E81AC")
	dc.Fill()

	const margin, gap = 16, 8
	tile := float64(Size-2*margin-gap) / 2
	for i, c := range appTiles {
		x := margin + float64(i%2)*(tile+gap)
		y := margin + float64(i/2)*(tile+gap)
		dc.DrawRoundedRectangle(x, y, tile, tile, 6)
		dc.SetHexColor(c)
		dc.Fill()
	}
	return dc
}
