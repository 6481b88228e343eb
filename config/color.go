package config

import (
	"fmt"
	"image/color"
	"regexp"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultShade is the per-channel step used for hover and pressed colors.
const DefaultShade = 20

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// ParseHex converts #RRGGBB into an opaque color.RGBA.
func ParseHex(s string) (color.RGBA, error) {
	if !IsHexColor(s) {
		return color.RGBA{}, fmt.Errorf("config: invalid color %q", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("config: invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// MustParseHex is ParseHex with a fallback for invalid input.
func MustParseHex(s, fallback string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		c, _ = ParseHex(fallback)
	}
	return c
}

// Lighten adds amount to every channel, clamped at 255.
func Lighten(hex string, amount int) (string, error) {
	return shade(hex, amount)
}

// Darken subtracts amount from every channel, clamped at 0.
func Darken(hex string, amount int) (string, error) {
	return shade(hex, -amount)
}

func shade(hex string, delta int) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	out := colorful.Color{
		R: float64(clamp(int(c.R)+delta)) / 255,
		G: float64(clamp(int(c.G)+delta)) / 255,
		B: float64(clamp(int(c.B)+delta)) / 255,
	}
	return out.Hex(), nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
