package pkg

import (
	"log/slog"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fonts loads the Piboto faces shipped with Raspberry Pi OS and falls back
// to the Go fonts elsewhere. Parsed fonts are cached. Faces are created
// per call: a truetype face is not safe for concurrent use.
type fonts struct {
	regularPath, boldPath string
	logger                *slog.Logger

	mu      sync.Mutex
	regular *truetype.Font
	bold    *truetype.Font
}

func newFonts(regularPath, boldPath string, logger *slog.Logger) *fonts {
	return &fonts{regularPath: regularPath, boldPath: boldPath, logger: logger}
}

func (f *fonts) face(size float64, bold bool) font.Face {
	f.mu.Lock()
	defer f.mu.Unlock()

	ttf := f.regular
	if bold {
		ttf = f.bold
	}
	if ttf == nil {
		if bold {
			ttf = f.load(f.boldPath, gobold.TTF)
			f.bold = ttf
		} else {
			ttf = f.load(f.regularPath, goregular.TTF)
			f.regular = ttf
		}
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

func (f *fonts) load(path string, fallback []byte) *truetype.Font {
	if data, err := os.ReadFile(path); err == nil {
		if ttf, err := truetype.Parse(data); err == nil {
			return ttf
		}
		f.logger.Warn("unreadable font, using built-in", "path", path)
	}
	ttf, err := truetype.Parse(fallback)
	if err != nil {
		panic(err)
	}
	return ttf
}
