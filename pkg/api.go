package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"

	"github.com/kubesail/desk-controller/config"
)

// Handler returns the control API.
func (b *KioskFrameBuffer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /buttons", b.ButtonsRequest)
	mux.HandleFunc("POST /press", b.PressRequest)
	mux.HandleFunc("POST /reload", b.ReloadRequest)
	mux.HandleFunc("POST /dashboard", b.DashboardRequest)
	mux.HandleFunc("GET /text", b.TextRequest)
	mux.HandleFunc("POST /text", b.TextRequest)
	mux.HandleFunc("GET /qr", b.QR)
	mux.HandleFunc("POST /rgb", b.RGB)
	mux.HandleFunc("POST /image", b.DrawImage)
	mux.HandleFunc("POST /gif", b.DrawGIF)
	mux.HandleFunc("POST /stats/on", b.EnableStats)
	mux.HandleFunc("POST /exit", b.ExitRequest)
	return mux
}

type buttonView struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Command   string `json:"command"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
	Position  [2]int `json:"position"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *KioskFrameBuffer) ButtonsRequest(w http.ResponseWriter, req *http.Request) {
	buttons := b.Buttons()
	views := make([]buttonView, len(buttons))
	for i, button := range buttons {
		views[i] = buttonView{
			Index:     i,
			Name:      button.Name,
			Icon:      button.Icon,
			Command:   button.Command,
			Color:     button.Color,
			TextColor: button.TextColor,
			Position:  button.Position,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

// PressRequest launches a button chosen by ?index=N or ?name=X.
func (b *KioskFrameBuffer) PressRequest(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	var index int
	switch {
	case query.Has("index"):
		n, err := strconv.Atoi(query.Get("index"))
		if err != nil {
			http.Error(w, "index must be an integer\n", http.StatusBadRequest)
			return
		}
		index = n
	case query.Has("name"):
		n, ok := b.Find(query.Get("name"))
		if !ok {
			http.Error(w, fmt.Sprintf("no button named %q\n", query.Get("name")), http.StatusNotFound)
			return
		}
		index = n
	default:
		http.Error(w, "Pass ?index= or ?name= to press a button\n", http.StatusBadRequest)
		return
	}

	pid, err := b.Press(req.Context(), index)
	switch {
	case errors.Is(err, ErrNoButton):
		http.Error(w, err.Error()+"\n", http.StatusNotFound)
	case err != nil:
		http.Error(w, err.Error()+"\n", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, map[string]int{"pid": pid})
	}
}

func (b *KioskFrameBuffer) ReloadRequest(w http.ResponseWriter, req *http.Request) {
	if err := b.Reload(); err != nil {
		http.Error(w, err.Error()+"\n", http.StatusUnprocessableEntity)
		return
	}
	fmt.Fprintf(w, "reloaded %d buttons\n", len(b.Buttons()))
}

func (b *KioskFrameBuffer) DashboardRequest(w http.ResponseWriter, req *http.Request) {
	b.Dashboard()
	fmt.Fprintf(w, "Dashboard on\n")
}

type RGB struct {
	R uint8
	G uint8
	B uint8
}

func (b *KioskFrameBuffer) RGB(w http.ResponseWriter, req *http.Request) {
	var c RGB
	err := json.NewDecoder(req.Body).Decode(&c)
	if err != nil {
		http.Error(w, "Requires json body with R, G, and B keys! Values must be 0-255\n", http.StatusBadRequest)
		return
	}

	b.DrawSolidColor(c)
	fmt.Fprintf(w, "parsed color: R%v G%v B%v\n", c.R, c.G, c.B)
	fmt.Fprintf(w, "wrote to framebuffer!\n")
}

func (b *KioskFrameBuffer) DrawSolidColor(c RGB) {
	b.showOverlay(modeOverlay, image.NewUniform(color.RGBA{c.R, c.G, c.B, 255}))
}

func (b *KioskFrameBuffer) QR(w http.ResponseWriter, req *http.Request) {
	content := req.URL.Query().Get("content")
	if content == "" {
		http.Error(w, "Pass ?content= to render a QR code\n", http.StatusBadRequest)
		return
	}
	q, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		http.Error(w, err.Error()+"\n", http.StatusBadRequest)
		return
	}
	q.DisableBorder = true
	size := min(b.config.Width, b.config.Height) * 3 / 4

	dc := gg.NewContext(b.config.Width, b.config.Height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImageAnchored(q.Image(size), b.config.Width/2, b.config.Height/2, 0.5, 0.5)
	b.showOverlay(modeOverlay, dc.Image())
	fmt.Fprintf(w, "QR Code printed to screen\n")
}

// TextRequest draws ?content= with optional background, color, size, x
// and y. POST bodies are used as content when the query has none.
func (b *KioskFrameBuffer) TextRequest(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	content := query.Get("content")
	if content == "" && req.Method == http.MethodPost {
		if body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, 1<<16)); err == nil {
			content = strings.TrimSpace(string(body))
		}
	}
	if content == "" {
		content = "no content param"
	}

	dc := gg.NewContext(b.config.Width, b.config.Height)
	if background := query.Get("background"); background != "" {
		dc.SetHexColor(background)
		dc.Clear()
	}
	if c := query.Get("color"); c != "" {
		dc.SetHexColor(c)
	} else {
		dc.SetHexColor("cccccc")
	}
	size := intParam(query.Get("size"), 22)
	x := intParam(query.Get("x"), b.config.Width/2)
	y := intParam(query.Get("y"), b.config.Height/2)

	b.TextOnContext(dc, float64(x), float64(y), float64(size), content, true, gg.AlignCenter)
	b.showOverlay(modeOverlay, dc.Image())
	fmt.Fprintf(w, "Text drawn\n")
}

func intParam(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}

func (b *KioskFrameBuffer) DrawImage(w http.ResponseWriter, req *http.Request) {
	img, _, err := image.Decode(req.Body)
	if err != nil {
		http.Error(w, "could not decode image: "+err.Error()+"\n", http.StatusBadRequest)
		return
	}
	b.showOverlay(modeOverlay, b.fit(img))
	fmt.Fprintf(w, "Image drawn\n")
}

func (b *KioskFrameBuffer) DrawGIF(w http.ResponseWriter, req *http.Request) {
	imgGif, err := gif.DecodeAll(req.Body)
	if err != nil {
		http.Error(w, "could not decode gif: "+err.Error()+"\n", http.StatusBadRequest)
		return
	}
	for i, frame := range imgGif.Image {
		b.showOverlay(modeOverlay, b.fit(frame))
		select {
		case <-time.After(10 * time.Millisecond * time.Duration(imgGif.Delay[i])):
		case <-req.Context().Done():
			return
		}
	}
	fmt.Fprintf(w, "GIF drawn\n")
}

// fit centres img on a black screen-sized canvas, scaling it down when
// it is larger than the screen.
func (b *KioskFrameBuffer) fit(img image.Image) image.Image {
	dc := gg.NewContext(b.config.Width, b.config.Height)
	dc.SetColor(color.Black)
	dc.Clear()
	if img.Bounds().Dx() > b.config.Width || img.Bounds().Dy() > b.config.Height {
		img = scaleToFit(img, b.config.Width, b.config.Height)
	}
	dc.DrawImageAnchored(img, b.config.Width/2, b.config.Height/2, 0.5, 0.5)
	return dc.Image()
}

func (b *KioskFrameBuffer) EnableStats(w http.ResponseWriter, req *http.Request) {
	b.drawStats()
	fmt.Fprintf(w, "Stats on\n")
}

func (b *KioskFrameBuffer) ExitRequest(w http.ResponseWriter, req *http.Request) {
	fmt.Fprintf(w, "Received exit request, shutting down...\n")
	b.mu.Lock()
	stop := b.stop
	b.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// background returns the dashboard background color.
func (b *KioskFrameBuffer) background() color.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return config.MustParseHex(b.dash.Layout.BackgroundColor, config.DefaultBackgroundColor)
}
