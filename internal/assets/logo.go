// Package assets loads the logo printed at the top of exported documents.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"time"

	_ "golang.org/x/image/webp"
)

// ErrLogoUnavailable wraps every failure to obtain a usable logo.
var ErrLogoUnavailable = errors.New("logo unavailable")

// maxLogoSize bounds how much is read from a logo source.
const maxLogoSize = 8 << 20

// Logo is a decoded image ready to be embedded in a PDF.
type Logo struct {
	Data []byte
	// Type is the PDF image type: "PNG" or "JPG".
	Type   string
	Width  int
	Height int
}

// Source produces the raw logo.
type Source interface {
	Load(ctx context.Context) (*Logo, error)
}

// Decode validates raw image bytes. JPEG is kept as is; PNG, GIF and WebP are
// re-encoded to an 8-bit non-interlaced PNG, the only PNG flavour gofpdf embeds.
func Decode(data []byte) (*Logo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	if format == "jpeg" {
		return &Logo{Data: data, Type: "JPG", Width: cfg.Width, Height: cfg.Height}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrLogoUnavailable, format, err)
	}
	nrgba := image.NewNRGBA(img.Bounds())
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", ErrLogoUnavailable, err)
	}
	return &Logo{Data: buf.Bytes(), Type: "PNG", Width: cfg.Width, Height: cfg.Height}, nil
}

// BytesSource serves an in-memory image, typically the embedded default logo.
type BytesSource []byte

func (b BytesSource) Load(ctx context.Context) (*Logo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrLogoUnavailable)
	}
	return Decode(b)
}

// FileSource reads the logo from disk on every load.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Logo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxLogoSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLogoUnavailable, s.Path, err)
	}
	return Decode(data)
}

// URLSource downloads the logo over HTTP.
type URLSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

func (s URLSource) Load(ctx context.Context) (*Logo, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrLogoUnavailable, s.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrLogoUnavailable, err)
	}
	return Decode(data)
}

// Future is a logo load in flight.
type Future struct {
	done chan struct{}
	logo *Logo
	err  error
}

// Fetch starts loading src in the background.
func Fetch(ctx context.Context, src Source) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if src == nil {
			f.err = fmt.Errorf("%w: no logo source configured", ErrLogoUnavailable)
			return
		}
		f.logo, f.err = src.Load(ctx)
	}()
	return f
}

// Wait blocks until the load settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Logo, error) {
	select {
	case <-f.done:
		return f.logo, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrLogoUnavailable, ctx.Err())
	}
}
