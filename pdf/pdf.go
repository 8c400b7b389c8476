// Package pdf lays out purchase orders and delivery notes as A4 PDF documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Page geometry in millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginX      = 14.0
	marginTop    = 14.0
	marginBottom = 14.0

	logoX = 10.0
	logoY = 5.0
	logoW = 50.0
	logoH = 20.0

	titleSize = 16.0
	titleY    = 35.0

	metaSize   = 12.0
	metaX      = 10.0
	metaStartY = 50.0
	lineStep   = 10.0

	tableStartY = 90.0
)

const logoName = "logo"

// Image is a raster image accepted by gofpdf ("PNG", "JPG" or "GIF").
type Image struct {
	Data []byte
	Type string
}

// OrderData is everything printed on the document, already formatted.
type OrderData struct {
	Title  string
	Meta   []string
	Table  Table
	Totals []string
	Logo   *Image
}

type settings struct {
	compress  bool
	createdAt time.Time
	creator   string
}

// Option tweaks document generation.
type Option func(*settings)

// WithCompression toggles stream compression (on by default).
func WithCompression(on bool) Option {
	return func(s *settings) { s.compress = on }
}

// WithCreationDate fixes the document creation date, making output reproducible.
func WithCreationDate(t time.Time) Option {
	return func(s *settings) { s.createdAt = t }
}

// WithCreator sets the Creator metadata entry.
func WithCreator(name string) Option {
	return func(s *settings) { s.creator = name }
}

// Layout reports where things ended up.
type Layout struct {
	Pages     int
	TableEndY float64
	TotalsY   float64
}

// OrderPDF renders data and returns the PDF bytes.
func OrderPDF(data OrderData, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Render(&buf, data, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes the PDF to w. Nothing is written if layout fails.
func Render(w io.Writer, data OrderData, opts ...Option) (Layout, error) {
	s := settings{compress: true, creator: "bon-de-commande"}
	for _, o := range opts {
		o(&s)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(s.compress)
	doc.SetAutoPageBreak(false, marginBottom)
	doc.SetMargins(marginX, marginTop, marginX)
	doc.SetTitle(data.Title, true)
	doc.SetCreator(s.creator, true)
	if !s.createdAt.IsZero() {
		doc.SetCreationDate(s.createdAt)
		doc.SetCatalogSort(true)
	}
	doc.AddPage()

	if data.Logo != nil {
		if len(data.Logo.Data) == 0 {
			return Layout{}, errors.New("pdf: empty logo image")
		}
		opt := gofpdf.ImageOptions{ImageType: data.Logo.Type}
		doc.RegisterImageOptionsReader(logoName, opt, bytes.NewReader(data.Logo.Data))
		doc.ImageOptions(logoName, logoX, logoY, logoW, logoH, false, opt, 0, "")
		if err := doc.Error(); err != nil {
			return Layout{}, fmt.Errorf("pdf: embed logo: %w", err)
		}
	}

	doc.SetFont("Helvetica", "", titleSize)
	title := encode(data.Title)
	doc.Text(pageWidth/2-doc.GetStringWidth(title)/2, titleY, title)

	doc.SetFont("Helvetica", "", metaSize)
	y := metaStartY
	for _, line := range data.Meta {
		doc.Text(metaX, y, encode(line))
		y += lineStep
	}

	startY := tableStartY
	if y > startY {
		startY = y
	}
	endY := drawTable(doc, data.Table, startY)

	doc.SetFont("Helvetica", "", metaSize)
	doc.SetTextColor(0, 0, 0)
	ty := endY + lineStep
	if ty+lineStep*float64(len(data.Totals)-1) > pageHeight-marginBottom {
		doc.AddPage()
		ty = marginTop + lineStep
	}
	totalsY := ty
	for _, line := range data.Totals {
		doc.Text(metaX, ty, encode(line))
		ty += lineStep
	}

	if err := doc.Error(); err != nil {
		return Layout{}, fmt.Errorf("pdf: layout: %w", err)
	}
	layout := Layout{Pages: doc.PageCount(), TableEndY: endY, TotalsY: totalsY}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return Layout{}, fmt.Errorf("pdf: output: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// encode converts UTF-8 text to the Windows-1252 bytes the core fonts expect.
// Runes outside the code page are printed as '?'.
func encode(s string) string {
	s = norm.NFC.String(s)
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}
