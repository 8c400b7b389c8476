package pdf

import (
	"github.com/phpdave11/gofpdf"
)

const (
	tableFontSize = 10.0
	cellPadding   = 1.76
	// line height for 10pt text with a 1.15 factor, in mm
	tableLineHeight = tableFontSize * 1.15 * 25.4 / 72
)

// Table is a grid with a header row repeated on every page.
type Table struct {
	Header []string
	Rows   [][]string
	// Align holds a gofpdf alignment per column ("L", "C", "R"); missing entries are "L".
	Align []string
}

func (t Table) columns() int {
	n := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

func (t Table) align(col int) string {
	if col < len(t.Align) && t.Align[col] != "" {
		return t.Align[col]
	}
	return "L"
}

func cell(row []string, col int) string {
	if col < len(row) {
		return encode(row[col])
	}
	return ""
}

// columnWidths sizes columns from their widest content and scales them to fill
// the printable width.
func columnWidths(doc *gofpdf.Fpdf, t Table, n int) []float64 {
	avail := pageWidth - 2*marginX
	widths := make([]float64, n)
	doc.SetFont("Helvetica", "B", tableFontSize)
	for c := 0; c < n; c++ {
		widths[c] = doc.GetStringWidth(cell(t.Header, c)) + 2*cellPadding
	}
	doc.SetFont("Helvetica", "", tableFontSize)
	for _, row := range t.Rows {
		for c := 0; c < n; c++ {
			if w := doc.GetStringWidth(cell(row, c)) + 2*cellPadding; w > widths[c] {
				widths[c] = w
			}
		}
	}
	var sum float64
	for c := range widths {
		if widths[c] > avail/2 {
			widths[c] = avail / 2
		}
		if widths[c] < 2*cellPadding+1 {
			widths[c] = 2*cellPadding + 1
		}
		sum += widths[c]
	}
	for c := range widths {
		widths[c] = widths[c] * avail / sum
	}
	return widths
}

func wrapRow(doc *gofpdf.Fpdf, row []string, widths []float64) ([][]string, float64) {
	lines := make([][]string, len(widths))
	maxLines := 1
	for c, w := range widths {
		txt := cell(row, c)
		if txt == "" {
			lines[c] = []string{""}
			continue
		}
		for _, l := range doc.SplitLines([]byte(txt), w-2*cellPadding) {
			lines[c] = append(lines[c], string(l))
		}
		if len(lines[c]) == 0 {
			lines[c] = []string{""}
		}
		if len(lines[c]) > maxLines {
			maxLines = len(lines[c])
		}
	}
	return lines, float64(maxLines)*tableLineHeight + 2*cellPadding
}

func drawRow(doc *gofpdf.Fpdf, t Table, lines [][]string, widths []float64, y, h float64, header bool) {
	x := marginX
	for c, w := range widths {
		style := "D"
		if header {
			style = "FD"
		}
		doc.Rect(x, y, w, h, style)
		for i, l := range lines[c] {
			doc.SetXY(x+cellPadding, y+cellPadding+float64(i)*tableLineHeight)
			align := t.align(c)
			if header {
				align = "L"
			}
			doc.CellFormat(w-2*cellPadding, tableLineHeight, l, "", 0, align, false, 0, "")
		}
		x += w
	}
}

// drawTable draws t starting at y and returns the Y coordinate below the last row.
func drawTable(doc *gofpdf.Fpdf, t Table, y float64) float64 {
	n := t.columns()
	if n == 0 {
		return y
	}
	widths := columnWidths(doc, t, n)
	doc.SetLineWidth(0.1)
	doc.SetDrawColor(200, 200, 200)

	header := func(y float64) float64 {
		doc.SetFont("Helvetica", "B", tableFontSize)
		doc.SetFillColor(26, 188, 156)
		doc.SetTextColor(255, 255, 255)
		lines, h := wrapRow(doc, t.Header, widths)
		drawRow(doc, t, lines, widths, y, h, true)
		doc.SetFont("Helvetica", "", tableFontSize)
		doc.SetTextColor(0, 0, 0)
		return y + h
	}

	if len(t.Header) > 0 {
		y = header(y)
	}
	doc.SetFont("Helvetica", "", tableFontSize)
	for _, row := range t.Rows {
		lines, h := wrapRow(doc, row, widths)
		if y+h > pageHeight-marginBottom {
			doc.AddPage()
			y = marginTop
			if len(t.Header) > 0 {
				y = header(y)
			}
		}
		drawRow(doc, t, lines, widths, y, h, false)
		y += h
	}
	return y
}
