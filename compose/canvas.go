// Package compose lays out one certificate page per recipient.
//
// Compose follows a fixed protocol: optional background, optional banner,
// optional title, the recipient's name, then one text block per template
// field in declared order. The signature field additionally gets a rule
// anchored near the bottom of the page. Layout state is an explicit Cursor
// passed from one drawing step to the next; nothing outlives a page.
package compose

import "github.com/lvillar/certgen/doctpl"

// Font selects a face and size for a text block.
type Font struct {
	Family string // as declared: "Helvetica", "Times-Italic", a TrueType family...
	Bold   bool   // request the bold variant of Family
	Size   float64
}

// Canvas is the drawing surface of a document. Coordinates are in points,
// with the origin at the top-left corner of the current page.
type Canvas interface {
	// AddPage starts a new page; later calls draw on it.
	AddPage()
	// PageSize returns the width and height of the current page.
	PageSize() (w, h float64)
	// Margin returns the page margin, the same on every side.
	Margin() float64

	// Text draws text inside a box of width w whose top-left corner is (x, y)
	// and returns the height it used.
	Text(x, y, w float64, text string, font Font, align doctpl.Align) float64
	// Image draws the image at path scaled to width w and returns its height.
	Image(path string, x, y, w float64) (float64, error)
	// Line strokes a straight line.
	Line(x1, y1, x2, y2 float64)
	// Background draws the first page of the PDF at path over the whole page.
	Background(path string) error
	// Code draws a barcode of the given kind in the box (x, y, w, h).
	Code(kind, content string, x, y, w, h float64) error
}
