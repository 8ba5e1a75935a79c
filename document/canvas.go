package document

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	pdf417 "github.com/ruudk/golang-pdf417"

	"github.com/lvillar/certgen/compose"
	"github.com/lvillar/certgen/doctpl"
)

const (
	ruleWidth = 1.0

	// PDF417 layout: data columns and error correction level.
	pdf417Columns  = 10
	pdf417Security = 2

	// codeResolution is the rendered barcode size in pixels per point.
	codeResolution = 4
)

// pdfCanvas implements compose.Canvas on a gofpdf document.
type pdfCanvas struct {
	pdf         *gofpdf.Fpdf
	margin      float64
	fonts       *fontBook
	images      *imageBook
	importer    *gofpdi.Importer
	backgrounds map[string]int
}

var _ compose.Canvas = (*pdfCanvas)(nil)

func newCanvas(pdf *gofpdf.Fpdf, cfg config) *pdfCanvas {
	return &pdfCanvas{
		pdf:         pdf,
		margin:      cfg.layout.Margin,
		fonts:       newFontBook(pdf, cfg.fontDir, cfg.logger),
		images:      newImageBook(pdf),
		importer:    gofpdi.NewImporter(),
		backgrounds: make(map[string]int),
	}
}

func (c *pdfCanvas) AddPage() { c.pdf.AddPage() }

func (c *pdfCanvas) PageSize() (float64, float64) { return c.pdf.GetPageSize() }

func (c *pdfCanvas) Margin() float64 { return c.margin }

func (c *pdfCanvas) Text(x, y, w float64, text string, font compose.Font, align doctpl.Align) float64 {
	translate := c.fonts.use(font)
	c.pdf.SetXY(x, y)
	c.pdf.MultiCell(w, compose.LineHeight(font.Size), translate(text), "", alignStr(align), false)
	return c.pdf.GetY() - y
}

func (c *pdfCanvas) Image(path string, x, y, w float64) (float64, error) {
	info, err := c.images.register(path)
	if err != nil {
		return 0, &AssetError{Path: path, Err: err}
	}
	if info.Width() == 0 {
		return 0, &AssetError{Path: path, Err: fmt.Errorf("zero width")}
	}
	h := w * info.Height() / info.Width()
	c.pdf.ImageOptions(path, x, y, w, h, false, gofpdf.ImageOptions{}, 0, "")
	return h, c.pdf.Error()
}

func (c *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.SetLineWidth(ruleWidth)
	c.pdf.Line(x1, y1, x2, y2)
}

// Background draws page 1 of the PDF at path over the whole current page.
// The page is imported once per document.
func (c *pdfCanvas) Background(path string) (err error) {
	// gofpdi panics on files it cannot parse.
	defer func() {
		if r := recover(); r != nil {
			err = &AssetError{Path: path, Err: fmt.Errorf("%v", r)}
		}
	}()

	tpl, ok := c.backgrounds[path]
	if !ok {
		tpl = c.importer.ImportPage(c.pdf, path, 1, "/MediaBox")
		c.backgrounds[path] = tpl
	}
	w, h := c.pdf.GetPageSize()
	c.importer.UseImportedTemplate(c.pdf, tpl, 0, 0, w, h)
	if err := c.pdf.Error(); err != nil {
		return &AssetError{Path: path, Err: err}
	}
	return nil
}

// Code draws a QR or PDF417 code scaled into the w x h box. Each distinct
// code is embedded once per document.
func (c *pdfCanvas) Code(kind, content string, x, y, w, h float64) error {
	name := "code:" + kind + ":" + content
	opts := gofpdf.ImageOptions{ImageType: "PNG"}

	if c.pdf.GetImageInfo(name) == nil {
		data, err := encodeCode(kind, content, w, h)
		if err != nil {
			return err
		}
		c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if c.pdf.Err() {
			return c.pdf.Error()
		}
	}
	c.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return c.pdf.Error()
}

// encodeCode renders content as an 8-bit grayscale PNG of at least
// codeResolution pixels per point of the w x h box.
func encodeCode(kind, content string, w, h float64) ([]byte, error) {
	var (
		bc  barcode.Barcode
		err error
	)
	switch kind {
	case doctpl.CodeQR:
		bc, err = qr.Encode(content, qr.M, qr.Unicode)
	case doctpl.CodePDF417:
		bc = pdf417.Encode(content, pdf417Columns, pdf417Security)
	default:
		return nil, fmt.Errorf("document: unknown code kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("document: encode %s code: %w", kind, err)
	}

	b := bc.Bounds()
	bc, err = barcode.Scale(bc,
		max(b.Dx(), int(w*codeResolution)),
		max(b.Dy(), int(h*codeResolution)))
	if err != nil {
		return nil, fmt.Errorf("document: scale %s code: %w", kind, err)
	}

	// gofpdf embeds 8-bit PNGs only; barcode images are 16-bit gray.
	gray := image.NewGray(bc.Bounds())
	draw.Draw(gray, gray.Bounds(), bc, bc.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("document: encode %s code: %w", kind, err)
	}
	return buf.Bytes(), nil
}

func alignStr(a doctpl.Align) string {
	switch a {
	case doctpl.AlignLeft:
		return "L"
	case doctpl.AlignRight:
		return "R"
	}
	return "C"
}
