package compose

import (
	"fmt"
	"strings"

	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/records"
)

// Fixed layout of the header region and signature rule, in points.
const (
	BannerWidth    = 154.0
	bannerGapLines = 10

	TitleSize     = 16.0
	titleGapLines = 0.75

	NameSize     = 32.0
	nameGapLines = 0.5

	RuleHalfWidth    = 120.0
	RuleBottomOffset = 100.0

	DefaultCodeSize = 72.0
)

// Block is one field as drawn on a page.
type Block struct {
	Field   string
	Text    string
	Style   doctpl.FieldStyle
	Y       float64
	Missing bool // no value for Field in the details
}

// Rule is the signature line.
type Rule struct {
	X1, X2, Y float64
}

// Page summarises what Compose drew for one record.
type Page struct {
	Name        string
	NameMissing bool // the record lacks a first or last name column
	Banner      bool
	Title       string
	Blocks      []Block
	Rule        *Rule
	Code        string
}

// MissingFields returns the fields drawn without a details value.
func (p Page) MissingFields() []string {
	var out []string
	for _, b := range p.Blocks {
		if b.Missing {
			out = append(out, b.Field)
		}
	}
	return out
}

// frame is the fixed geometry of the page being composed.
type frame struct {
	canvas  Canvas
	pageW   float64
	pageH   float64
	margin  float64
	content float64
}

// Compose draws the page for rec onto c. Field values come from details, the
// request-wide extra values, not from rec; a field without a value is drawn
// as an empty block and reported in Page.Blocks.
func Compose(c Canvas, rec records.Record, spec *doctpl.Spec, details map[string]string) (Page, error) {
	c.AddPage()
	w, h := c.PageSize()
	m := c.Margin()
	f := frame{canvas: c, pageW: w, pageH: h, margin: m, content: w - 2*m}

	build := spec.BuildOrEmpty()
	var page Page
	cur := Cursor{Y: m, Size: doctpl.DefaultSize}

	if build.Background != "" {
		if err := c.Background(build.Background); err != nil {
			return page, fmt.Errorf("compose: background: %w", err)
		}
	}

	var err error
	if build.BannerImage != "" {
		if cur, err = f.banner(cur, build.BannerImage); err != nil {
			return page, err
		}
		page.Banner = true
	}

	if build.Title != "" {
		cur = f.title(cur, build.Title)
		page.Title = build.Title
	}

	page.Name, page.NameMissing = displayName(rec)
	cur = f.name(cur, page.Name)

	for _, fld := range spec.Fields {
		value, ok := details[fld.Name]
		if fld.Name == doctpl.SignatureField {
			var rule Rule
			cur, rule = f.rule(cur, fld.Style)
			page.Rule = &rule
		}

		block := Block{Field: fld.Name, Text: value, Style: fld.Style, Y: cur.Y, Missing: !ok}
		cur = f.field(cur, block)
		page.Blocks = append(page.Blocks, block)
	}

	if build.Code != nil {
		page.Code = expand(build.Code.Content, rec, page.Name)
		if err := f.code(*build.Code, page.Code); err != nil {
			return page, err
		}
	}

	return page, nil
}

func (f frame) banner(cur Cursor, path string) (Cursor, error) {
	x := (f.pageW - BannerWidth) / 2
	h, err := f.canvas.Image(path, x, cur.Y, BannerWidth)
	if err != nil {
		return cur, fmt.Errorf("compose: banner: %w", err)
	}
	return cur.Advance(h).Down(bannerGapLines), nil
}

func (f frame) title(cur Cursor, title string) Cursor {
	cur = cur.WithSize(TitleSize)
	used := f.canvas.Text(f.margin, cur.Y, f.content, title,
		Font{Family: doctpl.DefaultFamily, Size: TitleSize}, doctpl.AlignCenter)
	return cur.Advance(used).Down(titleGapLines)
}

func (f frame) name(cur Cursor, name string) Cursor {
	cur = cur.WithSize(NameSize)
	used := f.canvas.Text(f.margin, cur.Y, f.content, name,
		Font{Family: doctpl.DefaultFamily, Bold: true, Size: NameSize}, doctpl.AlignCenter)
	return cur.Advance(used).Down(nameGapLines)
}

// rule strokes the signature line at its fixed position and moves the cursor
// one line above it, whatever the cursor was before.
func (f frame) rule(cur Cursor, style doctpl.FieldStyle) (Cursor, Rule) {
	r := Rule{
		X1: f.pageW/2 - RuleHalfWidth,
		X2: f.pageW/2 + RuleHalfWidth,
		Y:  f.pageH - RuleBottomOffset,
	}
	f.canvas.Line(r.X1, r.Y, r.X2, r.Y)
	return cur.At(r.Y - LineHeight(style.Size)), r
}

func (f frame) field(cur Cursor, b Block) Cursor {
	cur = cur.WithSize(b.Style.Size)
	used := f.canvas.Text(f.margin, cur.Y, f.content, b.Text,
		Font{Family: b.Style.Family, Size: b.Style.Size}, b.Style.Align)
	return cur.Advance(used).Down(b.Style.Spacing)
}

func (f frame) code(spec doctpl.Code, content string) error {
	size := spec.Size
	if size <= 0 {
		size = DefaultCodeSize
	}
	w, h := size, size
	if spec.Kind == doctpl.CodePDF417 {
		w, h = size*2, size/2
	}
	x := f.pageW - f.margin - w
	y := f.pageH - f.margin - h
	if err := f.canvas.Code(spec.Kind, content, x, y, w, h); err != nil {
		return fmt.Errorf("compose: code: %w", err)
	}
	return nil
}

func displayName(rec records.Record) (string, bool) {
	name, ok := rec.DisplayName()
	return name, !ok
}

// expand replaces {name} with the display name and {Column} with the
// record's value for Column.
func expand(content string, rec records.Record, name string) string {
	pairs := make([]string, 0, 2*len(rec)+2)
	pairs = append(pairs, "{name}", name)
	for k, v := range rec {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
