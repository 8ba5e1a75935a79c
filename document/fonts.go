package document

import (
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/lvillar/certgen/compose"
	"github.com/lvillar/certgen/doctpl"
)

// ttfSuffixes are the file name suffixes tried for each gofpdf style.
var ttfSuffixes = map[string][]string{
	"":   {"", "-Regular"},
	"B":  {"-Bold"},
	"I":  {"-Italic", "-Oblique"},
	"BI": {"-BoldItalic", "-BoldOblique"},
}

type resolvedFont struct {
	family    string
	style     string
	translate func(string) string
}

// fontBook maps declared font families to fonts registered in one document.
// Core PDF fonts are used as is; other families are loaded from TrueType
// files in dir; anything else falls back to Helvetica.
type fontBook struct {
	pdf      *gofpdf.Fpdf
	dir      string
	log      *zap.Logger
	cp1252   func(string) string
	resolved map[string]resolvedFont
}

func newFontBook(pdf *gofpdf.Fpdf, dir string, log *zap.Logger) *fontBook {
	return &fontBook{
		pdf:      pdf,
		dir:      dir,
		log:      log,
		cp1252:   pdf.UnicodeTranslatorFromDescriptor(""),
		resolved: make(map[string]resolvedFont),
	}
}

// use selects font for subsequent text and returns the translation its
// text needs.
func (b *fontBook) use(font compose.Font) func(string) string {
	face := compose.ParseFace(font.Family)
	if face.Family == "" {
		face.Family = doctpl.DefaultFamily
	}
	if font.Bold {
		face = face.Bold()
	}

	rf, ok := b.resolved[face.Key()]
	if !ok {
		rf = b.resolve(face)
		b.resolved[face.Key()] = rf
	}
	b.pdf.SetFont(rf.family, rf.style, font.Size)
	return rf.translate
}

func (b *fontBook) resolve(face compose.Face) resolvedFont {
	if family, ok := face.Core(); ok {
		return resolvedFont{family: family, style: face.Style, translate: b.cp1252}
	}

	if data, ok := b.readTTF(face); ok {
		b.pdf.AddUTF8FontFromBytes(face.Family, face.Style, data)
		return resolvedFont{family: face.Family, style: face.Style, translate: identity}
	}

	b.log.Warn("font not found, using fallback",
		zap.String("family", face.Family),
		zap.String("style", face.Style),
		zap.String("fallback", doctpl.DefaultFamily))
	return resolvedFont{family: doctpl.DefaultFamily, style: face.Style, translate: b.cp1252}
}

func (b *fontBook) readTTF(face compose.Face) ([]byte, bool) {
	if b.dir == "" {
		return nil, false
	}
	for _, suffix := range ttfSuffixes[face.Style] {
		data, err := os.ReadFile(filepath.Join(b.dir, face.Family+suffix+".ttf"))
		if err == nil {
			return data, true
		}
	}
	return nil, false
}

func identity(s string) string { return s }
