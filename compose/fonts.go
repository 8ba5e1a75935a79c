package compose

import "strings"

// Face is a font family plus a gofpdf style string ("", "B", "I" or "BI").
type Face struct {
	Family string
	Style  string
}

// coreFamilies are the standard PDF fonts every reader provides.
var coreFamilies = map[string]string{
	"helvetica":    "Helvetica",
	"arial":        "Arial",
	"times":        "Times",
	"courier":      "Courier",
	"symbol":       "Symbol",
	"zapfdingbats": "ZapfDingbats",
}

var faceSuffixes = map[string]string{
	"regular":     "",
	"roman":       "",
	"bold":        "B",
	"italic":      "I",
	"oblique":     "I",
	"bolditalic":  "BI",
	"boldoblique": "BI",
}

// ParseFace splits a PostScript-style face name such as "Helvetica-Bold",
// "Times-Roman" or "Roboto-BoldItalic" into family and style. Names without
// a recognised suffix are returned whole with the regular style.
func ParseFace(name string) Face {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexByte(name, '-'); i > 0 {
		if style, ok := faceSuffixes[strings.ToLower(name[i+1:])]; ok {
			return Face{Family: name[:i], Style: style}
		}
	}
	return Face{Family: name}
}

// Bold returns f with the bold style added.
func (f Face) Bold() Face {
	if !strings.Contains(f.Style, "B") {
		f.Style = "B" + f.Style
	}
	return f
}

// Core reports whether f.Family is a standard PDF font, and returns its
// canonical spelling.
func (f Face) Core() (string, bool) {
	family, ok := coreFamilies[strings.ToLower(f.Family)]
	return family, ok
}

// Key identifies the face case-insensitively.
func (f Face) Key() string {
	return strings.ToLower(f.Family) + "|" + f.Style
}
