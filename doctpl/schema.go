// Package doctpl loads certificate layout templates.
//
// A template declares the ordered list of detail fields drawn under the
// recipient's name, each with an optional partial style, and an optional build
// block controlling the banner and title:
//
//	{
//	  "fields": {
//	    "courseName":     {"size": 18},
//	    "completionDate": {"family": "Times-Italic", "spacing": 2},
//	    "instructorName": {}
//	  },
//	  "build": {"banner-image": "public/images/banner.png", "title": "Certificate of Completion"}
//	}
//
// Field order in the document is the render order; it is kept in Spec.Fields.
package doctpl

import "fmt"

// Style defaults applied to every field property a template leaves out.
const (
	DefaultFamily  = "Helvetica"
	DefaultSize    = 12.0
	DefaultAlign   = AlignCenter
	DefaultSpacing = 1.0
)

// SignatureField is the field drawn above a fixed signature rule.
const SignatureField = "instructorName"

// Align is a horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Valid reports whether a is one of the known alignments.
func (a Align) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// FieldStyle is the resolved typography of one field.
type FieldStyle struct {
	Family  string  `json:"family" yaml:"family"`
	Size    float64 `json:"size" yaml:"size"`
	Align   Align   `json:"align" yaml:"align"`
	Spacing float64 `json:"spacing" yaml:"spacing"` // paragraph gap, in line heights
}

func (s FieldStyle) String() string {
	return fmt.Sprintf("%s %gpt %s x%g", s.Family, s.Size, s.Align, s.Spacing)
}

// DefaultStyle returns the style of a field declared as {}.
func DefaultStyle() FieldStyle {
	return FieldStyle{
		Family:  DefaultFamily,
		Size:    DefaultSize,
		Align:   DefaultAlign,
		Spacing: DefaultSpacing,
	}
}

// Style is the partial style a template declares for a field.
// Nil properties take the defaults.
type Style struct {
	Family  *string  `json:"family,omitempty" yaml:"family,omitempty"`
	Size    *float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Align   *Align   `json:"align,omitempty" yaml:"align,omitempty"`
	Spacing *float64 `json:"spacing,omitempty" yaml:"spacing,omitempty"`
}

// Resolve merges s over DefaultStyle.
func (s Style) Resolve() FieldStyle {
	out := DefaultStyle()
	if s.Family != nil && *s.Family != "" {
		out.Family = *s.Family
	}
	if s.Size != nil {
		out.Size = *s.Size
	}
	if s.Align != nil {
		out.Align = *s.Align
	}
	if s.Spacing != nil {
		out.Spacing = *s.Spacing
	}
	return out
}

// Field is one declared field with its resolved style.
type Field struct {
	Name  string
	Style FieldStyle
}

// Fields is the ordered field list of a template.
type Fields []Field

// Names returns the field names in declaration order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, fld := range f {
		names[i] = fld.Name
	}
	return names
}

// Build holds the optional page decorations of a template.
type Build struct {
	BannerImage string `json:"banner-image,omitempty" yaml:"banner-image,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`

	// Background is a PDF whose first page is drawn under everything else.
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	// Code is a per-recipient barcode drawn in the bottom-right corner.
	Code *Code `json:"code,omitempty" yaml:"code,omitempty"`
}

// Code kinds.
const (
	CodeQR     = "qr"
	CodePDF417 = "pdf417"
)

// Code describes a verification barcode. Content may reference record columns
// as {Column} and the full display name as {name}.
type Code struct {
	Kind    string  `json:"kind" yaml:"kind"`
	Content string  `json:"content" yaml:"content"`
	Size    float64 `json:"size,omitempty" yaml:"size,omitempty"` // edge length in points (default: 72)
}

// Spec is a validated template. It is shared read-only by every page of a
// generation and must not be mutated after loading.
type Spec struct {
	ID     string `json:"id" yaml:"id"`
	Fields Fields `json:"fields" yaml:"fields"`
	Build  *Build `json:"build,omitempty" yaml:"build,omitempty"`
}

// BuildOrEmpty returns s.Build, or an empty Build when the template has none.
func (s *Spec) BuildOrEmpty() Build {
	if s.Build == nil {
		return Build{}
	}
	return *s.Build
}
