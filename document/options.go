package document

import (
	"os"

	"go.uber.org/zap"
)

// Layout is the page geometry of every page in a document.
type Layout struct {
	Orientation string  // "L" or "P"
	Size        string  // gofpdf page size name: "Letter", "A4"...
	Margin      float64 // points, applied to every side
}

// DefaultLayout is US Letter, landscape, with a half-inch margin.
func DefaultLayout() Layout {
	return Layout{Orientation: "L", Size: "Letter", Margin: 36}
}

// File is the output stream a Writer renders into before it is renamed to
// its destination. *os.File implements it.
type File interface {
	Write(p []byte) (int, error)
	Sync() error
	Close() error
	Name() string
}

// Option configures a Writer.
type Option func(*config)

type config struct {
	layout     Layout
	fontDir    string
	compress   bool
	logger     *zap.Logger
	createTemp func(dir, pattern string) (File, error)
}

func newConfig(opts []Option) config {
	c := config{
		layout:   DefaultLayout(),
		compress: true,
		logger:   zap.NewNop(),
		createTemp: func(dir, pattern string) (File, error) {
			f, err := os.CreateTemp(dir, pattern)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLayout sets the page geometry.
func WithLayout(l Layout) Option {
	return func(c *config) { c.layout = l }
}

// WithFontDir sets the directory searched for TrueType fonts named
// <Family>.ttf or <Family>-<Style>.ttf.
func WithFontDir(dir string) Option {
	return func(c *config) { c.fontDir = dir }
}

// WithCompression toggles compression of page content streams. It is on by
// default.
func WithCompression(on bool) Option {
	return func(c *config) { c.compress = on }
}

// WithLogger sets the logger used for font fallback warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCreateTemp replaces the function that creates the temporary output
// file in the destination directory.
func WithCreateTemp(fn func(dir, pattern string) (File, error)) Option {
	return func(c *config) { c.createTemp = fn }
}
