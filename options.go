package certgen

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/document"
	"github.com/lvillar/certgen/metrics"
)

// Default directories, relative to the working directory.
const (
	DefaultTemplateDir = "storage/data"
	DefaultOutputDir   = "storage/generated_docs"
)

// Option configures a Generator created by New.
type Option func(*Generator)

// WithOutputDir sets the directory finalized documents are written to.
func WithOutputDir(dir string) Option {
	return func(g *Generator) {
		g.outputDir = dir
	}
}

// WithLoader sets the template source. Wrap it in a doctpl.Cache to load
// each template once.
func WithLoader(l doctpl.Loader) Option {
	return func(g *Generator) {
		g.loader = l
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics records generation metrics to m.
func WithMetrics(m *metrics.GenerationMetrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithPublisher copies every finalized document to p.
func WithPublisher(p Publisher) Option {
	return func(g *Generator) {
		g.publisher = p
	}
}

// WithTracerProvider sets the provider of the generation tracer. The
// default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Generator) {
		g.tracer = tp.Tracer(TracerName)
	}
}

// WithDocumentOptions passes opts to every document.Open.
func WithDocumentOptions(opts ...document.Option) Option {
	return func(g *Generator) {
		g.docOpts = append(g.docOpts, opts...)
	}
}
