// Package certgen generates certificate documents from a roster and a
// layout template.
//
// A Generator runs one request as a fixed pipeline: derive the artifact name
// from the upload name, parse the roster, load the template, compose one
// page per roster row and finalize the document. The first failing stage
// ends the request; its error decides the Result status.
//
//	g := certgen.New(
//	    certgen.WithOutputDir("storage/generated_docs"),
//	    certgen.WithLoader(doctpl.NewCache(doctpl.NewDirRepository("storage/data", "."))),
//	)
//	res := g.Generate(ctx, certgen.Request{
//	    Upload:   "storage/uploads/upload-1c9e.csv",
//	    Prefix:   "cert",
//	    Template: "course",
//	    Details:  map[string]string{"courseName": "Go 101"},
//	})
package certgen

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lvillar/certgen/compose"
	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/document"
	"github.com/lvillar/certgen/metrics"
	"github.com/lvillar/certgen/naming"
	"github.com/lvillar/certgen/records"
)

// TracerName is the instrumentation name of generation spans.
const TracerName = "github.com/lvillar/certgen"

// internalMessage is the Message of every 500 Result.
const internalMessage = "failed to generate document"

// Publisher receives finalized documents, for example to mirror them to
// object storage. name is the artifact file name.
type Publisher interface {
	Publish(ctx context.Context, path, name string) error
}

// Request is one generation job.
type Request struct {
	// Upload is the path of the roster file. Its base name is the upload
	// identity the artifact name is derived from.
	Upload   string
	Prefix   string
	Template string
	// Details are the field values shared by every page.
	Details map[string]string
}

// Result is the outcome of a request.
type Result struct {
	Status   int    `json:"status"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// OK reports whether the document was generated.
func (r Result) OK() bool { return r.Status == http.StatusOK }

// Generator runs generation requests. It is safe for concurrent use as long
// as concurrent requests have distinct upload names.
type Generator struct {
	outputDir string
	loader    doctpl.Loader
	log       *zap.Logger
	metrics   *metrics.GenerationMetrics
	publisher Publisher
	tracer    trace.Tracer
	docOpts   []document.Option
}

// New creates a Generator with the given options.
func New(opts ...Option) *Generator {
	g := &Generator{
		outputDir: DefaultOutputDir,
		log:       zap.NewNop(),
		tracer:    otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.loader == nil {
		g.loader = doctpl.NewCache(doctpl.NewDirRepository(DefaultTemplateDir, "."))
	}
	return g
}

// Templates returns the template source.
func (g *Generator) Templates() doctpl.Loader { return g.loader }

// OutputDir returns the directory documents are written to.
func (g *Generator) OutputDir() string { return g.outputDir }

// Generate runs req to completion and returns exactly one Result.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "certgen.generate",
		trace.WithAttributes(
			attribute.String("certgen.template", req.Template),
			attribute.String("certgen.prefix", req.Prefix),
		),
	)
	defer span.End()

	log := g.log.With(zap.String("template", req.Template), zap.String("upload", filepath.Base(req.Upload)))

	name, pages, err := g.run(ctx, log, req)
	var res Result
	if err != nil {
		res = Result{Status: err.Kind.Status(), Message: err.Error()}
		if err.Kind == KindIO {
			res.Message = internalMessage
			log.Error("generation failed", zap.String("op", err.Op), zap.Error(err))
		} else {
			log.Info("generation rejected", zap.String("op", err.Op), zap.Stringer("kind", err.Kind), zap.Error(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Kind.String())
	} else {
		res = Result{Status: http.StatusOK, Filename: name}
		log.Info("generated document",
			zap.String("filename", name),
			zap.Int("pages", pages),
			zap.Duration("duration", time.Since(start)))
		span.SetAttributes(attribute.Int("certgen.pages", pages))
		span.SetStatus(codes.Ok, "")
	}

	g.metrics.RecordGeneration(res.Status, time.Since(start))
	return res
}

// run executes the pipeline and returns the artifact name and page count.
func (g *Generator) run(ctx context.Context, log *zap.Logger, req Request) (string, int, *Error) {
	span := trace.SpanFromContext(ctx)

	name, err := naming.Derive(req.Prefix, filepath.Base(req.Upload))
	if err != nil {
		return "", 0, newError("derive", err)
	}

	rows, err := records.ParseFile(req.Upload)
	if err != nil {
		return "", 0, newError("parse", err)
	}
	span.AddEvent("parsed", trace.WithAttributes(attribute.Int("certgen.rows", len(rows))))

	spec, err := g.loader.Load(ctx, req.Template)
	if err != nil {
		return "", 0, newError("load", err)
	}

	dest := filepath.Join(g.outputDir, name+"."+document.Extension)
	w, err := document.Open(dest, g.docOpts...)
	if err != nil {
		return "", 0, newError("open", err)
	}
	defer w.Close()

	for i, row := range rows {
		page, err := w.Append(func(c compose.Canvas) (compose.Page, error) {
			return compose.Compose(c, row, spec, req.Details)
		})
		if err != nil {
			return "", 0, newError("compose", err)
		}
		g.report(log, spec.ID, i, page)
	}
	span.AddEvent("composed")

	if err := w.Finalize(); err != nil {
		return "", 0, newError("finalize", err)
	}
	g.metrics.RecordPages(spec.ID, w.Pages())

	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, dest, filepath.Base(dest)); err != nil {
			if rmErr := os.Remove(dest); rmErr != nil {
				log.Warn("removing unpublished document", zap.Error(rmErr))
			}
			return "", 0, newError("publish", err)
		}
		span.AddEvent("published")
	}

	return name, w.Pages(), nil
}

// report logs the data-quality conditions of one composed page. Details are
// shared by all pages, so missing values are reported for the first only.
func (g *Generator) report(log *zap.Logger, template string, row int, page compose.Page) {
	if page.NameMissing {
		log.Warn("record lacks a name column",
			zap.Int("row", row+1),
			zap.String("name", page.Name))
	}
	if row > 0 {
		return
	}
	if missing := page.MissingFields(); len(missing) > 0 {
		log.Warn("fields drawn without a value", zap.Strings("fields", missing))
		g.metrics.RecordMissingValues(template, len(missing))
	}
}
