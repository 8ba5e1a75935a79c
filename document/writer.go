// Package document renders composed pages into a PDF file.
//
// A Writer owns one output file for its whole life. Pages are rendered into
// memory as they are appended; Finalize writes the document to a temporary
// file next to the destination, syncs it and renames it into place, so the
// destination path never holds a partial document. Close releases the
// Writer on every other path and is safe to defer.
package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/lvillar/certgen/compose"
)

// Extension is the file extension of rendered documents, without the dot.
const Extension = "pdf"

// State is the lifecycle stage of a Writer.
type State int

const (
	NotStarted State = iota // opened, no page appended yet
	Composing               // at least one page appended
	Finalized               // persisted at the destination
	Closed                  // released without persisting
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Composing:
		return "composing"
	case Finalized:
		return "finalized"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DrawFunc draws exactly one page on a canvas.
type DrawFunc func(compose.Canvas) (compose.Page, error)

// Writer accumulates pages and persists them as one document.
// A Writer is not safe for concurrent use.
type Writer struct {
	dest   string
	cfg    config
	file   File
	pdf    *gofpdf.Fpdf
	canvas *pdfCanvas
	state  State
	pages  int
}

// Open prepares a document destined for dest. The temporary output file is
// created immediately so an unwritable directory fails here, before any
// page is composed.
func Open(dest string, opts ...Option) (*Writer, error) {
	cfg := newConfig(opts)

	f, err := cfg.createTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return nil, &IOError{Op: "open", Path: dest, Err: err}
	}

	m := cfg.layout.Margin
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: cfg.layout.Orientation,
		UnitStr:        "pt",
		SizeStr:        cfg.layout.Size,
		FontDirStr:     cfg.fontDir,
	})
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(false, m)
	pdf.SetCompression(cfg.compress)
	pdf.SetCreator("certgen", false)

	if pdf.Err() {
		discard(f)
		return nil, &IOError{Op: "open", Path: dest, Err: pdf.Error()}
	}

	return &Writer{
		dest:   dest,
		cfg:    cfg,
		file:   f,
		pdf:    pdf,
		canvas: newCanvas(pdf, cfg),
	}, nil
}

// Path returns the destination path.
func (w *Writer) Path() string { return w.dest }

// State returns the current lifecycle stage.
func (w *Writer) State() State { return w.state }

// Pages returns the number of pages appended so far.
func (w *Writer) Pages() int { return w.pages }

// Append runs draw against the document canvas. draw must add exactly one
// page. Appending to a finalized or closed Writer is a programming error
// and panics with ErrAppendAfterFinalize.
func (w *Writer) Append(draw DrawFunc) (compose.Page, error) {
	if w.state == Finalized || w.state == Closed {
		panic(ErrAppendAfterFinalize)
	}

	before := w.pdf.PageCount()
	page, err := draw(w.canvas)
	if err == nil && w.pdf.Err() {
		err = w.pdf.Error()
	}
	if err == nil {
		if added := w.pdf.PageCount() - before; added != 1 {
			err = fmt.Errorf("draw added %d pages, want 1", added)
		}
	}
	if err != nil {
		return page, &IOError{Op: "append", Path: w.dest, Err: err}
	}

	w.pages++
	w.state = Composing
	return page, nil
}

// Finalize writes the document and moves it to its destination. The Writer
// is released whatever the outcome; on failure nothing is left at the
// destination or in its directory.
func (w *Writer) Finalize() error {
	switch w.state {
	case Finalized:
		return nil
	case Closed:
		return &IOError{Op: "finalize", Path: w.dest, Err: ErrClosed}
	case NotStarted:
		w.Close()
		return &IOError{Op: "finalize", Path: w.dest, Err: ErrNoPages}
	}

	if err := w.persist(); err != nil {
		w.Close()
		return &IOError{Op: "finalize", Path: w.dest, Err: err}
	}
	w.state = Finalized
	return nil
}

func (w *Writer) persist() error {
	if err := w.pdf.Output(w.file); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	return os.Rename(w.file.Name(), w.dest)
}

// Close releases a Writer that was not finalized, removing its temporary
// file. It is a no-op after Finalize or a previous Close.
func (w *Writer) Close() error {
	if w.state == Finalized || w.state == Closed {
		return nil
	}
	w.state = Closed
	return discard(w.file)
}

func discard(f File) error {
	// The file may already be closed by a failed persist.
	_ = f.Close()
	if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
