package document

import (
	"errors"
	"fmt"
)

var (
	// ErrAppendAfterFinalize is the panic value of Append on a finalized or
	// closed Writer.
	ErrAppendAfterFinalize = errors.New("document: append after finalize")
	// ErrClosed is returned by Finalize on a Writer that was already closed.
	ErrClosed = errors.New("document: writer is closed")
	// ErrNoPages is returned by Finalize when nothing was appended.
	ErrNoPages = errors.New("document: no pages")
)

// IOError reports a failure to open, render or persist a document.
type IOError struct {
	Op   string // "open", "append", "finalize"
	Path string // destination path
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("document: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// AssetError reports a template asset, such as a banner image or background
// PDF, that cannot be drawn.
type AssetError struct {
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("document: asset %s: %v", e.Path, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
