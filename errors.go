package certgen

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lvillar/certgen/doctpl"
	"github.com/lvillar/certgen/document"
	"github.com/lvillar/certgen/naming"
	"github.com/lvillar/certgen/records"
)

// Kind classifies a generation failure.
type Kind int

const (
	KindIO Kind = iota // output could not be opened, written, finalized or published
	KindNaming
	KindTemplateNotFound
	KindTemplateMalformed
	KindTemplateMissingFields
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNaming:
		return "naming"
	case KindTemplateNotFound:
		return "template not found"
	case KindTemplateMalformed:
		return "malformed template"
	case KindTemplateMissingFields:
		return "template missing fields"
	case KindParse:
		return "parse"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Status returns the result status for failures of kind k.
func (k Kind) Status() int {
	if k == KindIO {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// Error is a failed generation stage.
type Error struct {
	Op   string // stage: "derive", "parse", "load", "open", "compose", "finalize", "publish"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("certgen.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("certgen.%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError classifies err, returned by stage op.
func newError(op string, err error) *Error {
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) Kind {
	var (
		nameErr  *naming.Error
		parseErr *records.ParseError
		tplErr   *doctpl.TemplateError
		assetErr *document.AssetError
	)
	switch {
	case errors.As(err, &nameErr):
		return KindNaming
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &tplErr):
		switch tplErr.Reason {
		case doctpl.NotFound:
			return KindTemplateNotFound
		case doctpl.MissingFields:
			return KindTemplateMissingFields
		}
		return KindTemplateMalformed
	case errors.As(err, &assetErr):
		return KindTemplateMalformed
	}
	return KindIO
}
