// Package records reads recipient rows from delimited tabular files.
//
// The first row is the header; every following row becomes one Record keyed by
// the header names. Rows are produced in file order and none are dropped: a row
// whose column count differs from the header is a ParseError.
package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Column names holding the recipient's display name.
const (
	FirstColumn = "First"
	LastColumn  = "Last"
)

// TemplateHeader is the header row of an empty roster.
var TemplateHeader = []string{FirstColumn, LastColumn}

// ErrNoRecords is returned by Parse when the file has a header but no data rows.
var ErrNoRecords = errors.New("records: no data rows")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Record is one data row keyed by header name.
type Record map[string]string

// Lookup returns the value of column name. An exact match wins; otherwise
// a header equal under Unicode case folding is used. Parse rejects headers
// that are equal under folding, so at most one matches.
func (r Record) Lookup(name string) (string, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// DisplayName joins the first and last name columns with one space.
// ok is false when either column is missing from the record.
func (r Record) DisplayName() (name string, ok bool) {
	first, okFirst := r.Lookup(FirstColumn)
	last, okLast := r.Lookup(LastColumn)
	return first + " " + last, okFirst && okLast
}

// ParseError describes malformed input at a given line.
type ParseError struct {
	Line int // 1-based line in the input, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("records: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("records: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader streams Records from a CSV source.
type Reader struct {
	csv    *csv.Reader
	header []string
	err    error
}

// NewReader returns a Reader over r. The header is read lazily on the first
// call to Next.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Header returns the column names, reading them if needed.
func (r *Reader) Header() ([]string, error) {
	if r.header == nil && r.err == nil {
		r.err = r.readHeader()
	}
	return r.header, r.err
}

func (r *Reader) readHeader() error {
	row, err := r.csv.Read()
	if err == io.EOF {
		return &ParseError{Err: errors.New("missing header row")}
	}
	if err != nil {
		return wrapCSV(err)
	}

	header := make([]string, len(row))
	for i, name := range row {
		if i == 0 {
			name = string(bytes.TrimPrefix([]byte(name), utf8BOM))
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return &ParseError{Line: 1, Err: fmt.Errorf("empty column name at position %d", i+1)}
		}
		// Lookup folds case, so names equal under folding would be ambiguous.
		for _, prev := range header[:i] {
			if strings.EqualFold(prev, name) {
				return &ParseError{Line: 1, Err: fmt.Errorf("duplicate column %q", name)}
			}
		}
		header[i] = name
	}
	r.header = header
	return nil
}

// Next returns the next Record, or io.EOF after the last row.
func (r *Reader) Next() (Record, error) {
	if _, err := r.Header(); err != nil {
		return nil, err
	}

	row, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, wrapCSV(err)
	}

	rec := make(Record, len(r.header))
	for i, name := range r.header {
		rec[name] = row[i]
	}
	return rec, nil
}

// All yields every remaining Record in input order. Iteration stops after the
// first error, which is yielded with a nil Record.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Parse reads every Record from r. At least one data row is required.
func Parse(r io.Reader) ([]Record, error) {
	var out []Record
	for rec, err := range NewReader(r).All() {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, &ParseError{Err: ErrNoRecords}
	}
	return out, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()
	return Parse(f)
}

// WriteTemplate writes an empty roster containing only TemplateHeader.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TemplateHeader); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func wrapCSV(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Err: perr.Err}
	}
	return &ParseError{Err: err}
}
