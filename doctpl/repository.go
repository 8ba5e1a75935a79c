package doctpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reason classifies a template loading failure.
type Reason int

const (
	NotFound Reason = iota + 1
	MalformedSpec
	MissingFields
)

func (r Reason) String() string {
	switch r {
	case NotFound:
		return "not found"
	case MalformedSpec:
		return "malformed"
	case MissingFields:
		return "missing fields"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// TemplateError is returned by Load when a template cannot be used.
type TemplateError struct {
	ID     string
	Reason Reason
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("doctpl: template %q %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("doctpl: template %q %s", e.ID, e.Reason)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// IsReason reports whether err is a TemplateError with the given reason.
func IsReason(err error, r Reason) bool {
	var terr *TemplateError
	return errors.As(err, &terr) && terr.Reason == r
}

// Loader yields validated templates by identifier.
type Loader interface {
	Load(ctx context.Context, id string) (*Spec, error)
	List(ctx context.Context) ([]string, error)
}

// extensions are tried in order when resolving an identifier.
var extensions = []string{".json", ".yaml", ".yml"}

// Repository loads templates from a file system. Identifier "course" maps to
// "course.json", "course.yaml" or "course.yml" at the root of the file system.
type Repository struct {
	files     fs.FS
	assetRoot string
}

// Ensure the implementation satisfies the public interface.
var _ Loader = (*Repository)(nil)

// NewRepository returns a Repository over files. Relative banner and
// background paths are resolved against assetRoot on the OS file system.
func NewRepository(files fs.FS, assetRoot string) *Repository {
	return &Repository{files: files, assetRoot: assetRoot}
}

// NewDirRepository returns a Repository rooted at dir.
func NewDirRepository(dir, assetRoot string) *Repository {
	return NewRepository(os.DirFS(dir), assetRoot)
}

// Load reads, validates and decodes template id.
func (r *Repository) Load(ctx context.Context, id string) (*Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := r.resolve(id)
	if err != nil {
		return nil, &TemplateError{ID: id, Reason: NotFound, Err: err}
	}

	data, err := fs.ReadFile(r.files, name)
	if err != nil {
		return nil, &TemplateError{ID: id, Reason: NotFound, Err: err}
	}

	spec, err := decode(name, data)
	if err != nil {
		return nil, &TemplateError{ID: id, Reason: MalformedSpec, Err: err}
	}
	if len(spec.Fields) == 0 {
		return nil, &TemplateError{ID: id, Reason: MissingFields}
	}
	if err := r.resolveAssets(spec); err != nil {
		return nil, &TemplateError{ID: id, Reason: MalformedSpec, Err: err}
	}

	spec.ID = id
	return spec, nil
}

// List returns the identifiers of every template in the repository, sorted.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("doctpl: listing templates: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if !isTemplateExt(ext) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repository) resolve(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || !fs.ValidPath(id) {
		return "", fmt.Errorf("invalid identifier")
	}
	for _, ext := range extensions {
		name := id + ext
		if st, err := fs.Stat(r.files, name); err == nil && !st.IsDir() {
			return name, nil
		}
	}
	return "", fs.ErrNotExist
}

// decode validates the document shape and decodes it into a Spec.
// The format is chosen by the file extension of name.
func decode(name string, data []byte) (*Spec, error) {
	var (
		raw       any
		unmarshal func([]byte, any) error
	)
	switch path.Ext(name) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		unmarshal = json.Unmarshal
	}

	if err := unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := validateShape(raw); err != nil {
		return nil, err
	}

	var spec Spec
	if err := unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func isTemplateExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
