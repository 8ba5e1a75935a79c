package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// ErrInvalidName is returned by Resolve for names that are not a single
// path element.
var ErrInvalidName = errors.New("storage: invalid file name")

// Resolve returns the path of file name inside root. name must be a plain
// file name; the result never escapes root, even through symlinks.
func Resolve(root, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return "", err
	}
	if filepath.Dir(p) != filepath.Clean(root) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return p, nil
}
