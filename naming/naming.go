// Package naming derives output artifact names from uploaded file names.
package naming

import (
	"fmt"
	"strings"
)

// Extension is the only upload extension accepted by Derive.
const Extension = "csv"

// Error reports an upload name that cannot be turned into an artifact name.
type Error struct {
	Name   string // the rejected upload name
	Reason string // "multiple separators", "wrong extension", "empty base name", "invalid prefix"
}

func (e *Error) Error() string {
	return fmt.Sprintf("naming: %s in %q", e.Reason, e.Name)
}

// Derive validates uploaded and combines its base name with prefix.
// The upload must look like <base>.csv with exactly one dot; the result is
// "<prefix>_<base>" without an extension. prefix may not contain a path
// separator.
func Derive(prefix, uploaded string) (string, error) {
	if strings.ContainsAny(prefix, `/\`) {
		return "", &Error{Name: prefix, Reason: "invalid prefix"}
	}
	parts := strings.Split(uploaded, ".")
	if len(parts) != 2 {
		return "", &Error{Name: uploaded, Reason: "multiple separators"}
	}
	if parts[1] != Extension {
		return "", &Error{Name: uploaded, Reason: "wrong extension"}
	}
	if parts[0] == "" {
		return "", &Error{Name: uploaded, Reason: "empty base name"}
	}
	return prefix + "_" + parts[0], nil
}
