// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

const (
	entrypointTemplate = "templates/entrypoint.kt.tmpl"

	// EntrypointPackageDir is the package directory of generated entrypoints.
	EntrypointPackageDir = "gradle/kotlin/dsl/accessors/_typesafe"

	placeholderType = "Libs"
	placeholderName = "libs"
)

var (
	//go:embed templates/*.tmpl
	templates embed.FS

	// ErrMissingResource is the sentinel wrapped by MissingResourceError.
	ErrMissingResource = errors.New("bundled resource missing")
)

// MissingResourceError reports a bundled resource that is not present in
// the binary. It always indicates a packaging bug.
type MissingResourceError struct {
	Resource string
	Err      error
}

// Error implements the error interface.
func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("bundled resource %s is missing; this is a bug, please report it at %s", e.Resource, issue.BugReportURL)
}

// Unwrap returns ErrMissingResource and the underlying error.
func (e *MissingResourceError) Unwrap() []error { return []error{ErrMissingResource, e.Err} }

// Entrypoint renders the entrypoint source for the catalog called name.
func Entrypoint(name catalog.Name) ([]byte, error) {
	return entrypointFrom(templates, name)
}

func entrypointFrom(fsys fs.FS, name catalog.Name) ([]byte, error) {
	tmpl, err := fs.ReadFile(fsys, entrypointTemplate)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("generate catalog entrypoint").
			WithResource(string(name)).
			WithIssue(issue.MissingResourceId).
			Wrap(&MissingResourceError{Resource: entrypointTemplate, Err: err}).
			BuildError()
	}
	r := strings.NewReplacer(placeholderType, name.Capitalized(), placeholderName, string(name))
	return []byte(r.Replace(string(tmpl))), nil
}

// EntrypointFile returns the path of the entrypoint source, relative to the
// generated sources root.
func EntrypointFile(name catalog.Name) string {
	return EntrypointPackageDir + "/" + name.Capitalized() + "CatalogEntrypoint.kt"
}
