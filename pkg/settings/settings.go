// SPDX-License-Identifier: MPL-2.0

package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/cueutil"
)

// FileName is the settings file every build directory carries.
const FileName = "settings.cue"

var (
	//go:embed settings_schema.cue
	settingsSchema []byte

	// ErrNotFinalized is returned by Catalogs before Finalize has run.
	ErrNotFinalized = errors.New("settings are not finalized yet")

	// ErrDuplicateCatalog is the sentinel wrapped by DuplicateCatalogError.
	ErrDuplicateCatalog = errors.New("duplicate catalog")
)

type (
	// Settings is the decoded settings.cue of one build.
	Settings struct {
		RootProjectName     string        `json:"rootProjectName,omitempty"`
		IncludeBuilds       []string      `json:"includeBuilds,omitempty"`
		CatalogDecls        []CatalogDecl `json:"catalogs,omitempty"`
		TypesafeConventions *Extension    `json:"typesafeConventions,omitempty"`

		// FilePath is the absolute path of the settings file.
		FilePath string `json:"-"`

		finalized bool
		builders  []*CatalogBuilder
	}

	// CatalogDecl is one entry of the catalogs list.
	CatalogDecl struct {
		Name      string              `json:"name"`
		From      []string            `json:"from,omitempty"`
		Versions  map[string]string   `json:"versions,omitempty"`
		Libraries map[string]string   `json:"libraries,omitempty"`
		Plugins   map[string]string   `json:"plugins,omitempty"`
		Bundles   map[string][]string `json:"bundles,omitempty"`
	}

	// Extension is the typesafeConventions block. Nil pointers mean "not set"
	// so that file configuration and defaults can fill them in.
	Extension struct {
		AutoPluginDependencies *bool  `json:"autoPluginDependencies,omitempty"`
		AllowTopLevelBuild     *bool  `json:"allowTopLevelBuild,omitempty"`
		ConventionCatalogName  string `json:"conventionCatalogName,omitempty"`
	}

	// DuplicateCatalogError is returned when two catalogs share a name.
	DuplicateCatalogError struct {
		Name catalog.Name
	}
)

// Error implements the error interface.
func (e *DuplicateCatalogError) Error() string {
	return fmt.Sprintf("catalog %q is declared more than once", e.Name)
}

// Unwrap returns ErrDuplicateCatalog for errors.Is() compatibility.
func (e *DuplicateCatalogError) Unwrap() error { return ErrDuplicateCatalog }

// Parse reads and parses the settings file at path.
func Parse(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses settings content. path is used for error messages and to
// resolve relative paths.
func ParseBytes(data []byte, path string) (*Settings, error) {
	s, _, err := cueutil.Decode[Settings](settingsSchema, data, "#Settings", cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	s.FilePath = abs

	seen := make(map[string]bool, len(s.CatalogDecls))
	for _, decl := range s.CatalogDecls {
		if seen[decl.Name] {
			return nil, fmt.Errorf("%s: %w", path, &DuplicateCatalogError{Name: catalog.Name(decl.Name)})
		}
		seen[decl.Name] = true
	}
	return s, nil
}

// Dir returns the directory holding the settings file.
func (s *Settings) Dir() string {
	return filepath.Dir(s.FilePath)
}

// IsConventionBuild reports whether the build carries a typesafeConventions block.
func (s *Settings) IsConventionBuild() bool {
	return s.TypesafeConventions != nil
}

// Finalize freezes the settings and materializes the catalog builders.
// It is idempotent.
func (s *Settings) Finalize() {
	if s.finalized {
		return
	}
	s.builders = make([]*CatalogBuilder, 0, len(s.CatalogDecls))
	for _, decl := range s.CatalogDecls {
		s.builders = append(s.builders, &CatalogBuilder{decl: decl, dir: s.Dir(), source: s.FilePath})
	}
	s.finalized = true
}

// Finalized reports whether Finalize has run.
func (s *Settings) Finalized() bool {
	return s.finalized
}

// Catalogs returns the programmatically created catalogs in declaration
// order. It fails with ErrNotFinalized until Finalize has run.
func (s *Settings) Catalogs() ([]*CatalogBuilder, error) {
	if !s.finalized {
		return nil, ErrNotFinalized
	}
	return s.builders, nil
}
