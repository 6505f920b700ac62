// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"fmt"
	"path/filepath"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

// CatalogBuilder is a live catalog declared in settings. Files listed in
// from are imported first; inline entries override them by alias.
type CatalogBuilder struct {
	decl   CatalogDecl
	dir    string
	source string
}

// NewCatalogBuilder returns a builder for decl resolving relative paths
// against dir.
func NewCatalogBuilder(decl CatalogDecl, dir string) *CatalogBuilder {
	return &CatalogBuilder{decl: decl, dir: dir, source: filepath.Join(dir, FileName)}
}

// Name returns the catalog name.
func (b *CatalogBuilder) Name() catalog.Name {
	return catalog.Name(b.decl.Name)
}

// FromFiles returns the absolute paths of the imported catalog files.
func (b *CatalogBuilder) FromFiles() []string {
	files := make([]string, 0, len(b.decl.From))
	for _, f := range b.decl.From {
		if !filepath.IsAbs(f) {
			f = filepath.Join(b.dir, f)
		}
		files = append(files, filepath.Clean(f))
	}
	return files
}

// Definition assembles the unresolved catalog.
func (b *CatalogBuilder) Definition() (*catalog.Definition, error) {
	def := catalog.NewDefinition(b.Name(), b.source)
	for _, path := range b.FromFiles() {
		imported, err := catalog.ParseTOMLFile(b.Name(), path)
		if err != nil {
			return nil, err
		}
		def.Overlay(imported)
	}

	inline := catalog.NewDefinition(b.Name(), b.source)
	for alias, v := range b.decl.Versions {
		inline.Versions[alias] = catalog.VersionDecl{Require: v}
	}
	for alias, notation := range b.decl.Libraries {
		lib, err := catalog.ParseLibraryNotation(notation)
		if err != nil {
			return nil, &catalog.ModelError{Catalog: b.Name(), Source: b.source, Err: fmt.Errorf("libraries.%s: %w", alias, err)}
		}
		inline.Libraries[alias] = lib
	}
	for alias, notation := range b.decl.Plugins {
		plugin, err := catalog.ParsePluginNotation(notation)
		if err != nil {
			return nil, &catalog.ModelError{Catalog: b.Name(), Source: b.source, Err: fmt.Errorf("plugins.%s: %w", alias, err)}
		}
		inline.Plugins[alias] = plugin
	}
	for alias, members := range b.decl.Bundles {
		inline.Bundles[alias] = members
	}
	def.Overlay(inline)
	return def, nil
}
