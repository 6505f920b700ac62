// SPDX-License-Identifier: MPL-2.0

package catalogs

import (
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

type (
	// Target is a catalog container sources contribute themselves to.
	Target interface {
		AddBuilder(name catalog.Name, b *settings.CatalogBuilder) error
		AddFile(name catalog.Name, path string) error
	}

	// Source is a catalog visible at a build node.
	Source interface {
		Name() catalog.Name
		// Origin describes where the catalog comes from, for display.
		Origin() string
		ContributeTo(t Target) error
	}

	// BuilderSource is a catalog created in settings.cue.
	BuilderSource struct {
		builder *settings.CatalogBuilder
		origin  string
	}

	// FileSource is a catalog defined by a <name>.versions.toml file.
	FileSource struct {
		name catalog.Name
		path string
	}
)

// NewBuilderSource wraps a settings catalog builder. origin is the settings file.
func NewBuilderSource(b *settings.CatalogBuilder, origin string) *BuilderSource {
	return &BuilderSource{builder: b, origin: origin}
}

// NewFileSource returns a source for the catalog file at path. The second
// result is false when the file name does not carry the catalog suffix.
func NewFileSource(path string) (*FileSource, bool) {
	name, ok := catalog.NameFromFile(path)
	if !ok {
		return nil, false
	}
	return &FileSource{name: name, path: path}, true
}

func (s *BuilderSource) Name() catalog.Name { return s.builder.Name() }

func (s *BuilderSource) Origin() string { return s.origin }

// ContributeTo adds the builder itself to t.
func (s *BuilderSource) ContributeTo(t Target) error {
	return t.AddBuilder(s.Name(), s.builder)
}

func (s *FileSource) Name() catalog.Name { return s.name }

func (s *FileSource) Origin() string { return s.path }

// Path returns the catalog file path.
func (s *FileSource) Path() string { return s.path }

// ContributeTo points t at the catalog file.
func (s *FileSource) ContributeTo(t Target) error {
	return t.AddFile(s.name, s.path)
}

// ContributeAll contributes every source to t, stopping at the first error.
func ContributeAll(sources []Source, t Target) error {
	for _, s := range sources {
		if err := s.ContributeTo(t); err != nil {
			return err
		}
	}
	return nil
}
