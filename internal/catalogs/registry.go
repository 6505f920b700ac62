// SPDX-License-Identifier: MPL-2.0

package catalogs

import (
	"errors"
	"fmt"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

var (
	// ErrUnknownCatalog is returned when a catalog name is not registered.
	ErrUnknownCatalog = errors.New("unknown catalog")

	_ Target = (*Registry)(nil)
	_ Target = (*renamingTarget)(nil)
)

type (
	// Registry is the catalog container of one build. Sources contribute
	// definitions lazily; nothing is parsed until a model is requested.
	Registry struct {
		owner   workspace.IdentityPath
		cache   *ModelCache
		index   map[catalog.Name]int
		entries []registryEntry
	}

	registryEntry struct {
		name   catalog.Name
		origin string
		source sourceKey
		load   func() (*catalog.Definition, error)
	}

	renamingTarget struct {
		Target
		from, to catalog.Name
	}
)

// NewRegistry returns an empty registry for the build owner. Models are
// built through cache.
func NewRegistry(owner workspace.IdentityPath, cache *ModelCache) *Registry {
	return &Registry{owner: owner, cache: cache, index: make(map[catalog.Name]int)}
}

// Renamed wraps t so that a catalog named from is registered as to.
func Renamed(t Target, from, to catalog.Name) Target {
	if from == to || to == "" {
		return t
	}
	return &renamingTarget{Target: t, from: from, to: to}
}

func (r *renamingTarget) rename(name catalog.Name) catalog.Name {
	if name == r.from {
		return r.to
	}
	return name
}

func (r *renamingTarget) AddBuilder(name catalog.Name, b *settings.CatalogBuilder) error {
	return r.Target.AddBuilder(r.rename(name), b)
}

func (r *renamingTarget) AddFile(name catalog.Name, path string) error {
	return r.Target.AddFile(r.rename(name), path)
}

// AddBuilder registers a settings catalog under name.
func (r *Registry) AddBuilder(name catalog.Name, b *settings.CatalogBuilder) error {
	return r.add(registryEntry{
		name:   name,
		origin: "settings catalog " + string(b.Name()),
		source: sourceKey{builder: b},
		load: func() (*catalog.Definition, error) {
			def, err := b.Definition()
			if err != nil {
				return nil, err
			}
			def.Name = name
			return def, nil
		},
	})
}

// AddFile registers the catalog file at path under name.
func (r *Registry) AddFile(name catalog.Name, path string) error {
	return r.add(registryEntry{
		name:   name,
		origin: path,
		source: sourceKey{path: path},
		load:   func() (*catalog.Definition, error) { return catalog.ParseTOMLFile(name, path) },
	})
}

func (r *Registry) add(e registryEntry) error {
	if ok, errs := e.name.IsValid(); !ok {
		return errs[0]
	}
	if _, dup := r.index[e.name]; dup {
		return fmt.Errorf("build %s: %w", r.owner, &settings.DuplicateCatalogError{Name: e.name})
	}
	r.index[e.name] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Owner returns the identity of the build the registry belongs to.
func (r *Registry) Owner() workspace.IdentityPath { return r.owner }

// Names returns the registered names in registration order.
func (r *Registry) Names() []catalog.Name {
	names := make([]catalog.Name, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name catalog.Name) bool {
	_, ok := r.index[name]
	return ok
}

// Origin returns where the named catalog comes from.
func (r *Registry) Origin(name catalog.Name) string {
	if i, ok := r.index[name]; ok {
		return r.entries[i].origin
	}
	return ""
}

// Model returns the built model of the named catalog. A model is built at
// most once per invocation, even when several registries share its source;
// a malformed catalog is a fatal error.
func (r *Registry) Model(name catalog.Name) (*catalog.Model, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w %q in build %s (known: %v)", ErrUnknownCatalog, name, r.owner, r.Names())
	}
	e := r.entries[i]
	return r.cache.model(modelKey{source: e.source, name: name}, func() (*catalog.Model, error) {
		def, err := e.load()
		if err == nil {
			var m *catalog.Model
			if m, err = def.Build(); err == nil {
				return m, nil
			}
		}
		return nil, issue.NewErrorContext().
			WithOperation("build catalog model").
			WithResource(e.origin).
			WithIssue(issue.CatalogMalformedId).
			Wrap(err).
			BuildError()
	})
}

// Models returns the models of every registered catalog in registration order.
func (r *Registry) Models() ([]*catalog.Model, error) {
	models := make([]*catalog.Model, 0, len(r.entries))
	for _, name := range r.Names() {
		m, err := r.Model(name)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}
