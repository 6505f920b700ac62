// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrMalformedCatalog is the sentinel wrapped by ModelError.
var ErrMalformedCatalog = errors.New("malformed catalog")

type (
	// VersionDecl is a version as written: either a reference to a declared
	// version or an inline constraint.
	VersionDecl struct {
		Ref      string
		Strictly string
		Require  string
		Prefer   string
	}

	// LibraryDecl is a library entry as written.
	LibraryDecl struct {
		Group   string
		Name    string
		Version VersionDecl
	}

	// PluginDecl is a plugin entry as written.
	PluginDecl struct {
		ID      string
		Version VersionDecl
	}

	// Definition is an unresolved catalog. Keys are aliases as written.
	Definition struct {
		Name      Name
		Source    string
		Versions  map[string]VersionDecl
		Libraries map[string]LibraryDecl
		Plugins   map[string]PluginDecl
		Bundles   map[string][]string
	}

	// ModelError reports why a Definition could not be built. It unwraps to
	// both ErrMalformedCatalog and the underlying cause.
	ModelError struct {
		Catalog Name
		Source  string
		Err     error
	}
)

// NewDefinition returns an empty definition.
func NewDefinition(name Name, source string) *Definition {
	return &Definition{
		Name:      name,
		Source:    source,
		Versions:  make(map[string]VersionDecl),
		Libraries: make(map[string]LibraryDecl),
		Plugins:   make(map[string]PluginDecl),
		Bundles:   make(map[string][]string),
	}
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("catalog %q (%s): %v", e.Catalog, e.Source, e.Err)
	}
	return fmt.Sprintf("catalog %q: %v", e.Catalog, e.Err)
}

// Unwrap returns the sentinel and the cause.
func (e *ModelError) Unwrap() []error { return []error{ErrMalformedCatalog, e.Err} }

// IsEmpty reports whether the declaration carries no version at all.
func (v VersionDecl) IsEmpty() bool {
	return v.Ref == "" && v.Strictly == "" && v.Require == "" && v.Prefer == ""
}

// ParseLibraryNotation parses "group:name" or "group:name:version".
func ParseLibraryNotation(s string) (LibraryDecl, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return LibraryDecl{}, fmt.Errorf("invalid library notation %q: expected group:name[:version]", s)
	}
	decl := LibraryDecl{Group: parts[0], Name: parts[1]}
	if len(parts) == 3 && parts[2] != "" {
		decl.Version = VersionDecl{Require: parts[2]}
	}
	return decl, nil
}

// ParsePluginNotation parses "id" or "id:version".
func ParsePluginNotation(s string) (PluginDecl, error) {
	id, version, _ := strings.Cut(s, ":")
	if id == "" || strings.Contains(version, ":") {
		return PluginDecl{}, fmt.Errorf("invalid plugin notation %q: expected id[:version]", s)
	}
	decl := PluginDecl{ID: id}
	if version != "" {
		decl.Version = VersionDecl{Require: version}
	}
	return decl, nil
}

// Overlay copies every entry of o into d, replacing entries with the same
// alias. Builder blocks use it to layer explicit declarations over the
// files they import.
func (d *Definition) Overlay(o *Definition) {
	maps.Copy(d.Versions, o.Versions)
	maps.Copy(d.Libraries, o.Libraries)
	maps.Copy(d.Plugins, o.Plugins)
	for k, v := range o.Bundles {
		d.Bundles[k] = slices.Clone(v)
	}
}

// Build resolves the definition into a Model. Any inconsistency (bad alias,
// dangling version reference, missing coordinates, duplicate aliases after
// normalization) is returned as a *ModelError.
func (d *Definition) Build() (*Model, error) {
	if ok, errs := d.Name.IsValid(); !ok {
		return nil, d.fail(errs[0])
	}

	m := &Model{
		name:      d.Name,
		versions:  make(map[Alias]Version, len(d.Versions)),
		libraries: make(map[Alias]Library, len(d.Libraries)),
		plugins:   make(map[Alias]Plugin, len(d.Plugins)),
		bundles:   make(map[Alias][]Alias, len(d.Bundles)),
	}

	// Versions first: libraries and plugins reference them.
	for _, raw := range slices.Sorted(maps.Keys(d.Versions)) {
		a, err := NormalizeAlias(raw)
		if err != nil {
			return nil, d.fail(fmt.Errorf("versions: %w", err))
		}
		if _, dup := m.versions[a]; dup {
			return nil, d.fail(fmt.Errorf("versions: duplicate alias %q", a))
		}
		decl := d.Versions[raw]
		if decl.Ref != "" {
			return nil, d.fail(fmt.Errorf("versions.%s: a version cannot reference another version", raw))
		}
		m.versions[a] = Version{Strictly: decl.Strictly, Require: decl.Require, Prefer: decl.Prefer}
	}

	for _, raw := range slices.Sorted(maps.Keys(d.Libraries)) {
		a, err := normalizeLibraryAlias(raw)
		if err != nil {
			return nil, d.fail(fmt.Errorf("libraries: %w", err))
		}
		if _, dup := m.libraries[a]; dup {
			return nil, d.fail(fmt.Errorf("libraries: duplicate alias %q", a))
		}
		decl := d.Libraries[raw]
		if decl.Group == "" || decl.Name == "" {
			return nil, d.fail(fmt.Errorf("libraries.%s: group and name are required", raw))
		}
		v, err := m.resolveVersion(decl.Version)
		if err != nil {
			return nil, d.fail(fmt.Errorf("libraries.%s: %w", raw, err))
		}
		m.libraries[a] = Library{Group: decl.Group, Name: decl.Name, Version: v}
	}

	for _, raw := range slices.Sorted(maps.Keys(d.Plugins)) {
		a, err := NormalizeAlias(raw)
		if err != nil {
			return nil, d.fail(fmt.Errorf("plugins: %w", err))
		}
		if _, dup := m.plugins[a]; dup {
			return nil, d.fail(fmt.Errorf("plugins: duplicate alias %q", a))
		}
		decl := d.Plugins[raw]
		if decl.ID == "" {
			return nil, d.fail(fmt.Errorf("plugins.%s: id is required", raw))
		}
		v, err := m.resolveVersion(decl.Version)
		if err != nil {
			return nil, d.fail(fmt.Errorf("plugins.%s: %w", raw, err))
		}
		m.plugins[a] = Plugin{ID: decl.ID, Version: v}
	}

	for _, raw := range slices.Sorted(maps.Keys(d.Bundles)) {
		a, err := NormalizeAlias(raw)
		if err != nil {
			return nil, d.fail(fmt.Errorf("bundles: %w", err))
		}
		if _, dup := m.bundles[a]; dup {
			return nil, d.fail(fmt.Errorf("bundles: duplicate alias %q", a))
		}
		members := make([]Alias, 0, len(d.Bundles[raw]))
		for _, ref := range d.Bundles[raw] {
			member, err := NormalizeAlias(ref)
			if err != nil {
				return nil, d.fail(fmt.Errorf("bundles.%s: %w", raw, err))
			}
			if _, ok := m.libraries[member]; !ok {
				return nil, d.fail(fmt.Errorf("bundles.%s: unknown library %q", raw, ref))
			}
			members = append(members, member)
		}
		m.bundles[a] = members
	}

	return m, nil
}

func (m *Model) resolveVersion(decl VersionDecl) (Version, error) {
	if decl.Ref == "" {
		return Version{Strictly: decl.Strictly, Require: decl.Require, Prefer: decl.Prefer}, nil
	}
	ref, err := NormalizeAlias(decl.Ref)
	if err != nil {
		return Version{}, fmt.Errorf("version.ref: %w", err)
	}
	v, ok := m.versions[ref]
	if !ok {
		return Version{}, fmt.Errorf("version.ref %q does not match any declared version", decl.Ref)
	}
	return v, nil
}

func (d *Definition) fail(err error) error {
	return &ModelError{Catalog: d.Name, Source: d.Source, Err: err}
}
