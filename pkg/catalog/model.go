// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
)

// markerSuffix completes a plugin marker artifact name.
const markerSuffix = ".gradle.plugin"

type (
	// Version is a resolved version constraint. Any field may be empty.
	Version struct {
		Strictly string
		Require  string
		Prefer   string
	}

	// Library is a resolved library entry.
	Library struct {
		Group   string
		Name    string
		Version Version
	}

	// Plugin is a resolved plugin entry.
	Plugin struct {
		ID      string
		Version Version
	}

	// Model is the realized, queryable form of one catalog. It is immutable
	// once built; lookups accept aliases in any separator style.
	Model struct {
		name      Name
		versions  map[Alias]Version
		libraries map[Alias]Library
		plugins   map[Alias]Plugin
		bundles   map[Alias][]Alias
	}
)

// IsEmpty reports whether no constraint is set.
func (v Version) IsEmpty() bool {
	return v.Strictly == "" && v.Require == "" && v.Prefer == ""
}

// String returns the version users see: the strict bound if any, otherwise
// the required version, otherwise the preferred one.
func (v Version) String() string {
	switch {
	case v.Strictly != "":
		return v.Strictly
	case v.Require != "":
		return v.Require
	default:
		return v.Prefer
	}
}

// Preferred returns the version to request as a soft preference.
func (v Version) Preferred() string {
	switch {
	case v.Prefer != "":
		return v.Prefer
	case v.Require != "":
		return v.Require
	default:
		return v.Strictly
	}
}

// Module returns "group:name".
func (l Library) Module() string {
	return l.Group + ":" + l.Name
}

// Coordinates returns "group:name:version", or "group:name" when unversioned.
func (l Library) Coordinates() string {
	if v := l.Version.String(); v != "" {
		return l.Module() + ":" + v
	}
	return l.Module()
}

// MarkerGroup returns the group of the plugin marker artifact (the plugin id).
func (p Plugin) MarkerGroup() string { return p.ID }

// MarkerName returns the name of the plugin marker artifact ("<id>.gradle.plugin").
func (p Plugin) MarkerName() string { return p.ID + markerSuffix }

// MarkerModule returns "<id>:<id>.gradle.plugin".
func (p Plugin) MarkerModule() string {
	return p.MarkerGroup() + ":" + p.MarkerName()
}

// Name returns the catalog name.
func (m *Model) Name() Name { return m.name }

// Library looks up a library by alias.
func (m *Model) Library(alias string) (Library, bool) {
	a, err := NormalizeAlias(alias)
	if err != nil {
		return Library{}, false
	}
	l, ok := m.libraries[a]
	return l, ok
}

// Plugin looks up a plugin by alias.
func (m *Model) Plugin(alias string) (Plugin, bool) {
	a, err := NormalizeAlias(alias)
	if err != nil {
		return Plugin{}, false
	}
	p, ok := m.plugins[a]
	return p, ok
}

// Version looks up a declared version by alias.
func (m *Model) Version(alias string) (Version, bool) {
	a, err := NormalizeAlias(alias)
	if err != nil {
		return Version{}, false
	}
	v, ok := m.versions[a]
	return v, ok
}

// Bundle returns the libraries of a bundle in declaration order.
func (m *Model) Bundle(alias string) ([]Library, bool) {
	a, err := NormalizeAlias(alias)
	if err != nil {
		return nil, false
	}
	members, ok := m.bundles[a]
	if !ok {
		return nil, false
	}
	libs := make([]Library, 0, len(members))
	for _, member := range members {
		libs = append(libs, m.libraries[member])
	}
	return libs, true
}

// LibraryAliases returns all library aliases, sorted.
func (m *Model) LibraryAliases() []Alias { return slices.Sorted(maps.Keys(m.libraries)) }

// PluginAliases returns all plugin aliases, sorted.
func (m *Model) PluginAliases() []Alias { return slices.Sorted(maps.Keys(m.plugins)) }

// VersionAliases returns all version aliases, sorted.
func (m *Model) VersionAliases() []Alias { return slices.Sorted(maps.Keys(m.versions)) }

// BundleAliases returns all bundle aliases, sorted.
func (m *Model) BundleAliases() []Alias { return slices.Sorted(maps.Keys(m.bundles)) }

// Canonical returns a deterministic text rendering of the model. Two models
// with the same entries render identically, which makes the output usable
// as a cache key for everything generated from the model.
func (m *Model) Canonical() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "catalog %s\n", m.name)
	for _, a := range m.VersionAliases() {
		fmt.Fprintf(&buf, "version %s %s\n", a, versionKey(m.versions[a]))
	}
	for _, a := range m.LibraryAliases() {
		l := m.libraries[a]
		fmt.Fprintf(&buf, "library %s %s %s\n", a, l.Module(), versionKey(l.Version))
	}
	for _, a := range m.BundleAliases() {
		fmt.Fprintf(&buf, "bundle %s %v\n", a, m.bundles[a])
	}
	for _, a := range m.PluginAliases() {
		p := m.plugins[a]
		fmt.Fprintf(&buf, "plugin %s %s %s\n", a, p.ID, versionKey(p.Version))
	}
	return buf.Bytes()
}

func versionKey(v Version) string {
	return fmt.Sprintf("strictly=%q,require=%q,prefer=%q", v.Strictly, v.Require, v.Prefer)
}
