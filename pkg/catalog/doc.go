// SPDX-License-Identifier: MPL-2.0

// Package catalog models dependency and plugin catalogs.
//
// A catalog starts life as a Definition: either parsed from a declarative
// `<name>.versions.toml` file (ParseTOML) or assembled from a builder block in
// a build's settings. Build resolves version references, normalizes aliases
// and yields an immutable Model that answers alias lookups.
//
// Aliases may be written with '-', '_' or '.' separators; all three denote
// the same entry. The canonical key form uses '-' (see NormalizeAlias), so
// `libs.plugins.some.plugin` in a script resolves to the `some-plugin` entry.
package catalog
