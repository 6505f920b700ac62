// SPDX-License-Identifier: MPL-2.0

// Package settings models settings.cue, the declarative settings of one
// build: the builds it includes, the catalogs it creates programmatically
// and, for convention builds, the typesafeConventions extension block.
package settings
