// SPDX-License-Identifier: MPL-2.0

// Package conventions rewrites alias-based plugin declarations in the
// extracted plugins blocks of convention scripts.
//
// A declaration such as alias(libs.plugins.some.plugin) cannot be applied
// by a precompiled script plugin. The rewriter resolves it against the
// build's catalogs, replaces it with id("<plugin id>") in the extracted
// copy, and optionally adds the plugin's marker artifact to the build's
// implementation dependencies so the plugin is on the compile classpath.
//
// The rewrite is attached to the extraction step as an extra action rather
// than registered as a step of its own: two steps may not own the same
// output directory, and a step reading and writing one directory would
// never be up-to-date.
package conventions
