// SPDX-License-Identifier: MPL-2.0

// Package catalogs discovers the catalogs visible at a build node, merges
// them by name and builds their models.
//
// Two kinds of source exist: catalogs created in settings.cue (builders)
// and catalog files under the build's gradle directory. When both declare
// the same name the builder wins.
package catalogs
