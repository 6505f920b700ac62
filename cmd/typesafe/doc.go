// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for typesafe-conventions.
//
// This package implements the Cobra command hierarchy: generating the
// catalog accessors of every convention build, inspecting the build
// hierarchy and the catalogs each convention build sees, watching the
// workspace for changes, and showing the effective configuration.
package cmd
