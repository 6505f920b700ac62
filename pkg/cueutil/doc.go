// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Build settings (settings.cue) and the tool configuration file
// (typesafe-conventions.cue) are both validated this way:
//
//	//go:embed settings_schema.cue
//	var schema []byte
//
//	file, _, err := cueutil.Decode[File](schema, data, "#Settings",
//	    cueutil.WithFilename(path))
//
// Errors are reported with a JSON-style path to the offending field so the
// user can find it without knowing CUE's internal path syntax.
package cueutil
