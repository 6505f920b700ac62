// SPDX-License-Identifier: MPL-2.0

// Package config handles tool configuration using Viper with CUE as the file format.
//
// Values are layered, highest precedence first: command-line flags,
// TYPESAFE_CONVENTIONS_* environment variables, the build's
// typesafe-conventions.cue file, and built-in defaults. A convention build
// may further override the plugin options in the typesafeConventions block
// of its settings file (see Config.ForBuild).
//
// Configuration files are validated against an embedded CUE schema
// (config_schema.cue) before they are merged into Viper.
package config
