// SPDX-License-Identifier: MPL-2.0

// Package workspace loads a tree of nested builds from disk and exposes it
// the way the host build tool does: every build other than the root is
// reported as a direct child of the root, and only foundational utility
// builds (buildSrc) keep a native reference to the build that owns them.
//
// The workspace also drives the lifecycle phases the rest of the tool hooks
// into: settings evaluation and project loading.
package workspace
