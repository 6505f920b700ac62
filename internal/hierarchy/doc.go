// SPDX-License-Identifier: MPL-2.0

// Package hierarchy reconstructs the logical parent/child tree of builds
// from the host's flattened view, where every build is a child of the root.
package hierarchy
