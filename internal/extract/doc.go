// SPDX-License-Identifier: MPL-2.0

// Package extract copies the plugins block of every precompiled convention
// script into the build's output tree. The extracted copies are what the
// convention rewriter edits; the original scripts are never modified.
package extract
