// SPDX-License-Identifier: MPL-2.0

// Package pipeline wires the hierarchy resolver, catalog discovery, code
// generation and the convention rewriter into the workspace lifecycle.
//
// A run loads the workspace, finalizes settings, and on the projects-loaded
// signal plans every convention build: it discovers the catalogs visible at
// the build's logical parent, registers the generation steps, resolves the
// alias declarations of the build's scripts, and attaches the rewrite to
// the extraction step. Each convention build then runs its own step engine
// with a persisted history, so unchanged inputs leave every step up-to-date.
package pipeline
