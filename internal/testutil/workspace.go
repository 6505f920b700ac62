// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// Workspace builds an on-disk tree of builds under a temporary directory.
//
// Usage:
//
//	ws := testutil.NewWorkspace(t).
//		Settings("", `includeBuilds: ["build-logic"]`).
//		Settings("build-logic", `typesafeConventions: {}`).
//		File("gradle/libs.versions.toml", catalogTOML)
//	root := ws.Root()
type Workspace struct {
	t    testing.TB
	root string
}

// NewWorkspace returns an empty fixture rooted in t.TempDir().
func NewWorkspace(t testing.TB) *Workspace {
	t.Helper()
	return &Workspace{t: t, root: t.TempDir()}
}

// Root returns the absolute root directory.
func (w *Workspace) Root() string { return w.root }

// Path joins rel onto the root directory.
func (w *Workspace) Path(rel ...string) string {
	return filepath.Join(append([]string{w.root}, rel...)...)
}

// Settings writes <buildDir>/settings.cue. An empty buildDir is the root build.
func (w *Workspace) Settings(buildDir, content string) *Workspace {
	w.t.Helper()
	MustWriteFile(w.t, w.Path(buildDir, "settings.cue"), content)
	return w
}

// File writes a file relative to the root directory.
func (w *Workspace) File(rel, content string) *Workspace {
	w.t.Helper()
	MustWriteFile(w.t, w.Path(rel), content)
	return w
}

// Dir creates an empty directory relative to the root directory.
func (w *Workspace) Dir(rel string) *Workspace {
	w.t.Helper()
	MustMkdirAll(w.t, w.Path(rel))
	return w
}
