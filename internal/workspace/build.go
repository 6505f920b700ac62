// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"path/filepath"
	"slices"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

const (
	// CategoryRegular is a build included through includeBuilds (or the root).
	CategoryRegular Category = iota
	// CategoryUtility is a foundational utility build (buildSrc). It is not
	// flattened by the host, so it keeps a native parent reference.
	CategoryUtility
)

// UtilityDirName is the directory name of foundational utility builds.
const UtilityDirName = "buildSrc"

// RootIdentity is the identity path of the root build.
const RootIdentity IdentityPath = ":"

type (
	// Category classifies builds by how the host links them to their parent.
	Category int

	// IdentityPath is the host-assigned, workspace-unique path of a build
	// (":" for the root, ":build-logic" for an included build).
	IdentityPath string

	// Build is one build configuration of the workspace.
	Build struct {
		ws           *Workspace
		identity     IdentityPath
		dir          string
		settings     *settings.Settings
		category     Category
		nativeParent *Build
		declared     []*Build
		deps         *Dependencies
		sourceRoots  []string
	}
)

// String returns the identity path.
func (p IdentityPath) String() string { return string(p) }

// String returns a readable category name.
func (c Category) String() string {
	switch c {
	case CategoryRegular:
		return "regular"
	case CategoryUtility:
		return "utility"
	default:
		return "unknown"
	}
}

// IdentityPath returns the unique path of the build.
func (b *Build) IdentityPath() IdentityPath { return b.identity }

// Dir returns the absolute root directory of the build.
func (b *Build) Dir() string { return b.dir }

// Settings returns the build's settings model.
func (b *Build) Settings() *settings.Settings { return b.settings }

// Category returns how the host links the build to its parent.
func (b *Build) Category() Category { return b.category }

// IsRoot reports whether b is the top-level build.
func (b *Build) IsRoot() bool { return b.ws.root == b }

// Name returns rootProjectName, or the directory name when unset.
func (b *Build) Name() string {
	if b.settings != nil && b.settings.RootProjectName != "" {
		return b.settings.RootProjectName
	}
	return filepath.Base(b.dir)
}

// NativeParent returns the host's own parent reference. Only utility builds
// carry one; for every other build it is nil.
func (b *Build) NativeParent() *Build { return b.nativeParent }

// FlatParent returns the parent as the host reports it: the root for every
// non-root build, nil for the root.
func (b *Build) FlatParent() *Build {
	if b.IsRoot() {
		return nil
	}
	return b.ws.root
}

// DeclaredIncludes returns the builds listed in this build's includeBuilds,
// in declaration order.
func (b *Build) DeclaredIncludes() []*Build { return slices.Clone(b.declared) }

// Dependencies returns the build's dependency container.
func (b *Build) Dependencies() *Dependencies { return b.deps }

// AddSourceRoot registers an additional source directory for the build's
// compilation unit. Duplicates are ignored.
func (b *Build) AddSourceRoot(dir string) {
	if !slices.Contains(b.sourceRoots, dir) {
		b.sourceRoots = append(b.sourceRoots, dir)
	}
}

// SourceRoots returns the additional source directories in registration order.
func (b *Build) SourceRoots() []string { return slices.Clone(b.sourceRoots) }

// OutputDir returns the build's output directory (<dir>/build).
func (b *Build) OutputDir() string { return filepath.Join(b.dir, "build") }
