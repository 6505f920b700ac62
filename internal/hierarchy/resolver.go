// SPDX-License-Identifier: MPL-2.0

package hierarchy

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

// ErrHierarchyNotReady is returned when the hierarchy is queried before
// ProjectsLoaded.
var ErrHierarchyNotReady = errors.New("build hierarchy is not available before projects are loaded")

type (
	// Build is the part of a host build the resolver needs.
	Build interface {
		IdentityPath() workspace.IdentityPath
		Category() workspace.Category
		DeclaredIncludes() []*workspace.Build
		NativeParent() *workspace.Build
	}

	// Resolver answers "who is the real parent of this build". The parent
	// map is built once, when ProjectsLoaded is called, and is read-only
	// afterwards.
	Resolver struct {
		root    *workspace.Build
		parents map[workspace.IdentityPath]*workspace.Build
		ready   bool
		nodes   map[workspace.IdentityPath]*Node
		logger  *log.Logger
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a resolver for the tree rooted at root.
func NewResolver(root *workspace.Build, opts ...Option) *Resolver {
	r := &Resolver{
		root:   root,
		nodes:  make(map[workspace.IdentityPath]*Node),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProjectsLoaded signals that child builds are enumerable and builds the
// parent map. Later calls are no-ops.
func (r *Resolver) ProjectsLoaded() {
	if r.ready {
		return
	}
	r.parents = make(map[workspace.IdentityPath]*workspace.Build)
	r.collect(r.root)
	r.ready = true
	r.logger.Debug("build hierarchy resolved", "builds", len(r.parents)+1)
}

// collect records parent as the parent of each declared include that has
// none yet, then descends into it. A build already recorded is never
// revisited, which also terminates include cycles. The root is never
// recorded as anyone's child.
func (r *Resolver) collect(parent *workspace.Build) {
	for _, child := range parent.DeclaredIncludes() {
		if child == r.root {
			continue
		}
		if _, seen := r.parents[child.IdentityPath()]; seen {
			continue
		}
		r.parents[child.IdentityPath()] = parent
		r.collect(child)
	}
}

// Ready reports whether ProjectsLoaded has been called.
func (r *Resolver) Ready() bool { return r.ready }

// Root returns the root build.
func (r *Resolver) Root() *workspace.Build { return r.root }

// Parent returns the logical parent of b, or nil for the root. Utility
// builds answer with their native parent; every other build is looked up
// in the reconstructed map.
func (r *Resolver) Parent(b Build) (*workspace.Build, error) {
	if b.Category() == workspace.CategoryUtility {
		return b.NativeParent(), nil
	}
	if !r.ready {
		return nil, ErrHierarchyNotReady
	}
	if b.IdentityPath() == r.root.IdentityPath() {
		return nil, nil
	}
	return r.parents[b.IdentityPath()], nil
}

// Node returns the memoized node for b.
func (r *Resolver) Node(b *workspace.Build) *Node {
	if n, ok := r.nodes[b.IdentityPath()]; ok {
		return n
	}
	n := &Node{build: b, resolver: r}
	r.nodes[b.IdentityPath()] = n
	return n
}
