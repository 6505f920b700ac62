// SPDX-License-Identifier: MPL-2.0

package hierarchy

import (
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

// Node is one build in the logical hierarchy. Its parent is computed on
// first use and only refers to the parent node; it never owns it.
type Node struct {
	build    *workspace.Build
	resolver *Resolver

	parentDone bool
	parent     *Node
}

// IdentityPath returns the build's identity path.
func (n *Node) IdentityPath() workspace.IdentityPath { return n.build.IdentityPath() }

// Build returns the underlying host build.
func (n *Node) Build() *workspace.Build { return n.build }

// Settings returns the build's settings model.
func (n *Node) Settings() *settings.Settings { return n.build.Settings() }

// Dir returns the build's root directory.
func (n *Node) Dir() string { return n.build.Dir() }

// Parent returns the logical parent node, or nil for the root. The result
// is cached once the hierarchy is ready.
func (n *Node) Parent() (*Node, error) {
	if n.parentDone {
		return n.parent, nil
	}
	p, err := n.resolver.Parent(n.build)
	if err != nil {
		return nil, err
	}
	if p != nil {
		n.parent = n.resolver.Node(p)
	}
	n.parentDone = true
	return n.parent, nil
}
