// SPDX-License-Identifier: MPL-2.0

package hierarchy

import (
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

// Walk visits the root and every build of the flattened list depth-first,
// parents before children. Siblings keep the order of included. Builds
// whose parent is unknown are not visited. fn's error stops the walk.
func (r *Resolver) Walk(included []*workspace.Build, fn func(n *Node, depth int) error) error {
	if !r.ready {
		return ErrHierarchyNotReady
	}
	children := make(map[workspace.IdentityPath][]*workspace.Build)
	for _, b := range included {
		parent, err := r.Parent(b)
		if err != nil {
			return err
		}
		if parent == nil {
			continue
		}
		children[parent.IdentityPath()] = append(children[parent.IdentityPath()], b)
	}

	visited := make(map[workspace.IdentityPath]bool)
	var visit func(b *workspace.Build, depth int) error
	visit = func(b *workspace.Build, depth int) error {
		if visited[b.IdentityPath()] {
			return nil
		}
		visited[b.IdentityPath()] = true
		if err := fn(r.Node(b), depth); err != nil {
			return err
		}
		for _, child := range children[b.IdentityPath()] {
			if err := visit(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(r.root, 0)
}
