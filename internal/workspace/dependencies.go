// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"maps"
	"slices"
)

// ImplementationConfiguration is the configuration compile-time plugin
// dependencies are added to.
const ImplementationConfiguration = "implementation"

type (
	// Dependency is an external module dependency. PreferVersion is a soft
	// version that other constraints may override.
	Dependency struct {
		Group         string
		Name          string
		PreferVersion string
	}

	// Dependencies holds a build's declared dependencies per configuration.
	Dependencies struct {
		byConfiguration map[string][]Dependency
	}
)

func newDependencies() *Dependencies {
	return &Dependencies{byConfiguration: make(map[string][]Dependency)}
}

// Module returns "group:name".
func (d Dependency) Module() string { return d.Group + ":" + d.Name }

// Notation returns "group:name[:version]".
func (d Dependency) Notation() string {
	if d.PreferVersion == "" {
		return d.Module()
	}
	return d.Module() + ":" + d.PreferVersion
}

// Add declares dep in configuration. A later declaration of the same module
// replaces the earlier one in place. It reports whether dep was new.
func (c *Dependencies) Add(configuration string, dep Dependency) bool {
	list := c.byConfiguration[configuration]
	for i, existing := range list {
		if existing.Module() == dep.Module() {
			list[i] = dep
			return false
		}
	}
	c.byConfiguration[configuration] = append(list, dep)
	return true
}

// Get returns the dependencies of configuration in declaration order.
func (c *Dependencies) Get(configuration string) []Dependency {
	return slices.Clone(c.byConfiguration[configuration])
}

// Configurations returns the configurations that have dependencies, sorted.
func (c *Dependencies) Configurations() []string {
	return slices.Sorted(maps.Keys(c.byConfiguration))
}
