// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"path/filepath"
	"slices"
)

type (
	// Action is one unit of work of a step.
	Action func(ctx context.Context, s *Step) error

	// Step is a cacheable unit of work.
	Step struct {
		name        string
		description string
		inputFiles  []string
		inputValues map[string][]byte
		outputs     []string
		actions     []Action
		dependsOn   []string
	}
)

// NewStep returns an empty step.
func NewStep(name string) *Step {
	return &Step{name: name, inputValues: make(map[string][]byte)}
}

// Name returns the step name.
func (s *Step) Name() string { return s.name }

// Description returns the step description.
func (s *Step) Description() string { return s.description }

// Describe sets a one-line description shown in reports.
func (s *Step) Describe(description string) *Step {
	s.description = description
	return s
}

// InputFile declares files or directories whose content the step reads.
func (s *Step) InputFile(paths ...string) *Step {
	for _, p := range paths {
		s.inputFiles = append(s.inputFiles, filepath.Clean(p))
	}
	return s
}

// InputValue declares a named value the step's result depends on. Setting
// the same key again replaces the value.
func (s *Step) InputValue(key string, value []byte) *Step {
	s.inputValues[key] = slices.Clone(value)
	return s
}

// Output declares files or directories the step produces.
func (s *Step) Output(paths ...string) *Step {
	for _, p := range paths {
		s.outputs = append(s.outputs, filepath.Clean(p))
	}
	return s
}

// DoLast appends an action. It runs after every action already registered,
// as part of the same step.
func (s *Step) DoLast(a Action) *Step {
	s.actions = append(s.actions, a)
	return s
}

// DependsOn declares steps that must complete before this one.
func (s *Step) DependsOn(names ...string) *Step {
	for _, n := range names {
		if !slices.Contains(s.dependsOn, n) {
			s.dependsOn = append(s.dependsOn, n)
		}
	}
	return s
}

// InputFiles returns the declared input paths.
func (s *Step) InputFiles() []string { return slices.Clone(s.inputFiles) }

// Outputs returns the declared output paths.
func (s *Step) Outputs() []string { return slices.Clone(s.outputs) }

// Dependencies returns the names of the steps this one depends on.
func (s *Step) Dependencies() []string { return slices.Clone(s.dependsOn) }

// Actions returns the number of registered actions.
func (s *Step) Actions() int { return len(s.actions) }
