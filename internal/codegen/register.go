// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

// GeneratedDir is the generated sources root, relative to a build's output
// directory.
const GeneratedDir = "generated-sources/typesafe-conventions/kotlin"

// Registration names the steps registered for one catalog.
type Registration struct {
	Catalog    catalog.Name
	Entrypoint string
	Accessors  string
	Root       string
}

// Steps returns both step names.
func (r *Registration) Steps() []string {
	return []string{r.Entrypoint, r.Accessors}
}

// SourceRoot returns the generated sources root of b.
func SourceRoot(b *workspace.Build) string {
	return filepath.Join(b.OutputDir(), filepath.FromSlash(GeneratedDir))
}

// Register adds the entrypoint and accessor generation steps for model to
// e and registers the generated root as a source root of b. Both steps are
// keyed on the model's canonical form, so an unchanged catalog leaves them
// up-to-date.
func Register(e *taskgraph.Engine, b *workspace.Build, model *catalog.Model) (*Registration, error) {
	name := model.Name()
	root := SourceRoot(b)
	reg := &Registration{
		Catalog:    name,
		Entrypoint: fmt.Sprintf("generate%sEntrypoint", name.Capitalized()),
		Accessors:  fmt.Sprintf("generate%sAccessors", name.Capitalized()),
		Root:       root,
	}
	canonical := model.Canonical()

	entrypoint := artifactStep(reg.Entrypoint, root, name, KindEntrypoint, model).
		Describe(fmt.Sprintf("Generates the %s catalog entrypoint", name)).
		InputValue("catalog", []byte(name))
	accessors := artifactStep(reg.Accessors, root, name, KindAccessors, model).
		Describe(fmt.Sprintf("Generates the %s catalog accessors", name)).
		InputValue("model", canonical)

	for _, s := range []*taskgraph.Step{entrypoint, accessors} {
		if err := e.Register(s); err != nil {
			return nil, err
		}
	}
	b.AddSourceRoot(root)
	return reg, nil
}

// artifactStep returns a step writing the artifact of the given kind. The
// source is rendered when the step runs, so a generation failure surfaces
// as a step failure.
func artifactStep(stepName, root string, name catalog.Name, kind Kind, model *catalog.Model) *taskgraph.Step {
	var fileName string
	switch kind {
	case KindEntrypoint:
		fileName = EntrypointFile(name)
	default:
		fileName = AccessorsFile(DefaultOptions(name))
	}
	path := filepath.Join(root, filepath.FromSlash(fileName))
	return taskgraph.NewStep(stepName).
		Output(path).
		DoLast(func(context.Context, *taskgraph.Step) error {
			artifacts, err := Artifacts(model)
			if err != nil {
				return err
			}
			for _, a := range artifacts {
				if a.Kind == kind {
					return writeIfChanged(path, a.Content)
				}
			}
			return nil
		})
}

// writeIfChanged writes data to path unless the file already holds it, so
// unchanged sources keep their modification time.
func writeIfChanged(path string, data []byte) error {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
