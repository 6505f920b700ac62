// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

const (
	// StateDir holds the files a run keeps per build, relative to the
	// build's output directory.
	StateDir = "typesafe-conventions"

	// DependencyReportFile lists the dependencies added to a convention build.
	DependencyReportFile = "dependencies.toml"
	// CompileManifestFile lists what a convention build compiles.
	CompileManifestFile = "compile-manifest.toml"

	dependencyStepName = "writeDependencyReport"
	compileStepName    = "compileConventions"
)

type (
	// DependencyReport is the content of DependencyReportFile.
	DependencyReport struct {
		Build          string             `toml:"build"`
		Implementation []ReportDependency `toml:"implementation"`
	}

	// ReportDependency is one dependency of a DependencyReport.
	ReportDependency struct {
		Group  string `toml:"group"`
		Name   string `toml:"name"`
		Prefer string `toml:"prefer,omitempty"`
	}

	// CompileManifest is the content of CompileManifestFile.
	CompileManifest struct {
		Build          string   `toml:"build"`
		Catalogs       []string `toml:"catalogs"`
		SourceRoots    []string `toml:"source_roots"`
		Scripts        string   `toml:"scripts"`
		Extracted      string   `toml:"extracted_scripts"`
		ExtractedFiles []string `toml:"extracted_files"`
	}
)

func newDependencyReport(b *workspace.Build) DependencyReport {
	r := DependencyReport{Build: b.IdentityPath().String(), Implementation: []ReportDependency{}}
	for _, d := range b.Dependencies().Get(workspace.ImplementationConfiguration) {
		r.Implementation = append(r.Implementation, ReportDependency{Group: d.Group, Name: d.Name, Prefer: d.PreferVersion})
	}
	return r
}

// ReadDependencyReport reads a report written by a previous run.
func ReadDependencyReport(path string) (*DependencyReport, error) {
	var r DependencyReport
	if err := readTOML(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReadCompileManifest reads a manifest written by a previous run.
func ReadCompileManifest(path string) (*CompileManifest, error) {
	var m CompileManifest
	if err := readTOML(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func readTOML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, v)
}

// tomlStep returns a step writing v as TOML to path. The encoded value is
// the step's input, so the file is rewritten only when v changes.
func tomlStep(name, path string, v any) (*taskgraph.Step, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return taskgraph.NewStep(name).
		InputValue("content", data).
		Output(path).
		DoLast(func(context.Context, *taskgraph.Step) error {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			return os.WriteFile(path, data, 0o644)
		}), nil
}
