// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

const (
	// StepName is the name of the extraction step.
	StepName = "extractPrecompiledScriptPluginPlugins"

	// ScriptsDir is the directory, relative to a build root, holding
	// precompiled convention scripts.
	ScriptsDir = "src/main/kotlin"

	// ExtractedDir is the extraction root, relative to a build's output directory.
	ExtractedDir = "kotlin-dsl/plugins-blocks/extracted"

	// ScriptPattern matches convention scripts below ScriptsDir.
	ScriptPattern = "**/*.gradle.kts"
)

type (
	// PluginsBlockExtractor produces the extracted plugins blocks of one build.
	PluginsBlockExtractor struct {
		build  *workspace.Build
		logger *log.Logger
	}

	// Option configures a PluginsBlockExtractor.
	Option func(*PluginsBlockExtractor)
)

// WithLogger sets the extractor's logger.
func WithLogger(l *log.Logger) Option {
	return func(x *PluginsBlockExtractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// NewPluginsBlockExtractor returns an extractor for the scripts of b.
func NewPluginsBlockExtractor(b *workspace.Build, opts ...Option) *PluginsBlockExtractor {
	x := &PluginsBlockExtractor{build: b, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ScriptsDir returns the absolute scripts directory.
func (x *PluginsBlockExtractor) ScriptsDir() string {
	return filepath.Join(x.build.Dir(), filepath.FromSlash(ScriptsDir))
}

// OutputDir returns the absolute extraction root.
func (x *PluginsBlockExtractor) OutputDir() string {
	return filepath.Join(x.build.OutputDir(), filepath.FromSlash(ExtractedDir))
}

// Scripts returns the script paths relative to ScriptsDir, slash-separated
// and sorted. A missing scripts directory yields none.
func (x *PluginsBlockExtractor) Scripts() ([]string, error) {
	dir := x.ScriptsDir()
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), ScriptPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob convention scripts in %s: %w", dir, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// Step returns the extraction step. It reads the scripts directory and owns
// the extraction root.
func (x *PluginsBlockExtractor) Step() *taskgraph.Step {
	return taskgraph.NewStep(StepName).
		Describe("Extracts the plugins blocks of precompiled convention scripts").
		InputFile(x.ScriptsDir()).
		Output(x.OutputDir()).
		DoLast(func(ctx context.Context, _ *taskgraph.Step) error {
			return x.Extract(ctx)
		})
}

// Extract rewrites the extraction root from scratch.
func (x *PluginsBlockExtractor) Extract(ctx context.Context) error {
	out := x.OutputDir()
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("clean %s: %w", out, err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	scripts, err := x.Scripts()
	if err != nil {
		return err
	}
	for _, rel := range scripts {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(filepath.Join(x.ScriptsDir(), filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		block, found := PluginsBlock(src)
		if !found {
			x.logger.Debug("no plugins block", "script", rel)
		}
		dst := filepath.Join(out, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, block, 0o644); err != nil {
			return err
		}
	}
	x.logger.Debug("extracted plugins blocks", "build", x.build.IdentityPath(), "scripts", len(scripts))
	return nil
}

// Extracted returns the absolute paths of the extracted scripts, sorted.
func (x *PluginsBlockExtractor) Extracted() ([]string, error) {
	scripts, err := x.Scripts()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(scripts))
	for _, rel := range scripts {
		paths = append(paths, filepath.Join(x.OutputDir(), filepath.FromSlash(rel)))
	}
	return paths, nil
}
