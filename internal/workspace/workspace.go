// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

const (
	// PhaseLoaded is the state right after Load: settings are parsed but
	// not finalized, projects are not enumerable.
	PhaseLoaded Phase = iota
	// PhaseSettingsEvaluated follows FinalizeSettings.
	PhaseSettingsEvaluated
	// PhaseProjectsLoaded follows LoadProjects; OnProjectsLoaded hooks have run.
	PhaseProjectsLoaded
)

var (
	// ErrDuplicateIdentity is the sentinel wrapped by DuplicateIdentityError.
	ErrDuplicateIdentity = errors.New("duplicate build identity")

	// ErrPhase is returned when a lifecycle method is called out of order.
	ErrPhase = errors.New("lifecycle phase out of order")
)

type (
	// Phase is a lifecycle phase of the workspace.
	Phase int

	// ProjectsLoadedHook runs once every project definition is loaded.
	ProjectsLoadedHook func(ctx context.Context, ws *Workspace) error

	// Workspace is the loaded tree of builds.
	Workspace struct {
		root   *Build
		builds []*Build
		byDir  map[string]*Build
		byID   map[IdentityPath]*Build
		phase  Phase
		hooks  []ProjectsLoadedHook
		logger *log.Logger
	}

	// Option configures Load.
	Option func(*Workspace)

	// DuplicateIdentityError is returned when two builds resolve to the same
	// identity path.
	DuplicateIdentityError struct {
		Identity IdentityPath
		First    string
		Second   string
	}
)

// Error implements the error interface.
func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("builds %s and %s both have identity path %q", e.First, e.Second, e.Identity)
}

// Unwrap returns ErrDuplicateIdentity for errors.Is() compatibility.
func (e *DuplicateIdentityError) Unwrap() error { return ErrDuplicateIdentity }

// WithLogger sets the logger used while loading.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// Load reads the settings of the build at rootDir and, recursively, of every
// build it includes. A directory reached twice is loaded once; the first path
// that reaches it decides its identity.
func Load(ctx context.Context, rootDir string, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		byDir:  make(map[string]*Build),
		byID:   make(map[IdentityPath]*Build),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(ws)
	}

	root, err := ws.loadBuild(ctx, abs, RootIdentity, CategoryRegular, nil)
	if err != nil {
		return nil, err
	}
	ws.root = root
	ws.logger.Debug("workspace loaded", "root", abs, "builds", len(ws.builds))
	return ws, nil
}

func (w *Workspace) loadBuild(ctx context.Context, dir string, id IdentityPath, category Category, nativeParent *Build) (*Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if existing, ok := w.byDir[dir]; ok {
		return existing, nil
	}

	s, err := readSettings(dir, category)
	if err != nil {
		return nil, err
	}

	if category == CategoryRegular && id != RootIdentity {
		id = IdentityPath(":" + buildName(s, dir))
	}
	if other, dup := w.byID[id]; dup {
		return nil, &DuplicateIdentityError{Identity: id, First: other.dir, Second: dir}
	}

	b := &Build{
		ws:           w,
		identity:     id,
		dir:          dir,
		settings:     s,
		category:     category,
		nativeParent: nativeParent,
		deps:         newDependencies(),
	}
	w.byDir[dir] = b
	w.byID[id] = b
	w.builds = append(w.builds, b)
	w.logger.Debug("build loaded", "identity", id, "dir", dir, "category", category)

	for _, rel := range s.IncludeBuilds {
		childDir := rel
		if !filepath.IsAbs(childDir) {
			childDir = filepath.Join(dir, rel)
		}
		child, err := w.loadBuild(ctx, filepath.Clean(childDir), "", CategoryRegular, nil)
		if err != nil {
			return nil, err
		}
		b.declared = append(b.declared, child)
	}

	if category == CategoryRegular {
		utilityDir := filepath.Join(dir, UtilityDirName)
		if info, err := os.Stat(utilityDir); err == nil && info.IsDir() {
			if _, err := w.loadBuild(ctx, utilityDir, utilityIdentity(id), CategoryUtility, b); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func readSettings(dir string, category Category) (*settings.Settings, error) {
	path := filepath.Join(dir, settings.FileName)
	s, err := settings.Parse(path)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		// A utility build needs no settings of its own.
		if category == CategoryUtility {
			return settings.ParseBytes(nil, path)
		}
		return nil, issue.NewErrorContext().
			WithOperation("load build").
			WithResource(dir).
			WithIssue(issue.SettingsNotFoundId).
			WithSuggestion("Create " + settings.FileName + " in the build directory").
			Wrap(err).
			BuildError()
	}
	return nil, issue.NewErrorContext().
		WithOperation("load settings").
		WithResource(path).
		WithIssue(issue.SettingsInvalidId).
		Wrap(err).
		BuildError()
}

func buildName(s *settings.Settings, dir string) string {
	if s.RootProjectName != "" {
		return s.RootProjectName
	}
	return filepath.Base(dir)
}

func utilityIdentity(parent IdentityPath) IdentityPath {
	if parent == RootIdentity {
		return ":" + UtilityDirName
	}
	return parent + ":" + UtilityDirName
}

// Root returns the top-level build.
func (w *Workspace) Root() *Build { return w.root }

// Builds returns every build, root first, in discovery order.
func (w *Workspace) Builds() []*Build { return slices.Clone(w.builds) }

// IncludedBuilds returns every build except the root: the host's flattened
// view, in which all of them are direct children of the root.
func (w *Workspace) IncludedBuilds() []*Build {
	return slices.DeleteFunc(slices.Clone(w.builds), func(b *Build) bool { return b.IsRoot() })
}

// Build returns the build with the given identity path.
func (w *Workspace) Build(id IdentityPath) (*Build, bool) {
	b, ok := w.byID[id]
	return b, ok
}

// Phase returns the current lifecycle phase.
func (w *Workspace) Phase() Phase { return w.phase }

// OnProjectsLoaded registers a hook run by LoadProjects.
func (w *Workspace) OnProjectsLoaded(hook ProjectsLoadedHook) {
	w.hooks = append(w.hooks, hook)
}

// FinalizeSettings finalizes the settings of every build.
func (w *Workspace) FinalizeSettings() error {
	if w.phase != PhaseLoaded {
		return fmt.Errorf("%w: settings already finalized", ErrPhase)
	}
	for _, b := range w.builds {
		b.settings.Finalize()
	}
	w.phase = PhaseSettingsEvaluated
	return nil
}

// LoadProjects marks project definitions as loaded and runs the
// OnProjectsLoaded hooks in registration order. The first failing hook
// aborts the run.
func (w *Workspace) LoadProjects(ctx context.Context) error {
	if w.phase != PhaseSettingsEvaluated {
		return fmt.Errorf("%w: LoadProjects requires finalized settings", ErrPhase)
	}
	w.phase = PhaseProjectsLoaded
	for _, hook := range w.hooks {
		if err := hook(ctx, w); err != nil {
			return err
		}
	}
	return nil
}
