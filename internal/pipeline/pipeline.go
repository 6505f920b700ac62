// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/catalogs"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/codegen"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/config"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/conventions"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/extract"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/hierarchy"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

type (
	// Pipeline runs the generation and rewrite steps of a workspace.
	Pipeline struct {
		cfg    *config.Config
		dryRun bool
		logger *log.Logger
	}

	// Option configures a Pipeline.
	Option func(*Pipeline)

	// Result describes one run.
	Result struct {
		Workspace *workspace.Workspace
		Resolver  *hierarchy.Resolver
		// Builds lists the convention builds in workspace order.
		Builds []*BuildResult
		// ModelBuilds counts catalog models built; convention builds that
		// see the same catalog share one model.
		ModelBuilds int
		DryRun      bool
	}

	// BuildResult describes what a run planned and did for one convention build.
	BuildResult struct {
		Build *workspace.Build
		// CatalogBuild is the build whose catalogs were used: the logical
		// parent, or the build itself when it is an allowed top-level build.
		CatalogBuild *workspace.Build
		Config       *config.Config
		Sources      []catalogs.Source
		Catalogs     []catalog.Name
		Diagnostics  []catalogs.Diagnostic
		Declarations []conventions.PluginDeclaration
		Dependencies []workspace.Dependency
		// Artifacts is only filled in dry runs.
		Artifacts []codegen.Artifact
		Report    *taskgraph.Report

		engine *taskgraph.Engine
	}
)

// WithDryRun plans every step and reports what would run without writing.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// WithLogger sets the pipeline's logger. Components log through prefixed
// children of it.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a pipeline using cfg as the base configuration of every
// convention build. A nil cfg means config.DefaultConfig().
func New(cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	p := &Pipeline{cfg: cfg, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) child(prefix string) *log.Logger {
	return p.logger.WithPrefix(prefix)
}

// Load reads the workspace at root and drives it to the projects-loaded
// phase. The returned resolver is ready.
func (p *Pipeline) Load(ctx context.Context, root string) (*workspace.Workspace, *hierarchy.Resolver, error) {
	ws, err := workspace.Load(ctx, root, workspace.WithLogger(p.child("workspace")))
	if err != nil {
		return nil, nil, err
	}
	resolver := hierarchy.NewResolver(ws.Root(), hierarchy.WithLogger(p.child("hierarchy")))
	ws.OnProjectsLoaded(func(context.Context, *workspace.Workspace) error {
		resolver.ProjectsLoaded()
		return nil
	})
	if err := ws.FinalizeSettings(); err != nil {
		return nil, nil, err
	}
	if err := ws.LoadProjects(ctx); err != nil {
		return nil, nil, err
	}
	return ws, resolver, nil
}

// Run plans and executes every convention build of the workspace at root.
// The first error aborts the run.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	ws, resolver, err := p.Load(ctx, root)
	if err != nil {
		return nil, err
	}
	cache, err := catalogs.NewModelCache(catalogs.DefaultModelCacheSize)
	if err != nil {
		return nil, err
	}
	discoverer := catalogs.NewDiscoverer(catalogs.WithLogger(p.child("catalogs")))

	result := &Result{Workspace: ws, Resolver: resolver, DryRun: p.dryRun}
	for _, b := range ws.Builds() {
		if b.Settings() == nil || !b.Settings().IsConventionBuild() {
			continue
		}
		br, err := p.plan(ctx, resolver, discoverer, cache, b)
		if err != nil {
			return result, err
		}
		result.Builds = append(result.Builds, br)
	}
	result.ModelBuilds = cache.Builds()

	for _, br := range result.Builds {
		report, err := br.engine.Run(ctx)
		br.Report = report
		if err != nil {
			return result, runError(br.Build, err)
		}
		p.logger.Info("convention build done",
			"build", br.Build.IdentityPath(),
			"executed", len(report.Executed),
			"up-to-date", len(report.UpToDate))
	}
	return result, nil
}

// plan registers every step of the convention build b.
func (p *Pipeline) plan(
	ctx context.Context,
	resolver *hierarchy.Resolver,
	discoverer *catalogs.Discoverer,
	cache *catalogs.ModelCache,
	b *workspace.Build,
) (*BuildResult, error) {
	cfg := p.cfg.ForBuild(b.Settings().TypesafeConventions)
	logger := p.child("conventions").With("build", b.IdentityPath())
	br := &BuildResult{Build: b, Config: cfg}

	node := resolver.Node(b)
	parent, err := node.Parent()
	if err != nil {
		return nil, err
	}
	catalogNode := parent
	if parent == nil {
		if !cfg.AllowTopLevelBuild {
			return nil, issue.NewErrorContext().
				WithOperation("configure convention build").
				WithResource(b.Dir()).
				WithIssue(issue.TopLevelBuildId).
				WithSuggestion("Include this build from another build").
				WithSuggestion("Or set typesafeConventions: allowTopLevelBuild: true").
				Wrap(fmt.Errorf("build %s has no parent build", b.IdentityPath())).
				BuildError()
		}
		catalogNode = node
	}
	br.CatalogBuild = catalogNode.Build()

	discovered, err := discoverer.Sources(ctx, catalogNode)
	if err != nil {
		return nil, err
	}
	br.Sources = discovered.Sources
	br.Diagnostics = discovered.Diagnostics

	registry := catalogs.NewRegistry(b.IdentityPath(), cache)
	target := catalogs.Renamed(registry, catalog.DefaultName, catalog.Name(cfg.ConventionCatalogName))
	if err := catalogs.ContributeAll(discovered.Sources, target); err != nil {
		return nil, err
	}
	br.Catalogs = registry.Names()
	models, err := registry.Models()
	if err != nil {
		return nil, err
	}

	historyPath := cfg.HistoryFile
	if !filepath.IsAbs(historyPath) {
		historyPath = filepath.Join(b.Dir(), historyPath)
	}
	engine, err := taskgraph.New(historyPath,
		taskgraph.WithDryRun(p.dryRun),
		taskgraph.WithLogger(p.child("steps").With("build", b.IdentityPath())))
	if err != nil {
		return nil, err
	}
	br.engine = engine

	var generated []string
	for _, m := range models {
		reg, err := codegen.Register(engine, b, m)
		if err != nil {
			return nil, registerError(b, err)
		}
		generated = append(generated, reg.Steps()...)
		if p.dryRun {
			artifacts, err := codegen.Artifacts(m)
			if err != nil {
				return nil, err
			}
			br.Artifacts = append(br.Artifacts, artifacts...)
		}
	}

	extractor := extract.NewPluginsBlockExtractor(b, extract.WithLogger(logger))
	candidates, err := conventions.Scan(extractor)
	if err != nil {
		return nil, err
	}
	decls, err := conventions.NewRewriter(registry, conventions.WithLogger(logger)).Resolve(candidates)
	if err != nil {
		return nil, err
	}
	br.Declarations = decls
	if cfg.AutoPluginDependencies {
		br.Dependencies = conventions.InjectDependencies(decls, b.Dependencies())
	}

	extraction := extractor.Step()
	conventions.AttachRewrite(extraction, extractor.OutputDir(), decls)
	if err := engine.Register(extraction); err != nil {
		return nil, registerError(b, err)
	}

	stateDir := filepath.Join(b.OutputDir(), StateDir)
	depStep, err := tomlStep(dependencyStepName, filepath.Join(stateDir, DependencyReportFile), newDependencyReport(b))
	if err != nil {
		return nil, err
	}
	if err := engine.Register(depStep.Describe("Writes the dependencies added to the build")); err != nil {
		return nil, registerError(b, err)
	}

	extracted, err := extractor.Extracted()
	if err != nil {
		return nil, err
	}
	manifest := CompileManifest{
		Build:          b.IdentityPath().String(),
		Catalogs:       catalogNames(br.Catalogs),
		SourceRoots:    b.SourceRoots(),
		Scripts:        extractor.ScriptsDir(),
		Extracted:      extractor.OutputDir(),
		ExtractedFiles: extracted,
	}
	compile, err := tomlStep(compileStepName, filepath.Join(stateDir, CompileManifestFile), manifest)
	if err != nil {
		return nil, err
	}
	compile.Describe("Compiles the convention scripts against the generated sources").
		InputFile(b.SourceRoots()...).
		InputFile(extractor.OutputDir()).
		DependsOn(generated...).
		DependsOn(extract.StepName, dependencyStepName)
	if err := engine.Register(compile); err != nil {
		return nil, registerError(b, err)
	}

	logger.Debug("convention build planned",
		"catalogs", len(br.Catalogs),
		"declarations", len(decls),
		"dependencies", len(br.Dependencies),
		"parent", catalogNode.IdentityPath())
	return br, nil
}

func catalogNames(names []catalog.Name) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, string(n))
	}
	return out
}

func registerError(b *workspace.Build, err error) error {
	if errors.Is(err, taskgraph.ErrOverlappingOutputs) {
		return issue.NewErrorContext().
			WithOperation("register steps").
			WithResource(b.IdentityPath().String()).
			WithIssue(issue.OverlappingOutputsId).
			Wrap(err).
			BuildError()
	}
	return err
}

func runError(b *workspace.Build, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return issue.NewErrorContext().
			WithOperation("run steps").
			WithResource(b.Dir()).
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	}
	return fmt.Errorf("build %s: %w", b.IdentityPath(), err)
}
