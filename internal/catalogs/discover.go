// SPDX-License-Identifier: MPL-2.0

package catalogs

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

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/hierarchy"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

const (
	// CatalogDir is the directory, relative to a build root, holding catalog files.
	CatalogDir = "gradle"

	catalogPattern = "**/*" + catalog.FileSuffix
)

type (
	// Result is the merged list of sources visible at a node plus the
	// conditions recovered while discovering them.
	Result struct {
		Sources     []Source
		Diagnostics []Diagnostic
		// Ready is false when builder catalogs could not be enumerated yet.
		Ready bool
	}

	// Discoverer memoizes discovery per node for one invocation and enforces
	// the failure budget for repeated not-finalized passes.
	Discoverer struct {
		budget *FailureBudget
		memo   map[workspace.IdentityPath]Result
		logger *log.Logger
	}

	// DiscovererOption configures a Discoverer.
	DiscovererOption func(*Discoverer)
)

// WithLogger sets the discoverer's logger.
func WithLogger(l *log.Logger) DiscovererOption {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDiscoverer returns a discoverer with a DefaultFailureLimit budget.
func NewDiscoverer(opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		budget: NewFailureBudget(DefaultFailureLimit),
		memo:   make(map[workspace.IdentityPath]Result),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sources returns the catalogs visible at node. A complete result is cached
// for the rest of the invocation; a result produced before settings were
// finalized is not, and counts against the failure budget.
func (d *Discoverer) Sources(ctx context.Context, node *hierarchy.Node) (Result, error) {
	if r, ok := d.memo[node.IdentityPath()]; ok {
		return r, nil
	}
	r, err := Discover(ctx, node.Build())
	if err != nil {
		return Result{}, err
	}
	if err := d.budget.Observe(node.IdentityPath(), r.Ready); err != nil {
		return Result{}, issue.NewErrorContext().
			WithOperation("discover catalogs").
			WithResource(node.Dir()).
			WithIssue(issue.CatalogNotReadyId).
			WithSuggestion("Make sure the host finalizes settings before projects are configured").
			Wrap(err).
			BuildError()
	}
	for _, diag := range r.Diagnostics {
		d.logger.Debug(diag.Message, "code", diag.Code, "build", node.IdentityPath(), "path", diag.Path)
	}
	if r.Ready {
		d.memo[node.IdentityPath()] = r
	}
	return r, nil
}

// Discover runs one discovery pass for build b: builder catalogs first,
// then catalog files under <dir>/gradle that are not shadowed by a builder.
func Discover(ctx context.Context, b *workspace.Build) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		result = Result{Ready: true}
		merged = newOrderedSources()
	)

	builders, err := b.Settings().Catalogs()
	switch {
	case errors.Is(err, settings.ErrNotFinalized):
		result.Ready = false
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: SeverityInfo,
			Code:     CodeSettingsNotFinalized,
			Message:  "builder catalogs are not available yet",
			Path:     b.Settings().FilePath,
			Cause:    err,
		})
	case err != nil:
		return Result{}, err
	}
	for _, builder := range builders {
		merged.putIfAbsent(NewBuilderSource(builder, b.Settings().FilePath))
	}

	files, err := catalogFiles(filepath.Join(b.Dir(), CatalogDir))
	if err != nil {
		return Result{}, err
	}
	for _, path := range files {
		src, _ := NewFileSource(path)
		if ok, _ := src.Name().IsValid(); !ok {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeFileInvalidName,
				Message:  fmt.Sprintf("catalog file ignored: %q is not a valid catalog name", src.Name()),
				Path:     path,
			})
			continue
		}
		if winner, added := merged.putIfAbsent(src); !added {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeFileShadowed,
				Message:  fmt.Sprintf("catalog file shadowed by catalog %q from %s", winner.Name(), winner.Origin()),
				Path:     path,
			})
		}
	}

	result.Sources = merged.values()
	return result, nil
}

// catalogFiles returns the catalog files under dir, sorted. A missing dir
// yields no files.
func catalogFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(os.DirFS(dir), catalogPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob catalog files in %s: %w", dir, err)
	}
	slices.Sort(matches)
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return files, nil
}

// orderedSources is a name-keyed map that remembers insertion order.
type orderedSources struct {
	index map[catalog.Name]int
	list  []Source
}

func newOrderedSources() *orderedSources {
	return &orderedSources{index: make(map[catalog.Name]int)}
}

// putIfAbsent inserts s unless its name is taken. It returns the source
// holding the name and whether s was inserted.
func (o *orderedSources) putIfAbsent(s Source) (Source, bool) {
	if i, ok := o.index[s.Name()]; ok {
		return o.list[i], false
	}
	o.index[s.Name()] = len(o.list)
	o.list = append(o.list, s)
	return s, true
}

func (o *orderedSources) values() []Source {
	return slices.Clone(o.list)
}
