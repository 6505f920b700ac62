// SPDX-License-Identifier: MPL-2.0

package conventions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

// InputKey is the extraction step input carrying the resolved declarations.
const InputKey = "pluginDeclarations"

type (
	// Catalogs resolves catalog models by name.
	Catalogs interface {
		Has(name catalog.Name) bool
		Model(name catalog.Name) (*catalog.Model, error)
	}

	// PluginDeclaration is an alias declaration resolved against a catalog.
	PluginDeclaration struct {
		Alias         catalog.Alias
		PluginID      string
		PluginVersion catalog.Version
		CatalogName   catalog.Name
		Script        string
		Line          int
	}

	// Rewriter resolves and rewrites the declarations of one build.
	Rewriter struct {
		catalogs Catalogs
		logger   *log.Logger
	}

	// Option configures a Rewriter.
	Option func(*Rewriter)

	declKey struct {
		catalog catalog.Name
		alias   catalog.Alias
	}
)

// WithLogger sets the rewriter's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRewriter returns a rewriter resolving against catalogs.
func NewRewriter(catalogs Catalogs, opts ...Option) *Rewriter {
	r := &Rewriter{catalogs: catalogs, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns candidates into declarations. Candidates naming an unknown
// catalog or plugin are dropped; the host reports them when it applies the
// original script. A catalog that fails to build is an error.
func (r *Rewriter) Resolve(candidates []Candidate) ([]PluginDeclaration, error) {
	decls := make([]PluginDeclaration, 0, len(candidates))
	for _, c := range candidates {
		if !r.catalogs.Has(c.CatalogName) {
			r.logger.Debug("skipping declaration: unknown catalog", "declaration", c, "script", c.Script, "line", c.Line)
			continue
		}
		alias, err := catalog.NormalizeAlias(c.Alias)
		if err != nil {
			r.logger.Debug("skipping declaration: invalid alias", "declaration", c, "error", err)
			continue
		}
		model, err := r.catalogs.Model(c.CatalogName)
		if err != nil {
			return nil, err
		}
		plugin, ok := model.Plugin(string(alias))
		if !ok {
			r.logger.Debug("skipping declaration: unknown plugin alias", "declaration", c, "script", c.Script, "line", c.Line)
			continue
		}
		decls = append(decls, PluginDeclaration{
			Alias:         alias,
			PluginID:      plugin.ID,
			PluginVersion: plugin.Version,
			CatalogName:   c.CatalogName,
			Script:        c.Script,
			Line:          c.Line,
		})
	}
	return decls, nil
}

// MarkerDependency returns the plugin marker artifact of d, preferring the
// catalog version.
func (d PluginDeclaration) MarkerDependency() workspace.Dependency {
	p := catalog.Plugin{ID: d.PluginID, Version: d.PluginVersion}
	return workspace.Dependency{
		Group:         p.MarkerGroup(),
		Name:          p.MarkerName(),
		PreferVersion: p.Version.Preferred(),
	}
}

// Replacement returns the identifier form of d.
func (d PluginDeclaration) Replacement() string {
	return fmt.Sprintf("id(%q)", d.PluginID)
}

// InjectDependencies adds the marker artifact of every declaration to the
// implementation configuration of deps and returns the dependencies that
// were added or updated.
func InjectDependencies(decls []PluginDeclaration, deps *workspace.Dependencies) []workspace.Dependency {
	var added []workspace.Dependency
	for _, d := range decls {
		dep := d.MarkerDependency()
		if slices.Contains(added, dep) {
			continue
		}
		deps.Add(workspace.ImplementationConfiguration, dep)
		added = append(added, dep)
	}
	return added
}

// Canonical renders decls deterministically: one line per distinct
// (catalog, alias) pair, sorted. Script positions are not part of it.
func Canonical(decls []PluginDeclaration) []byte {
	lines := make([]string, 0, len(decls))
	for _, d := range decls {
		lines = append(lines, fmt.Sprintf("%s %s %s %s", d.CatalogName, d.Alias, d.PluginID, d.PluginVersion.Preferred()))
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)
	return []byte(strings.Join(lines, "\n"))
}

// AttachRewrite appends the rewrite to step, which must own dir, and makes
// the declarations an input of the step.
func AttachRewrite(step *taskgraph.Step, dir string, decls []PluginDeclaration) {
	step.InputValue(InputKey, Canonical(decls)).DoLast(RewriteAction(dir, decls))
}

// RewriteAction returns an action rewriting every resolved declaration in
// the scripts below dir.
func RewriteAction(dir string, decls []PluginDeclaration) taskgraph.Action {
	index := make(map[declKey]PluginDeclaration, len(decls))
	for _, d := range decls {
		index[declKey{catalog: d.CatalogName, alias: d.Alias}] = d
	}
	return func(ctx context.Context, _ *taskgraph.Step) error {
		if len(index) == 0 {
			return nil
		}
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out, n := rewrite(data, index)
			if n == 0 {
				return nil
			}
			return os.WriteFile(path, out, 0o644)
		})
	}
}

// Rewrite replaces every resolved declaration in src and returns the result
// and the number of replaced lines. Lines without a resolved declaration are
// copied unchanged.
func Rewrite(src []byte, decls []PluginDeclaration) ([]byte, int) {
	index := make(map[declKey]PluginDeclaration, len(decls))
	for _, d := range decls {
		index[declKey{catalog: d.CatalogName, alias: d.Alias}] = d
	}
	return rewrite(src, index)
}

func rewrite(src []byte, index map[declKey]PluginDeclaration) ([]byte, int) {
	lines := bytes.SplitAfter(src, []byte{'\n'})
	n := 0
	for i, line := range lines {
		body, eol := bytes.CutSuffix(line, []byte{'\n'})
		m := aliasLine.FindSubmatch(body)
		if m == nil {
			continue
		}
		alias, err := catalog.NormalizeAlias(strings.TrimSpace(string(m[3])))
		if err != nil {
			continue
		}
		d, ok := index[declKey{catalog: catalog.Name(m[2]), alias: alias}]
		if !ok {
			continue
		}
		var b bytes.Buffer
		b.Write(m[1])
		b.WriteString(d.Replacement())
		b.Write(m[4])
		if eol {
			b.WriteByte('\n')
		}
		lines[i] = b.Bytes()
		n++
	}
	if n == 0 {
		return src, 0
	}
	return bytes.Join(lines, nil), n
}
