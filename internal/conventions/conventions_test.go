// SPDX-License-Identifier: MPL-2.0

package conventions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/extract"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/testutil"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

const libsTOML = `
[plugins]
some-plugin = { id = "org.example.foo", version = "1.0" }
kotlin-jvm = "org.jetbrains.kotlin.jvm:2.0.21"
`

const conventionScript = `plugins {
    alias(libs.plugins.some.plugin)
    alias( libs.plugins.kotlin_jvm ) apply false
    alias(libs.plugins.missing)
    alias(other.plugins.some.plugin)
    id("java")
}

// alias(libs.plugins.kotlin.jvm) outside the plugins block
`

// staticCatalogs is a fixed set of models.
type staticCatalogs map[catalog.Name]*catalog.Model

func (s staticCatalogs) Has(name catalog.Name) bool {
	_, ok := s[name]
	return ok
}

func (s staticCatalogs) Model(name catalog.Name) (*catalog.Model, error) {
	if m, ok := s[name]; ok {
		return m, nil
	}
	return nil, errors.New("unknown catalog")
}

type failingCatalogs struct{ err error }

func (f failingCatalogs) Has(catalog.Name) bool { return true }

func (f failingCatalogs) Model(catalog.Name) (*catalog.Model, error) { return nil, f.err }

func libsCatalogs(t *testing.T) staticCatalogs {
	t.Helper()
	def, err := catalog.ParseTOML("libs", []byte(libsTOML), "libs.versions.toml")
	require.NoError(t, err)
	m, err := def.Build()
	require.NoError(t, err)
	return staticCatalogs{"libs": m}
}

func TestScanBytes(t *testing.T) {
	t.Parallel()

	found := ScanBytes("a.gradle.kts", []byte(conventionScript))
	require.Len(t, found, 5)
	assert.Equal(t, Candidate{CatalogName: "libs", Alias: "some.plugin", Script: "a.gradle.kts", Line: 2}, found[0])
	assert.Equal(t, "kotlin_jvm", found[1].Alias)
	assert.Equal(t, catalog.Name("other"), found[3].CatalogName)
	assert.Equal(t, 9, found[4].Line)
	assert.Equal(t, "alias(libs.plugins.some.plugin)", found[0].String())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	r := NewRewriter(libsCatalogs(t))
	decls, err := r.Resolve(ScanBytes("a.gradle.kts", []byte(conventionScript)))
	require.NoError(t, err)
	require.Len(t, decls, 3, "unknown catalogs and aliases are dropped")

	assert.Equal(t, catalog.Alias("some-plugin"), decls[0].Alias)
	assert.Equal(t, "org.example.foo", decls[0].PluginID)
	assert.Equal(t, "1.0", decls[0].PluginVersion.String())
	assert.Equal(t, `id("org.example.foo")`, decls[0].Replacement())
	assert.Equal(t, "org.jetbrains.kotlin.jvm", decls[1].PluginID)

	_, err = NewRewriter(failingCatalogs{err: catalog.ErrMalformedCatalog}).Resolve(oneCandidate())
	assert.ErrorIs(t, err, catalog.ErrMalformedCatalog)
}

func oneCandidate() []Candidate {
	return []Candidate{{CatalogName: "libs", Alias: "x", Script: "a", Line: 1}}
}

func TestInjectDependencies(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).Settings("", ``)
	ws, err := workspace.Load(context.Background(), fx.Root())
	require.NoError(t, err)
	deps := ws.Root().Dependencies()

	decls, err := NewRewriter(libsCatalogs(t)).Resolve(ScanBytes("a", []byte(conventionScript)))
	require.NoError(t, err)
	added := InjectDependencies(decls, deps)
	require.Len(t, added, 2, "the same plugin declared twice is added once")

	got := deps.Get(workspace.ImplementationConfiguration)
	require.Len(t, got, 2)
	assert.Equal(t, workspace.Dependency{
		Group:         "org.example.foo",
		Name:          "org.example.foo.gradle.plugin",
		PreferVersion: "1.0",
	}, got[0])
	assert.Equal(t, "org.jetbrains.kotlin.jvm:org.jetbrains.kotlin.jvm.gradle.plugin:2.0.21", got[1].Notation())
}

func TestRewrite(t *testing.T) {
	t.Parallel()

	decls, err := NewRewriter(libsCatalogs(t)).Resolve(ScanBytes("a", []byte(conventionScript)))
	require.NoError(t, err)

	out, n := Rewrite([]byte(conventionScript), decls)
	assert.Equal(t, 3, n)
	assert.Equal(t, `plugins {
    id("org.example.foo")
    id("org.jetbrains.kotlin.jvm") apply false
    alias(libs.plugins.missing)
    alias(other.plugins.some.plugin)
    id("java")
}

// id("org.jetbrains.kotlin.jvm") outside the plugins block
`, string(out))

	again, n := Rewrite(out, decls)
	assert.Zero(t, n)
	assert.Equal(t, out, again, "rewriting is idempotent")

	unchanged, n := Rewrite([]byte("alias(libs.plugins.missing)"), decls)
	assert.Zero(t, n)
	assert.Equal(t, "alias(libs.plugins.missing)", string(unchanged))
}

func TestCanonical_IgnoresOrderAndPositions(t *testing.T) {
	t.Parallel()

	a := PluginDeclaration{Alias: "a", PluginID: "x", CatalogName: "libs", Script: "s1", Line: 1}
	b := PluginDeclaration{Alias: "b", PluginID: "y", CatalogName: "libs", Script: "s2", Line: 4}
	moved := a
	moved.Line = 10

	assert.Equal(t, Canonical([]PluginDeclaration{a, b}), Canonical([]PluginDeclaration{b, moved, a}))
	assert.NotEqual(t, Canonical([]PluginDeclaration{a}), Canonical([]PluginDeclaration{a, b}))
}

func TestAttachRewrite_ExtractionStepStaysCacheable(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).
		Settings("", ``).
		File("src/main/kotlin/conventions/lib.gradle.kts", conventionScript+"\ndependencies {}\n")
	ws, err := workspace.Load(context.Background(), fx.Root())
	require.NoError(t, err)
	build := ws.Root()

	x := extract.NewPluginsBlockExtractor(build)
	extracted := filepath.Join(x.OutputDir(), "conventions", "lib.gradle.kts")
	history := fx.Path("build", "typesafe-conventions", "history.cbor")

	run := func() *taskgraph.Report {
		t.Helper()
		candidates, err := Scan(x)
		require.NoError(t, err)
		decls, err := NewRewriter(libsCatalogs(t)).Resolve(candidates)
		require.NoError(t, err)
		require.Len(t, decls, 2, "only the plugins block is scanned")

		step := x.Step()
		AttachRewrite(step, x.OutputDir(), decls)
		assert.Equal(t, 2, step.Actions())

		e, err := taskgraph.New(history)
		require.NoError(t, err)
		require.NoError(t, e.Register(step))
		report, err := e.Run(context.Background())
		require.NoError(t, err)
		return report
	}

	assert.Equal(t, []string{extract.StepName}, run().Executed)
	content := testutil.MustReadFile(t, extracted)
	assert.Contains(t, content, `    id("org.example.foo")`)
	assert.Contains(t, content, `alias(libs.plugins.missing)`)
	assert.NotContains(t, content, "dependencies")
	modTime := testutil.MustModTime(t, extracted)

	assert.Equal(t, []string{extract.StepName}, run().UpToDate)
	assert.Equal(t, content, testutil.MustReadFile(t, extracted))
	assert.Equal(t, modTime, testutil.MustModTime(t, extracted))
}
