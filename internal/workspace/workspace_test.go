// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/testutil"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

func identities(builds []*Build) []IdentityPath {
	out := make([]IdentityPath, 0, len(builds))
	for _, b := range builds {
		out = append(out, b.IdentityPath())
	}
	return out
}

func TestLoad_FlattensIncludedBuilds(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).
		Settings("", `includeBuilds: ["a"]`).
		Settings("a", `includeBuilds: ["nested/b"]`).
		Settings("a/nested/b", `rootProjectName: "bee"`).
		Dir("a/buildSrc/src")

	ws, err := Load(context.Background(), fx.Root())
	require.NoError(t, err)

	root := ws.Root()
	assert.True(t, root.IsRoot())
	assert.Equal(t, RootIdentity, root.IdentityPath())
	assert.Nil(t, root.FlatParent())

	assert.Equal(t, []IdentityPath{":", ":a", ":bee", ":a:buildSrc"}, identities(ws.Builds()))
	assert.Equal(t, []IdentityPath{":a", ":bee", ":a:buildSrc"}, identities(ws.IncludedBuilds()))

	for _, b := range ws.IncludedBuilds() {
		assert.Same(t, root, b.FlatParent(), "host reports %s as a child of the root", b.IdentityPath())
	}

	a, ok := ws.Build(":a")
	require.True(t, ok)
	assert.Equal(t, []IdentityPath{":bee"}, identities(a.DeclaredIncludes()))
	assert.Nil(t, a.NativeParent())

	utility, ok := ws.Build(":a:buildSrc")
	require.True(t, ok)
	assert.Equal(t, CategoryUtility, utility.Category())
	assert.Same(t, a, utility.NativeParent())
	assert.Empty(t, utility.Settings().IncludeBuilds)
}

func TestLoad_RootUtilityIdentity(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).Settings("", ``).Dir("buildSrc")

	ws, err := Load(context.Background(), fx.Root())
	require.NoError(t, err)
	b, ok := ws.Build(":buildSrc")
	require.True(t, ok)
	assert.Same(t, ws.Root(), b.NativeParent())
}

func TestLoad_CycleAndDiamondLoadOnce(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).
		Settings("", `includeBuilds: ["a", "b"]`).
		Settings("a", `includeBuilds: ["../shared", ".."]`).
		Settings("b", `includeBuilds: ["../shared"]`).
		Settings("shared", ``)

	ws, err := Load(context.Background(), fx.Root())
	require.NoError(t, err)
	assert.Equal(t, []IdentityPath{":", ":a", ":shared", ":b"}, identities(ws.Builds()))

	a, _ := ws.Build(":a")
	assert.Same(t, ws.Root(), a.DeclaredIncludes()[1], "cycle back to the root reuses the root build")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing settings", func(t *testing.T) {
		t.Parallel()
		fx := testutil.NewWorkspace(t).Settings("", `includeBuilds: ["missing"]`)
		_, err := Load(context.Background(), fx.Root())
		require.Error(t, err)
		require.NotNil(t, issue.IssueOf(err))
		assert.Equal(t, issue.SettingsNotFoundId, issue.IssueOf(err).Id())
	})

	t.Run("invalid settings", func(t *testing.T) {
		t.Parallel()
		fx := testutil.NewWorkspace(t).Settings("", `unknown: 1`)
		_, err := Load(context.Background(), fx.Root())
		require.Error(t, err)
		assert.Equal(t, issue.SettingsInvalidId, issue.IssueOf(err).Id())
	})

	t.Run("duplicate identity", func(t *testing.T) {
		t.Parallel()
		fx := testutil.NewWorkspace(t).
			Settings("", `includeBuilds: ["x", "y"]`).
			Settings("x", `rootProjectName: "same"`).
			Settings("y", `rootProjectName: "same"`)
		_, err := Load(context.Background(), fx.Root())
		require.ErrorIs(t, err, ErrDuplicateIdentity)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		fx := testutil.NewWorkspace(t).Settings("", ``)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Load(ctx, fx.Root())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).Settings("", `catalogs: [{name: "libs"}]`)
	ws, err := Load(context.Background(), fx.Root())
	require.NoError(t, err)

	_, err = ws.Root().Settings().Catalogs()
	require.ErrorIs(t, err, settings.ErrNotFinalized)
	require.ErrorIs(t, ws.LoadProjects(context.Background()), ErrPhase)

	var calls []Phase
	ws.OnProjectsLoaded(func(_ context.Context, w *Workspace) error {
		calls = append(calls, w.Phase())
		return nil
	})
	boom := errors.New("boom")
	ws.OnProjectsLoaded(func(context.Context, *Workspace) error { return boom })

	require.NoError(t, ws.FinalizeSettings())
	require.ErrorIs(t, ws.FinalizeSettings(), ErrPhase)
	builders, err := ws.Root().Settings().Catalogs()
	require.NoError(t, err)
	assert.Len(t, builders, 1)

	require.ErrorIs(t, ws.LoadProjects(context.Background()), boom)
	assert.Equal(t, []Phase{PhaseProjectsLoaded}, calls)
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	deps := newDependencies()
	assert.True(t, deps.Add(ImplementationConfiguration, Dependency{Group: "g", Name: "a", PreferVersion: "1"}))
	assert.True(t, deps.Add(ImplementationConfiguration, Dependency{Group: "g", Name: "b"}))
	assert.False(t, deps.Add(ImplementationConfiguration, Dependency{Group: "g", Name: "a", PreferVersion: "2"}))
	deps.Add("runtimeOnly", Dependency{Group: "g", Name: "c"})

	got := deps.Get(ImplementationConfiguration)
	require.Len(t, got, 2)
	assert.Equal(t, "g:a:2", got[0].Notation())
	assert.Equal(t, "g:b", got[1].Notation())
	assert.Equal(t, []string{"implementation", "runtimeOnly"}, deps.Configurations())
}

func TestBuild_SourceRoots(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).Settings("", ``)
	ws, err := Load(context.Background(), fx.Root())
	require.NoError(t, err)

	b := ws.Root()
	b.AddSourceRoot("/gen/a")
	b.AddSourceRoot("/gen/b")
	b.AddSourceRoot("/gen/a")
	assert.Equal(t, []string{"/gen/a", "/gen/b"}, b.SourceRoots())
	assert.Equal(t, fx.Path("build"), b.OutputDir())
}
