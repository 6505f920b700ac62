// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

const validSettings = `
rootProjectName: "app"
includeBuilds: ["build-logic"]
catalogs: [{
	name: "libs"
	from: ["gradle/shared.versions.toml"]
	versions: kotlin: "2.0.21"
	libraries: guava: "com.google.guava:guava:33.0.0-jre"
	plugins: "some-plugin": "org.example.foo:2.0"
}]
typesafeConventions: {
	autoPluginDependencies: false
	conventionCatalogName: "conventions"
}
`

func TestParseBytes(t *testing.T) {
	t.Parallel()

	s, err := ParseBytes([]byte(validSettings), "/work/app/settings.cue")
	require.NoError(t, err)

	assert.Equal(t, "app", s.RootProjectName)
	assert.Equal(t, []string{"build-logic"}, s.IncludeBuilds)
	assert.Equal(t, "/work/app", s.Dir())
	require.Len(t, s.CatalogDecls, 1)
	assert.Equal(t, "org.example.foo:2.0", s.CatalogDecls[0].Plugins["some-plugin"])

	require.True(t, s.IsConventionBuild())
	require.NotNil(t, s.TypesafeConventions.AutoPluginDependencies)
	assert.False(t, *s.TypesafeConventions.AutoPluginDependencies)
	assert.Nil(t, s.TypesafeConventions.AllowTopLevelBuild)
	assert.Equal(t, "conventions", s.TypesafeConventions.ConventionCatalogName)
}

func TestParseBytes_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown field":         `rootProject: "x"`,
		"bad catalog name":      `catalogs: [{name: "My-Libs"}]`,
		"bad library notation":  `catalogs: [{name: "libs", libraries: a: "nocolon"}]`,
		"from is not a catalog": `catalogs: [{name: "libs", from: ["libs.toml"]}]`,
		"syntax error":          `catalogs: [`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseBytes([]byte(src), "settings.cue")
			require.Error(t, err)
		})
	}
}

func TestParseBytes_DuplicateCatalog(t *testing.T) {
	t.Parallel()

	_, err := ParseBytes([]byte(`catalogs: [{name: "libs"}, {name: "libs"}]`), "settings.cue")
	require.ErrorIs(t, err, ErrDuplicateCatalog)
}

func TestCatalogs_RequiresFinalize(t *testing.T) {
	t.Parallel()

	s, err := ParseBytes([]byte(`catalogs: [{name: "libs"}, {name: "tools"}]`), "/work/settings.cue")
	require.NoError(t, err)

	_, err = s.Catalogs()
	require.ErrorIs(t, err, ErrNotFinalized)
	assert.False(t, s.Finalized())

	s.Finalize()
	s.Finalize()
	builders, err := s.Catalogs()
	require.NoError(t, err)
	require.Len(t, builders, 2)
	assert.Equal(t, catalog.Name("libs"), builders[0].Name())
	assert.Equal(t, catalog.Name("tools"), builders[1].Name())
}

func TestCatalogBuilder_Definition(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gradle"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gradle", "shared.versions.toml"), []byte(`
[libraries]
guava = "com.google.guava:guava:32.0.0-jre"
slf4j = "org.slf4j:slf4j-api:2.0.13"

[plugins]
some-plugin = { id = "org.example.foo", version = "1.0" }
`), 0o644))

	s, err := ParseBytes([]byte(validSettings), filepath.Join(dir, FileName))
	require.NoError(t, err)
	s.Finalize()
	builders, err := s.Catalogs()
	require.NoError(t, err)

	def, err := builders[0].Definition()
	require.NoError(t, err)
	model, err := def.Build()
	require.NoError(t, err)

	guava, ok := model.Library("guava")
	require.True(t, ok)
	assert.Equal(t, "33.0.0-jre", guava.Version.String(), "inline entries override imported ones")

	slf4j, ok := model.Library("slf4j")
	require.True(t, ok)
	assert.Equal(t, "2.0.13", slf4j.Version.String())

	plugin, ok := model.Plugin("some.plugin")
	require.True(t, ok)
	assert.Equal(t, "2.0", plugin.Version.String())

	_, ok = model.Version("kotlin")
	assert.True(t, ok)
}

func TestCatalogBuilder_MissingFromFile(t *testing.T) {
	t.Parallel()

	b := NewCatalogBuilder(CatalogDecl{Name: "libs", From: []string{"gradle/none.versions.toml"}}, t.TempDir())
	_, err := b.Definition()
	require.ErrorIs(t, err, catalog.ErrMalformedCatalog)
}
