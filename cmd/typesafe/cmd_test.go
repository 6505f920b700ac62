// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/testutil"
)

func conventionWorkspace(t *testing.T) *testutil.Workspace {
	t.Helper()
	return testutil.NewWorkspace(t).
		Settings("", `includeBuilds: ["build-logic"]`).
		File("gradle/libs.versions.toml", "[plugins]\nsome-plugin = \"org.example.foo:1.0\"\n").
		Settings("build-logic", `typesafeConventions: {}`).
		File("build-logic/src/main/kotlin/my-convention.gradle.kts", "plugins {\n    alias(libs.plugins.some.plugin)\n}\n")
}

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(NewApp(Dependencies{Stdout: &out, Stderr: &errOut}))
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.ExecuteContext(context.Background())
	return ansiEscape.ReplaceAllString(out.String(), ""), ansiEscape.ReplaceAllString(errOut.String(), ""), err
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	fx := conventionWorkspace(t)
	stdout, _, err := runCLI(t, "generate", "-p", fx.Root())
	require.NoError(t, err)
	assert.Contains(t, stdout, ":build-logic")
	assert.Contains(t, stdout, "steps: 5 executed, 0 up-to-date")
	assert.FileExists(t, fx.Path("build-logic", "build", "generated-sources", "typesafe-conventions", "kotlin",
		"org", "gradle", "accessors", "dm", "LibrariesForLibs.kt"))

	stdout, _, err = runCLI(t, "generate", "-p", fx.Root(), "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "steps: 0 executed, 5 up-to-date")
	assert.Contains(t, stdout, "my-convention.gradle.kts:2 libs.plugins.some-plugin -> org.example.foo")
	assert.Contains(t, stdout, "org.example.foo:org.example.foo.gradle.plugin:1.0")
}

func TestGenerate_DryRun(t *testing.T) {
	t.Parallel()

	fx := conventionWorkspace(t)
	stdout, _, err := runCLI(t, "generate", "-p", fx.Root(), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "would run")
	assert.Contains(t, stdout, "LibrariesForLibs.kt")
	assert.NoDirExists(t, fx.Path("build-logic", "build"))
}

func TestGenerate_TopLevelBuild(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).Settings("", `typesafeConventions: {}`)
	_, stderr, err := runCLI(t, "generate", "-p", fx.Root())
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	found := issue.IssueOf(err)
	require.NotNil(t, found)
	assert.Equal(t, issue.TopLevelBuildId, found.Id())
	assert.Contains(t, stderr, "issues 5")

	_, _, err = runCLI(t, "generate", "-p", fx.Root(), "--allow-top-level-build")
	assert.NoError(t, err, "the flag overrides the default")
}

func TestTree(t *testing.T) {
	t.Parallel()

	fx := conventionWorkspace(t).Settings("build-logic/buildSrc", "")
	stdout, _, err := runCLI(t, "tree", "-p", fx.Root())
	require.NoError(t, err)
	assert.Contains(t, stdout, ":build-logic [conventions]")
	assert.Contains(t, stdout, ":build-logic:buildSrc (utility)")
	assert.Less(t, strings.Index(stdout, ":build-logic "), strings.Index(stdout, ":build-logic:buildSrc"))
}

func TestCatalogs(t *testing.T) {
	t.Parallel()

	fx := conventionWorkspace(t)
	stdout, _, err := runCLI(t, "catalogs", "-p", fx.Root(), "--convention-catalog-name", "parentLibs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "parentLibs")
	assert.Contains(t, stdout, "libs.versions.toml")
	assert.NoDirExists(t, fx.Path("build-logic", "build"))
}

func TestConfig(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).File("typesafe-conventions.cue", "auto_plugin_dependencies: false\n")

	stdout, _, err := runCLI(t, "config", "dump", "-p", fx.Root(), "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stdout, "auto_plugin_dependencies: false")
	assert.Contains(t, stdout, `log_level: "debug"`)

	stdout, _, err = runCLI(t, "config", "path", "-p", fx.Root())
	require.NoError(t, err)
	assert.Equal(t, fx.Path("typesafe-conventions.cue")+"\n", stdout)

	stdout, _, err = runCLI(t, "config", "show", "-p", fx.Root())
	require.NoError(t, err)
	assert.Contains(t, stdout, fx.Path("typesafe-conventions.cue"))

	_, _, err = runCLI(t, "config", "show", "-p", fx.Root(), "--log-level", "loud")
	assert.Error(t, err)
}

func TestIssues(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "issues")
	require.NoError(t, err)
	for _, i := range issue.Values() {
		assert.Contains(t, stdout, issueTitle(i))
	}

	stdout, _, err = runCLI(t, "issues", "5", "--style", "notty")
	require.NoError(t, err)
	assert.NotEmpty(t, stdout)

	_, _, err = runCLI(t, "issues", "999")
	assert.Error(t, err)
	_, _, err = runCLI(t, "issues", "x")
	assert.Error(t, err)
}

func TestWatch_RejectsDryRun(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "watch", "--dry-run", "-p", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dry-run")
}
