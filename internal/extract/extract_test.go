// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/taskgraph"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/testutil"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

const script = `// plugins { not this one }
import org.example.Thing

plugins {
    id("java") // }
    alias(libs.plugins.some.plugin)
    kotlin("jvm") version "2.0" apply { "}" }
}

dependencies {
    implementation("g:a:1")
}
`

func TestPluginsBlock(t *testing.T) {
	t.Parallel()

	out, found := PluginsBlock([]byte(script))
	require.True(t, found)

	got := string(out)
	assert.Equal(t, strings.Count(script, "\n"), strings.Count(got, "\n"), "line structure is kept")
	assert.NotContains(t, got, "import")
	assert.NotContains(t, got, "dependencies")
	assert.NotContains(t, got, "not this one")

	lines := strings.Split(got, "\n")
	assert.Equal(t, "plugins {", lines[3])
	assert.Equal(t, "    alias(libs.plugins.some.plugin)", lines[5])
	assert.Equal(t, "}", lines[7])
}

func TestPluginsBlock_CharLiterals(t *testing.T) {
	t.Parallel()

	src := "plugins {\n    val open = '{'\n    val quote = '\\''\n    val dq = '\"'\n    id(\"java\")\n}\n\ndependencies {\n}\n"
	out, found := PluginsBlock([]byte(src))
	require.True(t, found)

	got := string(out)
	assert.Contains(t, got, `id("java")`)
	assert.True(t, strings.HasSuffix(got, "}\n\n\n\n"), "block ends at its own closing brace")
	assert.NotContains(t, got, "dependencies")
}

func TestPluginsBlock_NotFound(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no block":          "dependencies {\n}\n",
		"nested block":      "configure {\n    plugins {\n    }\n}\n",
		"qualified access":  "project.plugins {\n}\n",
		"longer identifier": "myplugins {\n}\n",
		"unterminated":      "plugins {\n    id(\"java\")\n",
		"in string":         "val s = \"plugins { }\"\n",
		"after char brace":  "val c = '}'\nconfigure {\n    plugins {\n    }\n}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out, found := PluginsBlock([]byte(src))
			assert.False(t, found)
			assert.Equal(t, strings.Repeat("\n", strings.Count(src, "\n")), string(out))
		})
	}
}

func TestExtractor_Step(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).
		Settings("", `rootProjectName: "logic"`).
		File("src/main/kotlin/base.gradle.kts", script).
		File("src/main/kotlin/nested/lib.gradle.kts", "plugins {\n    id(\"base\")\n}\n").
		File("src/main/kotlin/Helper.kt", "object Helper\n")
	ws, err := workspace.Load(context.Background(), fx.Root())
	require.NoError(t, err)

	x := NewPluginsBlockExtractor(ws.Root())
	scripts, err := x.Scripts()
	require.NoError(t, err)
	assert.Equal(t, []string{"base.gradle.kts", "nested/lib.gradle.kts"}, scripts)

	stale := filepath.Join(x.OutputDir(), "removed.gradle.kts")
	testutil.MustWriteFile(t, stale, "plugins {}\n")

	e, err := taskgraph.New("")
	require.NoError(t, err)
	require.NoError(t, e.Register(x.Step()))
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{StepName}, report.Executed)

	assert.NoFileExists(t, stale)
	extracted, err := x.Extracted()
	require.NoError(t, err)
	require.Len(t, extracted, 2)
	assert.Equal(t, "plugins {\n    id(\"base\")\n}\n", testutil.MustReadFile(t, extracted[1]))
	assert.Equal(t, fx.Path("build", "kotlin-dsl", "plugins-blocks", "extracted", "base.gradle.kts"), extracted[0])

	report, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{StepName}, report.UpToDate)
}

func TestExtractor_NoScripts(t *testing.T) {
	t.Parallel()

	fx := testutil.NewWorkspace(t).Settings("", ``)
	ws, err := workspace.Load(context.Background(), fx.Root())
	require.NoError(t, err)

	x := NewPluginsBlockExtractor(ws.Root())
	scripts, err := x.Scripts()
	require.NoError(t, err)
	assert.Empty(t, scripts)
	require.NoError(t, x.Extract(context.Background()))
	assert.DirExists(t, x.OutputDir())
}
