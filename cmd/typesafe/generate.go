// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/codegen"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/pipeline"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

func newGenerateCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate catalog accessors and rewrite plugins blocks",
		Long: `Generate catalog accessors and rewrite plugins blocks.

Every convention build of the workspace gets accessors for the catalogs of
its parent build, written below build/generated-sources. Plugin aliases in
the plugins blocks of its scripts are resolved and the rewritten blocks are
written below build/kotlin-dsl. Steps whose inputs did not change are
skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			res, err := s.pipeline(flags.dryRun).Run(cmd.Context(), s.root)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			printResult(app.stdout, res, flags.verbose)
			return nil
		},
	}
}

// printResult writes a summary of a run, one block per convention build.
func printResult(w io.Writer, res *pipeline.Result, verbose bool) {
	if len(res.Builds) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("No convention builds found."))
		return
	}
	for _, br := range res.Builds {
		fmt.Fprintf(w, "%s %s %s\n",
			SuccessStyle.Render("✓"),
			CmdStyle.Render(br.Build.IdentityPath().String()),
			SubtitleStyle.Render("(catalogs of "+br.CatalogBuild.IdentityPath().String()+")"))
		fmt.Fprintf(w, "  catalogs: %s\n", joinNames(br.Catalogs))
		if br.Report != nil {
			verb := "executed"
			if res.DryRun {
				verb = "would run"
			}
			fmt.Fprintf(w, "  steps: %d %s, %d up-to-date\n", len(br.Report.Executed), verb, len(br.Report.UpToDate))
		}
		for _, a := range br.Artifacts {
			fmt.Fprintf(w, "  would write %s %s\n",
				VerboseStyle.Render(string(a.Kind)),
				filepath.Join(codegen.SourceRoot(br.Build), filepath.FromSlash(a.FileName)))
		}
		if !verbose {
			continue
		}
		for _, d := range br.Declarations {
			fmt.Fprintf(w, "  %s %s:%d %s.plugins.%s -> %s\n",
				VerboseStyle.Render("alias"), d.Script, d.Line, d.CatalogName, d.Alias, CmdStyle.Render(d.PluginID))
		}
		for _, dep := range br.Dependencies {
			fmt.Fprintf(w, "  %s %s\n", VerboseStyle.Render("dependency"), dep.Notation())
		}
	}
}

func joinNames(names []catalog.Name) string {
	if len(names) == 0 {
		return SubtitleStyle.Render("(none)")
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, CmdStyle.Render(string(n)))
	}
	return strings.Join(parts, ", ")
}
