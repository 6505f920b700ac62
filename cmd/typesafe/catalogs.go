// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/catalogs"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/pipeline"
)

func newCatalogsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List the catalogs every convention build sees",
		Long: `List the catalogs every convention build sees.

Nothing is written: the steps are planned as with --dry-run. Catalog
files that were ignored or shadowed are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			res, err := s.pipeline(true).Run(cmd.Context(), s.root)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			printCatalogs(app.stdout, res, flags.verbose)
			return nil
		},
	}
}

func printCatalogs(w io.Writer, res *pipeline.Result, verbose bool) {
	if len(res.Builds) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("No convention builds found."))
		return
	}
	for _, br := range res.Builds {
		fmt.Fprintln(w, TitleStyle.Render(br.Build.IdentityPath().String()))
		if len(br.Sources) == 0 {
			fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no catalogs)"))
		}
		for i, src := range br.Sources {
			name := src.Name()
			if i < len(br.Catalogs) {
				// Registration order follows source order; renames show here.
				name = br.Catalogs[i]
			}
			fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(string(name)), SubtitleStyle.Render(src.Origin()))
		}
		for _, d := range br.Diagnostics {
			if d.Severity == catalogs.SeverityInfo && !verbose {
				continue
			}
			fmt.Fprintf(w, "  %s %s %s\n", WarningStyle.Render("!"), d.Message, VerboseStyle.Render(d.Path))
		}
	}
}
