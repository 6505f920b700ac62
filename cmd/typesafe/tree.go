// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/hierarchy"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

func newTreeCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the logical build hierarchy",
		Long: `Show the logical build hierarchy.

Every included build is shown below the build that first included it, and
every utility build below the build that owns it. Convention builds are
marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			ws, resolver, err := s.pipeline(false).Load(cmd.Context(), s.root)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			return app.fail(printTree(app.stdout, ws, resolver, flags.verbose), flags.verbose)
		},
	}
}

func printTree(w io.Writer, ws *workspace.Workspace, resolver *hierarchy.Resolver, verbose bool) error {
	return resolver.Walk(ws.IncludedBuilds(), func(n *hierarchy.Node, depth int) error {
		var line strings.Builder
		if depth > 0 {
			line.WriteString(strings.Repeat("   ", depth-1))
			line.WriteString(treeBranchStyle.Render("└─ "))
		}
		line.WriteString(CmdStyle.Render(n.IdentityPath().String()))
		if n.Build().Category() == workspace.CategoryUtility {
			line.WriteString(" " + SubtitleStyle.Render("("+n.Build().Category().String()+")"))
		}
		if s := n.Settings(); s != nil && s.IsConventionBuild() {
			line.WriteString(" " + conventionBadgeStyle.Render("[conventions]"))
		}
		if verbose {
			line.WriteString(" " + VerboseStyle.Render(n.Dir()))
		}
		_, err := fmt.Fprintln(w, line.String())
		return err
	})
}
