// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
)

func newIssuesCommand(app *App) *cobra.Command {
	var style string

	issuesCmd := &cobra.Command{
		Use:   "issues [id]",
		Short: "Explain a known problem",
		Long: `Explain a known problem.

Without an id, lists every known problem. Errors that match one print its
id; --verbose prints the explanation along with the error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s %s\n", CmdStyle.Render(strconv.Itoa(int(i.Id()))), issueTitle(i))
				}
				return nil
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid issue id %q: %w", args[0], err)
			}
			found := issue.Get(issue.Id(id))
			if found == nil {
				return fmt.Errorf("unknown issue id %d", id)
			}
			rendered, err := found.Render(style)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
	issuesCmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty)")
	return issuesCmd
}

// issueTitle returns the first heading of an issue's message.
func issueTitle(i *issue.Issue) string {
	for line := range strings.SplitSeq(string(i.MarkdownMsg()), "\n") {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return title
		}
	}
	return ""
}
