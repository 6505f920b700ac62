// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/watch"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var debounce time.Duration

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever settings, catalogs or scripts change",
		Long: `Regenerate whenever settings, catalogs or scripts change.

Runs generate once, then again after every burst of changes to a
settings.cue, a config file, a catalog file or a convention script.
Configuration is reloaded on every run. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.dryRun {
				return app.fail(errors.New("watch and --dry-run cannot be used together"), flags.verbose)
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}

			regenerate := func(ctx context.Context) {
				current, err := app.newSession(cmd, flags)
				if err != nil {
					fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render("!"), formatErrorForDisplay(err, flags.verbose))
					return
				}
				res, err := current.pipeline(false).Run(ctx, current.root)
				if err != nil {
					// Keep watching: the user may fix the error and save again.
					fmt.Fprintf(app.stderr, "%s Generation failed: %s\n", WarningStyle.Render("!"), formatErrorForDisplay(err, flags.verbose))
					return
				}
				printResult(app.stdout, res, flags.verbose)
			}

			regenerate(cmd.Context())
			fmt.Fprintf(app.stdout, "\n%s Watching %s for changes (Ctrl+C to stop)...\n\n", CmdStyle.Render("→"), s.root)

			w, err := watch.New(watch.Config{
				Root:     s.root,
				Debounce: debounce,
				OnChange: func(ctx context.Context, changed []string) error {
					fmt.Fprintf(app.stdout, "%s Detected %d change(s). Regenerating...\n", CmdStyle.Render("→"), len(changed))
					regenerate(ctx)
					return nil
				},
				Logger: s.logger.WithPrefix("watch"),
			})
			if err != nil {
				return app.fail(fmt.Errorf("failed to start watcher: %w", err), flags.verbose)
			}
			return app.fail(w.Run(cmd.Context()), flags.verbose)
		},
	}
	watchCmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before regenerating")
	return watchCmd
}
