// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}
	defaults := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Type-safe version catalog accessors for convention builds",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - type-safe catalogs for convention builds") + `

Convention builds (included builds whose settings.cue carries a
typesafeConventions block) get generated accessors for the version
catalogs of the build that includes them, and the plugins blocks of
their scripts may refer to catalog plugins by alias.

` + SubtitleStyle.Render("Examples:") + `
  typesafe-conventions generate            Generate accessors for every convention build
  typesafe-conventions generate --dry-run  Show what would be generated
  typesafe-conventions tree                Show the build hierarchy
  typesafe-conventions catalogs            List the catalogs each convention build sees
  typesafe-conventions watch               Regenerate on every change`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVarP(&flags.projectDir, "project-dir", "p", ".", "root build directory")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is <project-dir>/"+config.ConfigFileName+"."+config.ConfigFileExt+")")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "plan every step without writing")

	// Configuration overrides. Names match the keys config binds.
	pf.Bool("auto-plugin-dependencies", defaults.AutoPluginDependencies, "add the plugin marker of every resolved alias to the convention build")
	pf.Bool("allow-top-level-build", defaults.AllowTopLevelBuild, "let a top-level build use its own catalogs")
	pf.String("convention-catalog-name", defaults.ConventionCatalogName, "name the parent's libs catalog gets inside convention builds")
	pf.String("log-level", string(defaults.LogLevel), "log level (debug, info, warn, error)")
	pf.String("history-file", defaults.HistoryFile, "step history file, relative to each convention build")

	rootCmd.AddCommand(newGenerateCommand(app, flags))
	rootCmd.AddCommand(newTreeCommand(app, flags))
	rootCmd.AddCommand(newCatalogsCommand(app, flags))
	rootCmd.AddCommand(newWatchCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newIssuesCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
