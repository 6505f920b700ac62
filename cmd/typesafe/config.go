// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/config"
)

// newConfigCommand creates the `config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Long: `Inspect the effective configuration.

Configuration is read from ` + config.ConfigFileName + `.` + config.ConfigFileExt + ` in the root build
directory, then ` + config.EnvPrefix + `_* environment variables, then flags.
A convention build's typesafeConventions block overrides all of them for
that build.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			showConfig(app.stdout, s.cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			path := s.cfg.Path
			if path == "" {
				path = config.FilePath(s.root)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	catalogName := cfg.ConventionCatalogName
	if catalogName == "" {
		catalogName = SubtitleStyle.Render("(unchanged)")
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("auto_plugin_dependencies"), valueStyle.Render(fmt.Sprint(cfg.AutoPluginDependencies)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("allow_top_level_build"), valueStyle.Render(fmt.Sprint(cfg.AllowTopLevelBuild)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("convention_catalog_name"), valueStyle.Render(catalogName))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(string(cfg.LogLevel)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("history_file"), valueStyle.Render(cfg.HistoryFile))
}
