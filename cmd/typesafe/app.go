// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/config"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/pipeline"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App reference.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlagValues holds the persistent flags of the root command.
	rootFlagValues struct {
		verbose    bool
		projectDir string
		configPath string
		dryRun     bool
	}

	// session is what a command needs after flags and configuration are
	// resolved.
	session struct {
		root   string
		cfg    *config.Config
		logger *log.Logger
	}

	// displayError renders ActionableErrors with their suggestions when
	// printed by the command runner.
	displayError struct {
		err     error
		verbose bool
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// newSession resolves the project directory and loads the configuration of
// its root build. Changed command-line flags take precedence.
func (a *App) newSession(cmd *cobra.Command, flags *rootFlagValues) (*session, error) {
	root, err := filepath.Abs(flags.projectDir)
	if err != nil {
		return nil, err
	}
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: flags.configPath,
		BuildDir:       root,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	return &session{root: root, cfg: cfg, logger: a.newLogger(cfg, flags.verbose)}, nil
}

// newLogger returns the logger all components log through. --verbose
// lowers the configured level to debug.
func (a *App) newLogger(cfg *config.Config, verbose bool) *log.Logger {
	level := cfg.LogLevel.Level()
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Level:  level,
		Prefix: config.AppName,
	})
}

// pipeline returns a pipeline for the session.
func (s *session) pipeline(dryRun bool) *pipeline.Pipeline {
	return pipeline.New(s.cfg, pipeline.WithDryRun(dryRun), pipeline.WithLogger(s.logger))
}

// fail prints the help of the issue attached to err, if any, and returns
// the error to hand back to Cobra.
func (a *App) fail(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	if found := issue.IssueOf(err); found != nil {
		if !verbose {
			fmt.Fprintf(a.stderr, "%s\n", SubtitleStyle.Render(fmt.Sprintf("Run '%s issues %d' for help.", config.AppName, found.Id())))
		} else if rendered, renderErr := found.Render("dark"); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	return &ExitError{Code: 1, Err: &displayError{err: err, verbose: verbose}}
}

func (e *displayError) Error() string { return formatErrorForDisplay(e.err, e.verbose) }

func (e *displayError) Unwrap() error { return e.err }

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions and, in verbose mode, the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
