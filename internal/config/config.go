// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/cueutil"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

const (
	// AppName is the application name.
	AppName = "typesafe-conventions"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "typesafe-conventions"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "TYPESAFE_CONVENTIONS"

	keyAutoPluginDependencies = "auto_plugin_dependencies"
	keyAllowTopLevelBuild     = "allow_top_level_build"
	keyConventionCatalogName  = "convention_catalog_name"
	keyLogLevel               = "log_level"
	keyHistoryFile            = "history_file"
)

//go:embed config_schema.cue
var configSchema string

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"auto-plugin-dependencies": keyAutoPluginDependencies,
	"allow-top-level-build":    keyAllowTopLevelBuild,
	"convention-catalog-name":  keyConventionCatalogName,
	"log-level":                keyLogLevel,
	"history-file":             keyHistoryFile,
}

// FilePath returns the configuration file location of the build in dir.
func FilePath(dir string) string {
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
}

// loadWithOptions performs option-driven config loading. It returns the
// effective configuration and the file it was read from ("" for none).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(keyAutoPluginDependencies, defaults.AutoPluginDependencies)
	v.SetDefault(keyAllowTopLevelBuild, defaults.AllowTopLevelBuild)
	v.SetDefault(keyConventionCatalogName, defaults.ConventionCatalogName)
	v.SetDefault(keyLogLevel, string(defaults.LogLevel))
	v.SetDefault(keyHistoryFile, defaults.HistoryFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, opts.Flags); err != nil {
		return nil, "", err
	}

	resolvedPath := ""
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'typesafe-conventions config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	case opts.BuildDir != "" && fileExists(FilePath(opts.BuildDir)):
		resolvedPath = FilePath(opts.BuildDir)
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the " + EnvPrefix + "_* environment variables and command-line flags").
			Wrap(err).
			BuildError()
	}
	cfg.Path = resolvedPath
	return &cfg, resolvedPath, nil
}

// bindFlags binds every known flag present in flags.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE evaluation instead of cueutil.Decode because
// the result is merged into Viper's config map rather than decoded into a
// struct, and every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// ForBuild returns a copy of c with the options set in a build's
// typesafeConventions block applied on top.
func (c *Config) ForBuild(ext *settings.Extension) *Config {
	out := *c
	if ext == nil {
		return &out
	}
	if ext.AutoPluginDependencies != nil {
		out.AutoPluginDependencies = *ext.AutoPluginDependencies
	}
	if ext.AllowTopLevelBuild != nil {
		out.AllowTopLevelBuild = *ext.AllowTopLevelBuild
	}
	if ext.ConventionCatalogName != "" {
		out.ConventionCatalogName = ext.ConventionCatalogName
	}
	return &out
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// typesafe-conventions configuration\n\n")
	fmt.Fprintf(&sb, "%s: %v\n", keyAutoPluginDependencies, cfg.AutoPluginDependencies)
	fmt.Fprintf(&sb, "%s: %v\n", keyAllowTopLevelBuild, cfg.AllowTopLevelBuild)
	if cfg.ConventionCatalogName != "" {
		fmt.Fprintf(&sb, "%s: %q\n", keyConventionCatalogName, cfg.ConventionCatalogName)
	}
	fmt.Fprintf(&sb, "%s: %q\n", keyLogLevel, cfg.LogLevel)
	fmt.Fprintf(&sb, "%s: %q\n", keyHistoryFile, cfg.HistoryFile)
	return sb.String()
}
