// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/issue"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/testutil"
	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/settings"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("auto-plugin-dependencies", true, "")
	fs.Bool("allow-top-level-build", false, "")
	fs.String("log-level", "info", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{BuildDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults %+v", *cfg, *DefaultConfig())
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}
}

func TestLoad_BuildFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, FilePath(dir), `
auto_plugin_dependencies: false
convention_catalog_name: "conventionLibs"
log_level: "debug"
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{BuildDir: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Config{
		AutoPluginDependencies: false,
		AllowTopLevelBuild:     false,
		ConventionCatalogName:  "conventionLibs",
		LogLevel:               LogLevelDebug,
		HistoryFile:            DefaultHistoryFile,
		Path:                   FilePath(dir),
	}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown key":        `colour: "blue"`,
		"wrong type":         `allow_top_level_build: "yes"`,
		"invalid level":      `log_level: "trace"`,
		"invalid name":       `convention_catalog_name: "Bad-Name"`,
		"invalid cue syntax": `auto_plugin_dependencies: {`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			testutil.MustWriteFile(t, FilePath(dir), content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{BuildDir: dir})
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			found := issue.IssueOf(err)
			if found == nil {
				t.Fatalf("Load() error %v carries no issue", err)
			}
			if found.Id() != issue.ConfigLoadFailedId {
				t.Errorf("issue = %v, want %v", found.Id(), issue.ConfigLoadFailedId)
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: "/does/not/exist.cue"})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want config file not found", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want %v", err, context.Canceled)
	}
}

func TestLoad_Precedence(t *testing.T) {
	// Not parallel: modifies the environment.
	dir := t.TempDir()
	testutil.MustWriteFile(t, FilePath(dir), "allow_top_level_build: false\nlog_level: \"warn\"\n")
	t.Setenv(EnvPrefix+"_ALLOW_TOP_LEVEL_BUILD", "true")
	t.Setenv(EnvPrefix+"_AUTO_PLUGIN_DEPENDENCIES", "false")

	flags := testFlags()
	if err := flags.Parse([]string{"--auto-plugin-dependencies=true"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{BuildDir: dir, Flags: flags})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.AllowTopLevelBuild {
		t.Error("AllowTopLevelBuild = false, want the environment to override the file")
	}
	if !cfg.AutoPluginDependencies {
		t.Error("AutoPluginDependencies = false, want changed flags to override the environment")
	}
	if cfg.LogLevel != LogLevelWarn {
		t.Errorf("LogLevel = %q, want %q from the file since the flag is unchanged", cfg.LogLevel, LogLevelWarn)
	}
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	// Not parallel: modifies the environment.
	t.Setenv(EnvPrefix+"_LOG_LEVEL", "loud")

	_, err := NewProvider().Load(context.Background(), LoadOptions{BuildDir: t.TempDir()})
	if err == nil {
		t.Fatal("Load() succeeded, want error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("errors.Is(err, ErrInvalidConfig) = false for %v", err)
	}
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("errors.Is(err, ErrInvalidLogLevel) = false for %v", err)
	}
}

func TestConfig_ForBuild(t *testing.T) {
	t.Parallel()

	base := DefaultConfig()
	if got := base.ForBuild(nil); *got != *base {
		t.Errorf("ForBuild(nil) = %+v, want %+v", *got, *base)
	}

	off, on := false, true
	got := base.ForBuild(&settings.Extension{
		AutoPluginDependencies: &off,
		AllowTopLevelBuild:     &on,
		ConventionCatalogName:  "conventions",
	})
	if got.AutoPluginDependencies || !got.AllowTopLevelBuild || got.ConventionCatalogName != "conventions" {
		t.Errorf("ForBuild() = %+v, want the extension values applied", *got)
	}
	if !base.AutoPluginDependencies {
		t.Error("ForBuild() modified the receiver")
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if err := l.Validate(); err != nil {
			t.Errorf("LogLevel(%q).Validate() error: %v", l, err)
		}
	}
	err := LogLevel("verbose").Validate()
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidLogLevel)
	}

	var levelErr *InvalidLogLevelError
	if !errors.As(err, &levelErr) {
		t.Fatalf("Validate() error %T is not *InvalidLogLevelError", err)
	}
	if levelErr.Value != "verbose" {
		t.Errorf("Value = %q, want %q", levelErr.Value, "verbose")
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ConventionCatalogName = "shared"
	dir := t.TempDir()
	testutil.MustWriteFile(t, FilePath(dir), GenerateCUE(cfg))

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{BuildDir: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	loaded.Path = ""
	if *loaded != *cfg {
		t.Errorf("round trip = %+v, want %+v", *loaded, *cfg)
	}
}
