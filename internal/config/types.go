// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/pkg/catalog"
)

const (
	// LogLevelDebug enables debug output.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn reports warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError reports errors only.
	LogLevelError LogLevel = "error"

	// DefaultHistoryFile is the step history location, relative to each convention build.
	DefaultHistoryFile = "build/typesafe-conventions/history.cbor"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of emitted log records.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError aggregates field validation failures.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the effective tool configuration.
	Config struct {
		// AutoPluginDependencies adds plugin marker artifacts as dependencies.
		AutoPluginDependencies bool `json:"auto_plugin_dependencies" mapstructure:"auto_plugin_dependencies"`
		// AllowTopLevelBuild permits a root convention build with no parent.
		AllowTopLevelBuild bool `json:"allow_top_level_build" mapstructure:"allow_top_level_build"`
		// ConventionCatalogName exposes the parent's "libs" catalog under this name.
		ConventionCatalogName string `json:"convention_catalog_name" mapstructure:"convention_catalog_name"`
		// LogLevel is the minimum level of emitted log records.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// HistoryFile is the step history location, relative to each convention build.
		HistoryFile string `json:"history_file" mapstructure:"history_file"`

		// Path is the configuration file the values were read from, if any.
		Path string `json:"-" mapstructure:"-"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AutoPluginDependencies: true,
		AllowTopLevelBuild:     false,
		LogLevel:               LogLevelInfo,
		HistoryFile:            DefaultHistoryFile,
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate returns nil if the level is recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Level converts l to a logger level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks the fields the schema cannot see (environment and flag
// values bypass it).
func (c *Config) Validate() error {
	var errs []error
	if err := c.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ConventionCatalogName != "" {
		if ok, nameErrs := catalog.Name(c.ConventionCatalogName).IsValid(); !ok {
			errs = append(errs, nameErrs...)
		}
	}
	if c.HistoryFile == "" {
		errs = append(errs, errors.New("history_file must not be empty"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
