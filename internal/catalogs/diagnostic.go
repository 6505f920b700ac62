// SPDX-License-Identifier: MPL-2.0

package catalogs

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates an expected condition worth reporting in verbose output.
	SeverityInfo Severity = "info"

	// CodeSettingsNotFinalized is reported when builder catalogs were queried
	// before settings were finalized.
	CodeSettingsNotFinalized = "settings_not_finalized"
	// CodeFileShadowed is reported when a catalog file loses to a same-named catalog.
	CodeFileShadowed = "catalog_file_shadowed"
	// CodeFileInvalidName is reported when a catalog file name is not a valid catalog name.
	CodeFileInvalidName = "catalog_file_invalid_name"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a recovered discovery condition, returned to callers
	// for rendering instead of being written out directly.
	Diagnostic struct {
		Severity Severity
		Code     string
		Message  string
		// Path is the file associated with this diagnostic (optional).
		Path  string
		Cause error
	}
)
