// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BugReportURL is where users report defects in the tool itself.
const BugReportURL HttpLink = "https://github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin/issues"

const (
	SettingsNotFoundId Id = iota + 1
	SettingsInvalidId
	CatalogMalformedId
	CatalogNotReadyId
	TopLevelBuildId
	MissingResourceId
	ConfigLoadFailedId
	OverlappingOutputsId
	PermissionDeniedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

var (
	render = glamour.Render

	settingsNotFoundIssue = &Issue{
		id: SettingsNotFoundId,
		mdMsg: `
# No settings.cue found!

Every build of the workspace, including included builds, needs a ` + "`settings.cue`" + `.

## Things you can try:
- Run the command from the root build directory, or pass it with ` + "`-p`" + `:
~~~
$ typesafe-conventions generate -p path/to/root
~~~
- Check the ` + "`includeBuilds`" + ` paths of the including build; they are relative to its directory.`,
	}

	settingsInvalidIssue = &Issue{
		id: SettingsInvalidId,
		mdMsg: `
# Invalid settings.cue!

## Common issues:
- Unknown field names (the schema is closed)
- Library notation that is not ` + "`group:name[:version]`" + `
- Catalog names that are not lower camel case identifiers

## Example:
~~~cue
rootProjectName: "app"
includeBuilds: ["build-logic"]
catalogs: [{
	name: "libs"
	from: ["gradle/libs.versions.toml"]
}]
~~~`,
	}

	catalogMalformedIssue = &Issue{
		id: CatalogMalformedId,
		mdMsg: `
# Malformed version catalog!

The catalog model could not be built, so no accessors can be generated.

## Common issues:
- A ` + "`version.ref`" + ` pointing at a version that is not declared
- Two aliases that only differ in separators (` + "`foo-bar`" + ` and ` + "`foo_bar`" + `)
- A library alias starting with a reserved word (` + "`bundles`, `versions`, `plugins`" + `)
- A plugin entry without an ` + "`id`",
	}

	catalogNotReadyIssue = &Issue{
		id: CatalogNotReadyId,
		mdMsg: `
# Catalogs never became available!

Builder catalogs were queried repeatedly before the build settings were finalized.

## Things you can try:
- Make sure the settings of the parent build load without errors
- Report a bug if the settings are valid`,
		extLinks: []HttpLink{BugReportURL},
	}

	topLevelBuildIssue = &Issue{
		id: TopLevelBuildId,
		mdMsg: `
# Convention build is the top-level build!

A convention build shares the catalogs of its parent, but this build has no parent.

## Things you can try:
- Include the convention build from another build with ` + "`includeBuilds`" + `
- Or allow it explicitly:
~~~cue
typesafeConventions: allowTopLevelBuild: true
~~~`,
	}

	missingResourceIssue = &Issue{
		id: MissingResourceId,
		mdMsg: `
# A bundled resource is missing!

This is a bug in typesafe-conventions, not in your build. Please report it.`,
		extLinks: []HttpLink{BugReportURL},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the syntax of ` + "`typesafe-conventions.cue`" + `
- Inspect the effective configuration:
~~~
$ typesafe-conventions config show
~~~
- Unset ` + "`TYPESAFE_CONVENTIONS_*`" + ` environment variables to rule them out`,
	}

	overlappingOutputsIssue = &Issue{
		id: OverlappingOutputsId,
		mdMsg: `
# Two steps write the same output!

A step that reads and rewrites another step's output can never be up-to-date.
Attach the extra work as an action of the producing step instead.`,
		extLinks: []HttpLink{BugReportURL},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

## Things you can try:
- Check that the ` + "`build`" + ` directories of your builds are writable
- Remove stale output left by another user and run again`,
	}

	issues = map[Id]*Issue{
		settingsNotFoundIssue.Id():   settingsNotFoundIssue,
		settingsInvalidIssue.Id():    settingsInvalidIssue,
		catalogMalformedIssue.Id():   catalogMalformedIssue,
		catalogNotReadyIssue.Id():    catalogNotReadyIssue,
		topLevelBuildIssue.Id():      topLevelBuildIssue,
		missingResourceIssue.Id():    missingResourceIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		overlappingOutputsIssue.Id(): overlappingOutputsIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" list of links.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		b.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	return b.String()
}

// Render renders the issue with the given glamour style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

// All returns a copy of the issue registry.
func All() map[Id]*Issue {
	return maps.Clone(issues)
}

// Values returns every known issue ordered by id.
func Values() []*Issue {
	ids := make([]Id, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
