// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues_OrderedAndComplete(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(All()) {
		t.Fatalf("Values() has %d issues, registry has %d", len(values), len(All()))
	}
	for i, issue := range values {
		if want := Id(i + 1); issue.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), want)
		}
		if strings.TrimSpace(string(issue.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no message", issue.Id())
		}
	}
	if Get(PermissionDeniedId) == nil {
		t.Error("last declared id is not registered")
	}
	if Get(Id(999)) != nil {
		t.Error("Get() of an unknown id should be nil")
	}
}

func TestIssue_Markdown(t *testing.T) {
	t.Parallel()

	withLinks := Get(MissingResourceId).Markdown()
	if !strings.Contains(withLinks, "## See also:") || !strings.Contains(withLinks, string(BugReportURL)) {
		t.Errorf("Markdown() should list the bug report link:\n%s", withLinks)
	}

	noLinks := Get(TopLevelBuildId).Markdown()
	if strings.Contains(noLinks, "See also") {
		t.Errorf("Markdown() without links should not have a See also section:\n%s", noLinks)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	t.Parallel()

	issue := Get(CatalogNotReadyId)
	links := issue.ExtLinks()
	links[0] = "mutated"
	if issue.ExtLinks()[0] != BugReportURL {
		t.Error("ExtLinks() must return a copy")
	}
	if len(issue.DocLinks()) != 0 {
		t.Error("DocLinks() should be empty")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	for _, issue := range Values() {
		rendered, err := issue.Render("notty")
		if err != nil {
			t.Fatalf("issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("issue %d rendered to empty string", issue.Id())
		}
	}
}
