package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nootmuskaat/pm/internal/config"
	"github.com/nootmuskaat/pm/internal/engine"
	"github.com/nootmuskaat/pm/internal/types"
	"github.com/nootmuskaat/pm/internal/ui"
)

// TestMain runs the package away from any .pm directory or user config.
func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "pm-cmd-tests-*")
	if err != nil {
		panic(err)
	}
	_ = os.Chdir(tmp)
	_ = os.Setenv("HOME", tmp)
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg-config"))
	if err := config.Initialize(); err != nil {
		panic(err)
	}
	ui.DisableColor()

	code := m.Run()
	_ = os.RemoveAll(tmp)
	os.Exit(code)
}

var created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleIssue() *types.Issue {
	return &types.Issue{
		ID:          3,
		Title:       "Fix login",
		Description: types.StringPtr("Users cannot log in"),
		Status:      types.StatusOpen,
		CreatedBy:   "alice",
		CreatedTime: created,
		Tags:        []string{"auth", "bug"},
	}
}

func TestWriteResult(t *testing.T) {
	issue := sampleIssue()
	assigned := sampleIssue()
	assigned.AssignedTo = types.StringPtr("bob")

	tests := []struct {
		name string
		res  *engine.Result
		want string
	}{
		{"new", &engine.Result{Action: engine.ActionNew, IssueID: 3, Issue: issue}, "✓ Created issue #3: Fix login\n"},
		{"close", &engine.Result{Action: engine.ActionClose, IssueID: 3, Issue: issue}, "✓ Closed issue #3\n"},
		{"reopen", &engine.Result{Action: engine.ActionReopen, IssueID: 3, Issue: issue}, "✓ Reopened issue #3\n"},
		{"status", &engine.Result{Action: engine.ActionStatus, IssueID: 3, Issue: issue}, "✓ Issue #3 is now open\n"},
		{"assign", &engine.Result{Action: engine.ActionAssign, IssueID: 3, Issue: assigned}, "✓ Assigned issue #3 to bob\n"},
		{"unassign", &engine.Result{Action: engine.ActionAssign, IssueID: 3, Issue: issue}, "✓ Unassigned issue #3\n"},
		{"comment", &engine.Result{Action: engine.ActionComment, IssueID: 3, Comment: &types.Comment{Text: "x"}}, "✓ Commented on issue #3\n"},
		{"checkout", &engine.Result{Action: engine.ActionCheckout, IssueID: 3}, "✓ Checked out issue #3\n"},
		{"modify nothing", &engine.Result{Action: engine.ActionModify, IssueID: 3, Updates: map[types.Field]string{}},
			"✓ No title or description changes to issue #3\n"},
		{"modify fields", &engine.Result{Action: engine.ActionModify, IssueID: 3, Updates: map[types.Field]string{
			types.FieldTitle: "a", types.FieldDescription: "b"}},
			"✓ Updated description, title of issue #3\n"},
		{"close with comment", &engine.Result{Action: engine.ActionClose, IssueID: 3, Issue: issue, Comment: &types.Comment{Text: "done"}},
			"✓ Closed issue #3\n  comment added\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeResult(&buf, tt.res)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestToResultJSON(t *testing.T) {
	res := &engine.Result{Action: engine.ActionModify, IssueID: 3, Updates: map[types.Field]string{types.FieldTitle: "New"}}
	out := toResultJSON(res)
	assert.Equal(t, map[string]string{"title": "New"}, out.Updates)

	out = toResultJSON(&engine.Result{Action: engine.ActionClose, IssueID: 3})
	assert.Nil(t, out.Updates)
}

func TestWriteIssueTable(t *testing.T) {
	var buf bytes.Buffer
	writeIssueTable(&buf, nil)
	assert.Equal(t, "No issues found\n", buf.String())

	buf.Reset()
	second := sampleIssue()
	second.ID = 12
	second.Title = "Second"
	second.Status = types.StatusInProgress
	second.AssignedTo = types.StringPtr("bob")
	writeIssueTable(&buf, []*types.Issue{sampleIssue(), second})

	assert.Equal(t,
		"#3     open         -            Fix login\n"+
			"#12    in_progress  bob          Second\n",
		buf.String())
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	writeHistory(&buf, nil)
	assert.Equal(t, "No history\n", buf.String())

	buf.Reset()
	writeHistory(&buf, []*types.HistoryRecord{
		{Username: "bob", Timestamp: created, Field: types.FieldStatus, OldValue: types.StringPtr("open"), NewValue: types.StringPtr("closed")},
		{Username: "bob", Timestamp: created, Field: types.FieldAssignedTo, NewValue: types.StringPtr("carol")},
	})
	ts := created.Local().Format(timeLayout)
	assert.Equal(t,
		"  "+ts+"  bob  status: open -> closed\n"+
			"  "+ts+"  bob  assigned_to: (none) -> carol\n",
		buf.String())
}

func TestWriteDetails(t *testing.T) {
	d := &types.IssueDetails{
		Issue: sampleIssue(),
		Comments: []*types.Comment{
			{CreatedBy: "bob", CreatedTime: created, Text: "on it"},
		},
		History: []*types.HistoryRecord{
			{Username: "bob", Timestamp: created, Field: types.FieldStatus, OldValue: types.StringPtr("open"), NewValue: types.StringPtr("in_progress")},
		},
	}

	var buf bytes.Buffer
	writeDetails(&buf, d)
	out := buf.String()

	assert.Contains(t, out, "#3 Fix login\n")
	assert.Contains(t, out, "Status:   open\n")
	assert.Contains(t, out, "Assignee: (none)\n")
	assert.Contains(t, out, "Tags:     auth, bug\n")
	assert.Contains(t, out, "  Users cannot log in\n")
	assert.Contains(t, out, "Comments\n  [bob] at ")
	assert.Contains(t, out, "    on it\n")
	assert.Contains(t, out, "History\n")
	assert.Contains(t, out, "status: open -> in_progress")
	assert.NotContains(t, out, "Closed:")
}
