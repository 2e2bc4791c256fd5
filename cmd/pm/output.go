package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nootmuskaat/pm/internal/engine"
	"github.com/nootmuskaat/pm/internal/types"
	"github.com/nootmuskaat/pm/internal/ui"
)

const timeLayout = "2006-01-02 15:04"

var stdout io.Writer = os.Stdout

// outputJSON outputs data as pretty-printed JSON to stdout.
func outputJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// outputJSONError outputs an error as JSON to stderr and exits with code 1.
func outputJSONError(err error, code string) {
	errObj := map[string]string{"error": err.Error()}
	if code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(errObj)
	os.Exit(1)
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func valueOrNone(p *string) string {
	if p == nil {
		return "(none)"
	}
	return *p
}

// resultJSON is the --json shape of an action result.
type resultJSON struct {
	Action  engine.Action     `json:"action"`
	IssueID int64             `json:"issue_id"`
	Issue   *types.Issue      `json:"issue,omitempty"`
	Comment *types.Comment    `json:"comment,omitempty"`
	Updates map[string]string `json:"updates,omitempty"`
}

func toResultJSON(res *engine.Result) resultJSON {
	out := resultJSON{Action: res.Action, IssueID: res.IssueID, Issue: res.Issue, Comment: res.Comment}
	if res.Action == engine.ActionModify {
		out.Updates = map[string]string{}
		for f, v := range res.Updates {
			out.Updates[string(f)] = v
		}
	}
	return out
}

// writeResult prints the one-line summary of an action.
func writeResult(w io.Writer, res *engine.Result) {
	id := ui.RenderID(res.IssueID)
	icon := ui.RenderPass(ui.IconPass)

	switch res.Action {
	case engine.ActionNew:
		fmt.Fprintf(w, "%s Created issue %s: %s\n", icon, id, res.Issue.Title)
	case engine.ActionClose:
		fmt.Fprintf(w, "%s Closed issue %s\n", icon, id)
	case engine.ActionReopen:
		fmt.Fprintf(w, "%s Reopened issue %s\n", icon, id)
	case engine.ActionStatus:
		fmt.Fprintf(w, "%s Issue %s is now %s\n", icon, id, ui.RenderStatus(res.Issue.Status, 0))
	case engine.ActionAssign:
		if res.Issue.AssignedTo == nil {
			fmt.Fprintf(w, "%s Unassigned issue %s\n", icon, id)
		} else {
			fmt.Fprintf(w, "%s Assigned issue %s to %s\n", icon, id, *res.Issue.AssignedTo)
		}
	case engine.ActionComment:
		fmt.Fprintf(w, "%s Commented on issue %s\n", icon, id)
	case engine.ActionCheckout:
		fmt.Fprintf(w, "%s Checked out issue %s\n", icon, id)
	case engine.ActionModify:
		if len(res.Updates) == 0 {
			fmt.Fprintf(w, "%s No title or description changes to issue %s\n", icon, id)
			return
		}
		fields := make([]string, 0, len(res.Updates))
		for f := range res.Updates {
			fields = append(fields, string(f))
		}
		sort.Strings(fields)
		fmt.Fprintf(w, "%s Updated %s of issue %s\n", icon, strings.Join(fields, ", "), id)
	}
	if res.Comment != nil && res.Action != engine.ActionComment {
		fmt.Fprintf(w, "  %s\n", ui.RenderMuted("comment added"))
	}
}

// writeIssueTable prints issues one per line: id, status, assignee, title.
func writeIssueTable(w io.Writer, issues []*types.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found")
		return
	}
	const statusWidth = 11
	for _, issue := range issues {
		assignee := issue.Assignee()
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(w, "%-6s %s  %-12s %s\n",
			ui.RenderID(issue.ID),
			ui.RenderStatus(issue.Status, statusWidth),
			ui.TruncateSimple(assignee, 12),
			issue.Title,
		)
	}
}

// writeIssueSummary prints the header block of an issue.
func writeIssueSummary(w io.Writer, issue *types.Issue) {
	fmt.Fprintf(w, "%s %s\n", ui.RenderID(issue.ID), ui.RenderHeader(issue.Title))
	fmt.Fprintf(w, "Status:   %s\n", ui.RenderStatus(issue.Status, 0))
	fmt.Fprintf(w, "Assignee: %s\n", valueOrNone(issue.AssignedTo))
	fmt.Fprintf(w, "Created:  %s by %s\n", formatTime(issue.CreatedTime), issue.CreatedBy)
	if issue.ClosedTime != nil {
		fmt.Fprintf(w, "Closed:   %s\n", formatTime(*issue.ClosedTime))
	}
	if len(issue.Tags) > 0 {
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(issue.Tags, ", "))
	}
}

// writeDetails prints an issue with its description, comments and history.
func writeDetails(w io.Writer, d *types.IssueDetails) {
	writeIssueSummary(w, d.Issue)

	if desc := d.Issue.DescriptionText(); desc != "" {
		fmt.Fprintf(w, "\n%s\n", ui.Indent(ui.WrapText(desc, ui.TerminalWidth(80)-2), "  "))
	}

	if len(d.Comments) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderHeader("Comments"))
		for _, c := range d.Comments {
			fmt.Fprintf(w, "  [%s] at %s\n", c.CreatedBy, formatTime(c.CreatedTime))
			fmt.Fprintf(w, "%s\n", ui.Indent(c.Text, "    "))
		}
	}

	if len(d.History) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderHeader("History"))
		writeHistory(w, d.History)
	}
}

// writeHistory prints ledger records, oldest first.
func writeHistory(w io.Writer, records []*types.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No history")
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "  %s  %s  %s: %s -> %s\n",
			ui.RenderMuted(formatTime(r.Timestamp)),
			r.Username,
			r.Field,
			valueOrNone(r.OldValue),
			valueOrNone(r.NewValue),
		)
	}
}
