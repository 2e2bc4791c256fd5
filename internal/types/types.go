// Package types defines core data structures for the pm issue tracker.
package types

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTitle is used when an issue is created without a title.
const DefaultTitle = "untitled issue"

// UnassignSentinel is the assignee value that clears an assignment.
const UnassignSentinel = "-"

// Issue represents a trackable work item
type Issue struct {
	ID          int64      `json:"issue_id" yaml:"issue_id" toml:"issue_id"`
	Title       string     `json:"title" yaml:"title" toml:"title"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status" toml:"status"`
	Closed      bool       `json:"closed" yaml:"closed" toml:"closed"`
	ClosedTime  *time.Time `json:"closed_time,omitempty" yaml:"closed_time,omitempty" toml:"closed_time,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty" toml:"assigned_to,omitempty"`
	CreatedBy   string     `json:"created_by" yaml:"created_by" toml:"created_by"`
	CreatedTime time.Time  `json:"created_time" yaml:"created_time" toml:"created_time"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"` // Not populated by ListIssues
}

// DescriptionText returns the description or "" when unset.
func (i *Issue) DescriptionText() string {
	if i.Description == nil {
		return ""
	}
	return *i.Description
}

// Assignee returns the assignee or "" when unassigned.
func (i *Issue) Assignee() string {
	if i.AssignedTo == nil {
		return ""
	}
	return *i.AssignedTo
}

// Validate checks the issue for consistency before it is written.
//
// The closed flag, closed time and status must agree: an issue is closed
// exactly when its status is closed, and only closed issues carry a
// closed time.
func (i *Issue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if i.Closed != (i.Status == StatusClosed) {
		return fmt.Errorf("closed flag (%v) disagrees with status %s", i.Closed, i.Status)
	}
	if i.Closed != (i.ClosedTime != nil) {
		return fmt.Errorf("closed issues must have closed_time; non-closed issues cannot")
	}
	return nil
}

// SetDefaults fills zero-valued fields with their defaults.
//
//   - Title: DefaultTitle
//   - Status: StatusOpen
func (i *Issue) SetDefaults() {
	if i.Title == "" {
		i.Title = DefaultTitle
	}
	if i.Status == "" {
		i.Status = StatusOpen
	}
}

// Status represents the current state of an issue
type Status string

// Issue status constants
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusPending    Status = "pending"
	StatusClosed     Status = "closed"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusPending, StatusClosed}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPending, StatusClosed:
		return true
	}
	return false
}

// ParseStatus normalizes user input into a Status.
// "in progress" and "in-progress" are accepted as spellings of in_progress.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	st := Status(norm)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid status %q (valid: open, in_progress, pending, closed)", s)
	}
	return st, nil
}

// Field names a mutable or readable issue attribute. The set is closed:
// storage maps each Field to a fixed column name and never builds SQL
// identifiers from anything else.
type Field string

// Issue fields
const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldClosed      Field = "closed"
	FieldClosedTime  Field = "closed_time"
	FieldAssignedTo  Field = "assigned_to"
	FieldCreatedBy   Field = "created_by"
	FieldTags        Field = "tags"
)

// HistoryRecord is an immutable audit entry for one field change.
type HistoryRecord struct {
	ID        int64     `json:"id" yaml:"id" toml:"id"`
	IssueID   int64     `json:"issue_id" yaml:"issue_id" toml:"issue_id"`
	Username  string    `json:"username" yaml:"username" toml:"username"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp" toml:"timestamp"`
	Field     Field     `json:"field" yaml:"field" toml:"field"`
	OldValue  *string   `json:"old_value" yaml:"old_value" toml:"old_value,omitempty"`
	NewValue  *string   `json:"new_value" yaml:"new_value" toml:"new_value,omitempty"`
}

// Comment represents a comment on an issue
type Comment struct {
	ID          int64     `json:"comment_id" yaml:"comment_id" toml:"comment_id"`
	IssueID     int64     `json:"issue_id" yaml:"issue_id" toml:"issue_id"`
	CreatedBy   string    `json:"created_by" yaml:"created_by" toml:"created_by"`
	CreatedTime time.Time `json:"created_time" yaml:"created_time" toml:"created_time"`
	Text        string    `json:"comment" yaml:"comment" toml:"comment"`
}

// IssueFilter is used to filter issue queries
type IssueFilter struct {
	Status        *Status
	IncludeClosed bool
	AssignedTo    *string
	Tags          []string // AND semantics: issue must have ALL these tags
	CreatedAfter  *time.Time
	Limit         int
}

// IssueDetails bundles an issue with its tags, comments and history.
type IssueDetails struct {
	Issue    *Issue           `json:"issue" yaml:"issue" toml:"issue"`
	Comments []*Comment       `json:"comments" yaml:"comments" toml:"comments"`
	History  []*HistoryRecord `json:"history" yaml:"history" toml:"history"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
