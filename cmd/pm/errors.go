package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nootmuskaat/pm/internal/engine"
)

// FatalError writes an error message to stderr and exits with code 1.
func FatalError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
func WarnError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// checkError is the single exit point for engine errors. It prints the
// message (as JSON with --json) plus a hint when one applies, then exits.
func checkError(err error) {
	if err == nil {
		return
	}
	closeStore()
	if jsonOutput {
		outputJSONError(err, errorCode(err))
	}
	if hint := errorHint(err); hint != "" {
		FatalErrorWithHint(err.Error(), hint)
	}
	FatalError("%v", err)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrMissingIssueID):
		return "missing_issue_id"
	case errors.Is(err, engine.ErrInvalidIssue):
		return "invalid_issue"
	case errors.Is(err, engine.ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, engine.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, engine.ErrUnreadableEdit):
		return "unreadable_edit"
	case errors.Is(err, engine.ErrEditorFailed):
		return "editor_failed"
	case errors.Is(err, engine.ErrNotFound):
		return "not_found"
	case errors.Is(err, engine.ErrStorage):
		return "storage"
	}
	return ""
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, engine.ErrMissingIssueID):
		return "pass an issue id or run 'pm checkout <id>' first"
	case errors.Is(err, engine.ErrUnreadableEdit):
		return "keep the [title], [description] and [tags] lines in place and the title non-empty"
	case errors.Is(err, engine.ErrEditorFailed):
		return "set $VISUAL, $EDITOR or the 'editor' config key"
	}
	return ""
}
