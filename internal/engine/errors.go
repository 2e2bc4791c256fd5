package engine

import (
	"errors"

	"github.com/nootmuskaat/pm/internal/editsurface"
	"github.com/nootmuskaat/pm/internal/storage"
)

// Domain errors. Operations wrap these with context; match with errors.Is.
var (
	// ErrMissingIssueID means no issue id was given and none is checked out.
	ErrMissingIssueID = errors.New("please provide an issue id or check one out")

	// ErrInvalidIssue means an explicit issue id does not exist.
	ErrInvalidIssue = errors.New("invalid issue id")

	// ErrMissingParameter means a parameter required by the action is absent.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidParameter means a parameter value is outside its allowed set.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnreadableEdit means the edited text no longer follows the template.
	ErrUnreadableEdit = editsurface.ErrUnreadable

	// ErrEditorFailed means the editor could not be run or its buffer read.
	ErrEditorFailed = errors.New("editor failed")

	// ErrNotFound means an update or append targeted a missing row.
	ErrNotFound = storage.ErrNotFound

	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage error")

	// ErrUnknownAction is returned by ParseAction and Dispatch.
	ErrUnknownAction = errors.New("unknown action")
)

// StorageError reports a statement the underlying store rejected. Its
// message is the driver's message, unchanged.
type StorageError struct {
	Action Action
	Err    error
}

func (e *StorageError) Error() string { return e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) true for every StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// domainErrors are returned from operations unchanged.
var domainErrors = []error{
	ErrMissingIssueID,
	ErrInvalidIssue,
	ErrMissingParameter,
	ErrInvalidParameter,
	ErrUnreadableEdit,
	ErrEditorFailed,
	ErrNotFound,
	ErrUnknownAction,
}

// classify wraps any error that is not a domain error in a StorageError.
func classify(action Action, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Action: action, Err: err}
}
