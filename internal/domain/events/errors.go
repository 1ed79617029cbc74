package events

import "fmt"

// User-facing validation messages.
const (
	MsgNameRequired  = "The event name is required!"
	MsgDateRequired  = "The event date with the correct format is required! The correct format is YYYY-MM-DD!"
	MsgStartInvalid  = "The start_time must be a date with the correct format! The correct format is YYYY-MM-DD!"
	MsgEndInvalid    = "The end_time must be a date with the correct format! The correct format is YYYY-MM-DD!"
	MsgEndRequired   = "The end_time is required when start_time is given! The correct format is YYYY-MM-DD!"
	MsgInvalidBody   = "The request body must be a JSON object or a form!"
	MsgEventNotFound = "The event doesn't exist!"
)

// ValidationError reports a missing or malformed request field.
// Error returns the user-facing message unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return e.Message
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage returns nil for a nil err, otherwise a *StorageError for op.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
