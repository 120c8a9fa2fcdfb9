package imaging

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Pipeline.NormalizeAndStore is an
// *Error whose Kind is one of these, so callers can switch with errors.Is.
var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrDecode            = errors.New("image could not be decoded")
	ErrEncode            = errors.New("image could not be encoded")
	ErrUploadConflict    = errors.New("storage key already exists")
	ErrStorageTransport  = errors.New("storage unavailable")
	// ErrCleanup never reaches callers; it tags the warning logged when the
	// previous asset could not be removed.
	ErrCleanup = errors.New("previous asset was not removed")
)

// Error reports the stage a pipeline run failed in.
type Error struct {
	Kind  error
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Stage)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message is the text shown to an editor when an upload fails.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "The selected file is not a readable image. Please choose another file."
	case errors.Is(err, ErrEncode):
		return "The image could not be converted. Please try again."
	case errors.Is(err, ErrUploadConflict):
		return "An image with the same name already exists. Please submit again."
	case errors.Is(err, ErrStorageTransport):
		return "The image could not be uploaded. Check the connection and try again."
	default:
		return "The image could not be processed."
	}
}
