package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"copyshot/src/capture"
	"copyshot/src/geometry"
	"copyshot/src/ocr"
)

// Kind classifies a capture failure.
type Kind int

const (
	Failure Kind = iota
	Busy
	PermissionDenied
	DisplayMismatch
	StreamStartFailure
	FrameTimeout
	OCREngineFailure
	UserCancelled
)

func (k Kind) String() string {
	switch k {
	case Busy:
		return "busy"
	case PermissionDenied:
		return "permission denied"
	case DisplayMismatch:
		return "display mismatch"
	case StreamStartFailure:
		return "stream start failure"
	case FrameTimeout:
		return "frame timeout"
	case OCREngineFailure:
		return "OCR engine failure"
	case UserCancelled:
		return "cancelled"
	default:
		return "failure"
	}
}

// Error is the typed result of a failed Capture.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrBusy) works
// regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrBusy               = &Error{Kind: Busy}
	ErrPermissionDenied   = &Error{Kind: PermissionDenied}
	ErrDisplayMismatch    = &Error{Kind: DisplayMismatch}
	ErrStreamStartFailure = &Error{Kind: StreamStartFailure}
	ErrFrameTimeout       = &Error{Kind: FrameTimeout}
	ErrOCREngineFailure   = &Error{Kind: OCREngineFailure}
	ErrUserCancelled      = &Error{Kind: UserCancelled}
)

// KindOf returns the Kind of err, or Failure for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Failure
}

func fail(k Kind, err error) *Error { return &Error{Kind: k, Err: err} }

// classify maps a stage error onto the taxonomy.
func classify(err error) *Error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, capture.ErrCancelled), errors.Is(err, context.Canceled):
		return fail(UserCancelled, err)
	case errors.Is(err, capture.ErrPermissionDenied):
		return fail(PermissionDenied, err)
	case errors.Is(err, geometry.ErrDisplayMismatch):
		return fail(DisplayMismatch, err)
	case errors.Is(err, capture.ErrStreamStart):
		return fail(StreamStartFailure, err)
	case errors.Is(err, capture.ErrFrameTimeout):
		return fail(FrameTimeout, err)
	case errors.Is(err, ocr.ErrEngine):
		return fail(OCREngineFailure, err)
	default:
		return fail(Failure, err)
	}
}
