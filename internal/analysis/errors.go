package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tags where an attempt failed.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindService    ErrorKind = "service"
)

const (
	MsgAnalysisFailed = "Analysis failed. Please try again."
	MsgNetworkError   = "Network error. Please try again."
	MsgTimedOut       = "Analysis timed out. Please try again."
)

var (
	ErrUnknownExercise = errors.New("unknown exercise")
	ErrSubmitting      = errors.New("analysis in progress")
	ErrResetRequired   = errors.New("analysis complete; reset before selecting another file")
	ErrClosed          = errors.New("controller closed")
)

// Error is a failure that has been converted into something a user can read.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func httpStatusError(code int, body string) *Error {
	var err error
	if body != "" {
		err = fmt.Errorf("response body: %s", body)
	}
	return &Error{
		Kind:       KindService,
		Message:    fmt.Sprintf("Server error: %d", code),
		StatusCode: code,
		Err:        err,
	}
}

func serviceFailure(code int, err error) *Error {
	return &Error{Kind: KindService, Message: MsgAnalysisFailed, StatusCode: code, Err: err}
}

func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransport, Message: MsgTimedOut, Err: err}
	}
	msg := ""
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	if msg == "" {
		msg = MsgNetworkError
	}
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

// normalize turns anything an Analyzer returns into an *Error.
func normalize(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return transportError(err)
}
