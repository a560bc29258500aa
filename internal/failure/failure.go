// Package failure defines the error taxonomy shared by the card identification
// pipeline.
//
// Every error raised by a pipeline stage is a *Error carrying a Code. Fatal codes
// (INVALID_IMAGE, TEMPLATE_LOAD_FAILED) are returned to the caller; the remaining
// codes are recoverable and are folded into the identification result as
// warnings instead of aborting the run.
package failure

import (
	"errors"
	"fmt"
)

// Code identifies the class of a pipeline failure.
type Code string

const (
	// InvalidImage means the input bytes could not be decoded as an image.
	InvalidImage Code = "INVALID_IMAGE"

	// TemplateLoad means the template directory is missing or unreadable.
	TemplateLoad Code = "TEMPLATE_LOAD_FAILED"

	// InvalidRegion means a region box produced an empty area.
	InvalidRegion Code = "INVALID_REGION"

	// OCRFailed means the text recognition engine failed.
	OCRFailed Code = "OCR_FAILED"

	// SearchFailed means the marketplace search failed or timed out.
	SearchFailed Code = "SEARCH_FAILED"
)

// Fatal reports whether a failure of this class must abort an identification.
func (c Code) Fatal() bool {
	return c == InvalidImage || c == TemplateLoad
}

// Error is a classified pipeline error.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code, so errors.Is(err,
// &failure.Error{Code: failure.OCRFailed}) works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ToMap flattens the error for JSON responses and log attributes.
func (e *Error) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"code":    string(e.Code),
		"message": e.Message,
	}
	for k, v := range e.Details {
		out[k] = v
	}
	if e.Cause != nil {
		out["cause"] = e.Cause.Error()
	}
	return out
}

// New creates a classified error.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Newf creates a classified error with a formatted message and no cause.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// With attaches a detail key to the error and returns it.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
