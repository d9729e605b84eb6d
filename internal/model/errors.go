package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies why a batch was rejected.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindParse             // payload is not readable tabular data
	KindSchema            // a present required feature failed coercion
	KindCompute           // unexpected failure deriving or encoding features
	KindClassification    // the classifier failed or returned garbage
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindCompute:
		return "compute"
	case KindClassification:
		return "classification"
	default:
		return "unknown"
	}
}

// Status maps the kind to an HTTP status code. Parse and schema failures are
// the caller's fault; everything else is ours.
func (k ErrorKind) Status() int {
	switch k {
	case KindParse, KindSchema:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error rejects a whole batch. Msg is safe to show to the caller.
type Error struct {
	Kind     ErrorKind
	Msg      string
	Features []string // offending features for KindSchema
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if len(e.Features) > 0 {
		fmt.Fprintf(&b, ": %v", e.Features)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ParseError reports an unreadable batch payload.
func ParseError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Msg: fmt.Sprintf(format, args...), Err: err}
}

// SchemaError reports required features that could not be resolved.
func SchemaError(features []string, format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Msg: fmt.Sprintf(format, args...), Features: features}
}

// ComputeError reports an unexpected derivation failure.
func ComputeError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindCompute, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ClassificationError reports a classifier failure.
func ClassificationError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindClassification, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
