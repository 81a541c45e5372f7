// Package apperr defines the failure kinds reported by the quiz pipeline.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindExtraction Kind = "ExtractionError"
	KindAuth       Kind = "AuthError"
	KindAPI        Kind = "ApiError"
	KindParse      Kind = "ParseError"
)

var (
	// ErrMissingAPIKey is wrapped by AuthError when no credential was supplied.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrInvalidArgument marks caller input outside the accepted range.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error is a terminal pipeline failure. Raw carries the model response prefix
// for parse failures.
type Error struct {
	Kind Kind
	Err  error
	Raw  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, Auth(nil))
// style checks work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil
}

func Extraction(err error) *Error { return &Error{Kind: KindExtraction, Err: err} }

func Auth(err error) *Error { return &Error{Kind: KindAuth, Err: err} }

func API(err error) *Error { return &Error{Kind: KindAPI, Err: err} }

func Parse(err error, raw string) *Error { return &Error{Kind: KindParse, Err: err, Raw: raw} }

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
