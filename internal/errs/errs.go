// Package errs defines the typed error kinds shared across dash2hlsd's
// pipeline, so callers can distinguish e.g. a missing segment (retry next
// cycle) from a fatal manifest parse failure (transition to error) with
// errors.As instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the broad category of a pipeline error.
type Kind string

const (
	KindConfig     Kind = "ConfigError"
	KindManifest   Kind = "ManifestError"
	KindNetwork    Kind = "NetworkError"
	KindNotFound   Kind = "NotFound"
	KindDecryption Kind = "DecryptionError"
	KindWrite      Kind = "WriteError"
	KindSession    Kind = "SessionError"
)

// Error is the common shape for all typed pipeline errors.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func Config(reason string, err error) *Error     { return newErr(KindConfig, reason, err) }
func Manifest(reason string, err error) *Error   { return newErr(KindManifest, reason, err) }
func Network(reason string, err error) *Error    { return newErr(KindNetwork, reason, err) }
func NotFound(reason string, err error) *Error   { return newErr(KindNotFound, reason, err) }
func Decryption(reason string, err error) *Error { return newErr(KindDecryption, reason, err) }
func Write(reason string, err error) *Error      { return newErr(KindWrite, reason, err) }
func Session(reason string, err error) *Error    { return newErr(KindSession, reason, err) }

// Is reports whether err's chain carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
