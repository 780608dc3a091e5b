// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package params

import (
	"github.com/juju/errors"

	aaaerrors "github.com/canonical/aaacfg/domain/aaa/errors"
)

// Error is the wire form of an error. Code identifies well known
// failures so that clients can translate them back into the errors
// they were raised as.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) ErrorCode() string {
	return e.Code
}

// ErrorResult wraps an optional error. Streaming endpoints send one
// as their first frame so clients know the stream is established
// before anything can be missed.
type ErrorResult struct {
	Error *Error `json:"error,omitempty"`
}

// The well known codes carried by Error.Code.
const (
	CodeUnknownIdentifier = "unknown identifier"
	CodeUnknownToken      = "unknown token"
	CodeMalformedValue    = "malformed value"
	CodeInvalidSection    = "invalid section"
	CodeNotValid          = "not valid"
	CodeBadRequest        = "bad request"
	CodeNotFound          = "not found"
)

// ErrCode returns the code of the underlying error, or the empty
// string when the error carries none.
func ErrCode(err error) string {
	type ErrorCoder interface {
		ErrorCode() string
	}
	switch err := errors.Cause(err).(type) {
	case ErrorCoder:
		return err.ErrorCode()
	default:
		return ""
	}
}

// TranslateWellKnownError restores a coded wire error to the error it
// was raised as on the server, so that errors.Is works across the API
// boundary. Errors without a well known code pass through unchanged.
func TranslateWellKnownError(err error) error {
	switch ErrCode(err) {
	case CodeUnknownIdentifier:
		return errors.WithType(err, aaaerrors.UnknownIdentifier)
	case CodeUnknownToken:
		return errors.WithType(err, aaaerrors.UnknownToken)
	case CodeMalformedValue:
		return errors.WithType(err, aaaerrors.MalformedValue)
	case CodeInvalidSection:
		return errors.WithType(err, aaaerrors.InvalidSection)
	case CodeNotValid:
		return errors.WithType(err, errors.NotValid)
	case CodeBadRequest:
		return errors.WithType(err, errors.BadRequest)
	case CodeNotFound:
		return errors.WithType(err, errors.NotFound)
	}
	return err
}
