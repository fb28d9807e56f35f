/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errs defines the error kinds surfaced by the anoncreds engines.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	Validation
	Conversion
	CredentialIssuance
	CredentialProcessing
	PresentationCreation
	Verification
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "ValidationError"
	case Conversion:
		return "ConversionError"
	case CredentialIssuance:
		return "CredentialIssuanceError"
	case CredentialProcessing:
		return "CredentialProcessingError"
	case PresentationCreation:
		return "PresentationCreationError"
	case Verification:
		return "VerificationError"
	default:
		return "UnknownError"
	}
}

// Error carries a Kind and the underlying cause.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.cause.Error())
}

func (e *Error) Cause() error {
	return e.cause
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap annotates err and tags it with kind. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, cause: errors.Wrap(err, msg)}
}

// Wrapf is Wrap with a format string.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, cause: errors.Wrapf(err, format, args...)}
}

// KindOf returns the outermost kind found in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
