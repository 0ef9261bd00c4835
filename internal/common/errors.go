// Package common defines shared constants and sentinel errors used across
// the VAT server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorAlreadyExists = errors.New("already exists")

	// Input shape errors. Every error below wraps ErrorValidation.
	ErrorValidation        = errors.New("validation error")
	ErrUnsupportedFormat   = fmt.Errorf("%w: unsupported file format", ErrorValidation)
	ErrFileTooLarge        = fmt.Errorf("%w: file too large", ErrorValidation)
	ErrEmptyFile           = fmt.Errorf("%w: empty file", ErrorValidation)
	ErrTextUnavailable     = fmt.Errorf("%w: transcription text unavailable", ErrorValidation)
	ErrUnknownStatus       = fmt.Errorf("%w: unknown status", ErrorValidation)
	ErrUnknownAnalysisType = fmt.Errorf("%w: unknown analysis type", ErrorValidation)
	ErrNotReady            = fmt.Errorf("%w: not completed yet", ErrorValidation)

	// Identity assertion failed signature or shape checks.
	ErrInvalidIdentity = errors.New("invalid identity assertion")
	ErrInvalidToken    = errors.New("invalid token")

	// External collaborators.
	ErrDispatchFailure = errors.New("dispatch failure")
	ErrStorage         = errors.New("storage error")

	// A terminal work item was asked to move to a different terminal state.
	ErrTerminalState = errors.New("status already terminal")
)
