package services

import (
	"errors"

	apierrors "casecount/internal/errors"
)

// Service errors
var (
	// ErrResultNotFound is returned for unknown or expired tokens.
	ErrResultNotFound = apierrors.ErrResultNotFound

	// ErrStoreClosed is returned by Put after Close.
	ErrStoreClosed = errors.New("result store is closed")

	// ErrStoreDisabled is returned by Put when the store has no capacity.
	ErrStoreDisabled = errors.New("result store has zero capacity")
)
