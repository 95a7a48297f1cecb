// Package errors provides error handling for pystub.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints attached to failures
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap a sentinel with context
//	return errors.Wrapf(errors.ErrUnmappedType, "chan int")
//
//	// Add hints for users
//	return errors.WithHint(err, "declare the type as a class")
//
//	// Check errors
//	if errors.Is(err, errors.ErrUnmappedType) {
//	    // report the offending type
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// AssertionFailedf reports an internal invariant violation.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors for stub generation.
// Use these with errors.Is() and wrap them with errors.Wrap() to add context.
var (
	// ErrUnmappedType indicates a type at a typed position has no Python mapping
	ErrUnmappedType = New("unmapped type")

	// ErrMalformedTypeInfo indicates a resolved annotation that cannot be rendered
	ErrMalformedTypeInfo = New("malformed type info")

	// ErrFrozenMutableRef indicates a mutable reference to a frozen class
	ErrFrozenMutableRef = New("mutable reference to frozen class")

	// ErrInvalidDescription indicates a module description that fails validation
	ErrInvalidDescription = New("invalid module description")

	// ErrRegistryFrozen indicates a registration after the registry was frozen
	ErrRegistryFrozen = New("registry is frozen")

	// ErrStale indicates generated stubs differ from what is on disk
	ErrStale = New("stubs are out of date")
)

// IsUnmappedType checks if an error is or wraps ErrUnmappedType
func IsUnmappedType(err error) bool {
	return err != nil && Is(err, ErrUnmappedType)
}

// IsMalformedTypeInfo checks if an error is or wraps ErrMalformedTypeInfo
func IsMalformedTypeInfo(err error) bool {
	return err != nil && Is(err, ErrMalformedTypeInfo)
}

// NewUnmappedTypeError reports the offending type expression.
func NewUnmappedTypeError(typeName string) error {
	return Wrapf(ErrUnmappedType, "%s", typeName)
}

// NewMalformedError creates a malformed-type-info error with a formatted message
func NewMalformedError(format string, args ...interface{}) error {
	return Wrap(ErrMalformedTypeInfo, Newf(format, args...).Error())
}

// NewInvalidDescriptionError creates an invalid-description error with a formatted message
func NewInvalidDescriptionError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidDescription, Newf(format, args...).Error())
}
