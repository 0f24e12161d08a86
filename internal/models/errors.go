package models

import "errors"

// Error kinds surfaced by the engine. Callers match them with errors.Is; the
// wrapped message carries the specifics.
var (
	// ErrInvalidAllocation means a splitting policy precondition was violated.
	ErrInvalidAllocation = errors.New("invalid allocation")

	// ErrLockedForEditing means the expense is fully paid and can no longer change.
	ErrLockedForEditing = errors.New("expense is locked for editing")

	// ErrResourceNotFound means a referenced share, expense, payment or member does
	// not exist or does not belong to the expected group.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrReconciliationDrift means allocated shares do not add up to the expense
	// amount within the reconciliation epsilon.
	ErrReconciliationDrift = errors.New("reconciliation drift")

	// ErrInvalidTransition means a payment cannot move to the requested status.
	ErrInvalidTransition = errors.New("invalid payment transition")

	// ErrInvalidArgument means a request field is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)
