package core

import "errors"

// Error kinds surfaced by the stats engine. Callers classify failures with errors.Is.
var (
	// ErrInvalidInput is returned before any ledger query is issued.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollaboratorFailure covers an unreachable, slow or misbehaving ledger store.
	ErrCollaboratorFailure = errors.New("ledger store failure")

	// ErrComputation marks a report that violates its own invariants. It is a defect.
	ErrComputation = errors.New("computation error")
)
