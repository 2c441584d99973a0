package workflow

import "errors"

var (
	// ErrNoApplicableRule is returned when no configured rule matches an
	// expense; the caller must hold the expense for manual admin review,
	// never auto-approve it
	ErrNoApplicableRule = errors.New("no applicable approval rule")

	// ErrNotPending is returned when a decision targets a terminal or
	// nonexistent expense
	ErrNotPending = errors.New("expense is not pending a decision")

	// ErrUnauthorizedApprover is returned when the acting user is not an
	// eligible approver for the expense's current step
	ErrUnauthorizedApprover = errors.New("user is not an eligible approver for this step")

	// ErrConcurrentModification is returned when an optimistic version check
	// fails on write; callers re-read and retry, the engine never does
	ErrConcurrentModification = errors.New("expense was modified concurrently")

	// ErrInvalidDecision is returned when a decision is neither approved nor rejected
	ErrInvalidDecision = errors.New("invalid decision")
)
