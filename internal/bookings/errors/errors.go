package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrListingNotFound = errors.New("listing not found")

	ErrInvalidRange = errors.New("check-in must be before check-out")

	ErrDateConflict = errors.New("dates not available")

	ErrForbidden = errors.New("requester does not own the booking")

	ErrInvalidState = errors.New("booking is not in a state that allows this operation")

	ErrInvalidTransition = errors.New("booking status transition not allowed")

	ErrAlreadyInitiated = errors.New("payment already initiated for this booking")

	ErrGateway = errors.New("payment gateway failure")

	ErrSignatureMismatch = errors.New("payment signature mismatch")

	ErrInvalidSignature = errors.New("invalid webhook signature")
)
