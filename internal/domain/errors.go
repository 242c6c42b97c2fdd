package domain

import "errors"

// Error taxonomy shared by the service and api layers. Callers match with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrNotFoundOrForbidden = errors.New("not found or not permitted")
	ErrConflict            = errors.New("conflict")
	ErrInvalidTransition   = errors.New("invalid lease status transition")
	ErrInvalidLease        = errors.New("invalid or inactive lease")
	ErrGateway             = errors.New("payment gateway error")
	ErrNoActiveLease       = errors.New("no active lease")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrImmutablePayment    = errors.New("completed payments cannot be modified")
)
