package booking

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrTrainerNotFound  = errors.New("trainer not found or not verified")
	ErrNoActiveServices = errors.New("trainer has no active services")
	ErrTimeConflict     = errors.New("session time conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidStatus    = errors.New("unknown status value")
	ErrAlreadyFinished  = errors.New("booking already cancelled or completed")
	ErrReasonRequired   = errors.New("cancellation reason required")
)
