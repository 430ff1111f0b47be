package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAccountBanned      = errors.New("account banned")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrEmailNotVerified   = errors.New("email not verified")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token reuse detected")

	ErrRateLimitExceeded             = errors.New("resend cooldown not expired")
	ErrInvalidVerificationCode       = errors.New("invalid verification code")
	ErrInvalidVerificationCodeFormat = errors.New("verification code must be 6 digits")
	ErrTooManyAttempts               = errors.New("too many verification attempts")
)
