package model

import "errors"

var (
	// ErrOTPNotFound is returned when no live verification code exists for
	// an email (never issued, or expired)
	ErrOTPNotFound = errors.New("otp not found or expired")

	// ErrOTPMismatch is returned when the submitted code is wrong
	ErrOTPMismatch = errors.New("invalid otp")

	// ErrEmailAlreadyVerified is returned when resending a code for a
	// verified account
	ErrEmailAlreadyVerified = errors.New("email already verified")
)
