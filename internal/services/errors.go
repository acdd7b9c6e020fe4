// Package services defines the business logic for accounts, credits,
// content generation, and payment settlement. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Account and authentication errors.
var (
	// ErrEmailTaken is returned when a signup uses an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on signin when the email is unknown
	// or the password does not match. The two cases are deliberately not
	// distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// Credit and generation errors.
var (
	// ErrInsufficientCredits is returned when a debit would take the
	// balance below zero.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrEmptyPrompt is returned when a generation request contains an
	// empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a prompt exceeds the maximum configured
	// length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrInvalidAction is returned when a content request names an action
	// outside the fixed action table.
	ErrInvalidAction = errors.New("unknown action")

	// ErrGenerationNotFound indicates that the requested generation record
	// does not exist or is not accessible to the current user.
	ErrGenerationNotFound = errors.New("generation not found")
)

// Payment errors.
var (
	// ErrInvalidPackage is returned when an order names an unknown credit
	// package.
	ErrInvalidPackage = errors.New("unknown credit package")

	// ErrOrderNotFound indicates that the referenced payment order does not
	// exist or belongs to another account.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidSignature is returned when a settlement signature fails
	// HMAC verification. The order is marked failed.
	ErrInvalidSignature = errors.New("payment signature verification failed")

	// ErrAlreadyProcessed is returned when a settlement arrives for an
	// order that already reached a terminal state. No credits move.
	ErrAlreadyProcessed = errors.New("order already processed")
)
