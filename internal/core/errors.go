// Package core defines the fundamental types and errors for Haven.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Storage errors
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrProfileNotFound      = errors.New("profile not found")

	// Completion errors
	ErrCompletionFailed = errors.New("completion service failed")
	ErrEmptyCompletion  = errors.New("completion service returned no text")

	// Analysis errors
	ErrAnalysisUnparsable = errors.New("analysis output could not be parsed")

	// Auth errors
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid session token")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
