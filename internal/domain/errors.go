package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// User errors
	ErrMsgUserNotFound = "user not found"
	ErrMsgUserExists   = "username is already taken"

	// Item errors
	ErrMsgItemNotFound = "item not found"
	ErrMsgNotOwner     = "item is not owned by caller"

	// Economy errors
	ErrMsgInsufficientFunds = "insufficient funds"

	// Marketplace errors
	ErrMsgListingNotFound  = "listing not found"
	ErrMsgAlreadySold      = "listing is no longer active"
	ErrMsgInvalidOperation = "invalid operation"

	// Case errors
	ErrMsgCaseNotFound  = "case not found"
	ErrMsgConfiguration = "invalid case configuration"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// User errors
	ErrUserNotFound = errors.New(ErrMsgUserNotFound)
	ErrUserExists   = errors.New(ErrMsgUserExists)

	// Item errors
	ErrItemNotFound = errors.New(ErrMsgItemNotFound)
	ErrNotOwner     = errors.New(ErrMsgNotOwner)

	// Economy errors
	ErrInsufficientFunds = errors.New(ErrMsgInsufficientFunds)

	// Marketplace errors
	ErrListingNotFound  = errors.New(ErrMsgListingNotFound)
	ErrAlreadySold      = errors.New(ErrMsgAlreadySold)
	ErrInvalidOperation = errors.New(ErrMsgInvalidOperation)

	// Case errors
	ErrCaseNotFound  = errors.New(ErrMsgCaseNotFound)
	ErrConfiguration = errors.New(ErrMsgConfiguration)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
