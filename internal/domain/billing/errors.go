package billing

import "errors"

var (
	// ErrDuplicateCreditReference is returned when a credit mutation reuses a
	// reference that is already recorded. Nothing is written in that case.
	ErrDuplicateCreditReference = errors.New("credit reference already recorded")
	ErrInsufficientCredits      = errors.New("insufficient credits")
	ErrInvalidAmount            = errors.New("credit amount must be positive")
	ErrUserNotFound             = errors.New("user not found")
	ErrSubscriptionNotFound     = errors.New("subscription not found")
)
