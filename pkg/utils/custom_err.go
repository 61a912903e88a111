package utils

import "errors"

var (
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
	ErrDatabaseError   = errors.New("database error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")

	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrInvalidPlan              = errors.New("invalid plan")
	ErrActiveSubscriptionExists = errors.New("client already has an active subscription")
	ErrSubscriptionNotActive    = errors.New("subscription is not active")
	ErrPlanCapability           = errors.New("plan does not include this capability")

	// ErrConcurrentUpdate is a lost compare-and-swap; callers retry from a fresh read.
	ErrConcurrentUpdate = errors.New("concurrent update")
	// ErrUsageConflict is returned once the usage retry budget is spent.
	ErrUsageConflict = errors.New("usage update conflict, retry later")

	ErrProfessionalNotFound    = errors.New("professional not found")
	ErrNoProfessionalAvailable = errors.New("no professional available")
	ErrProjectNotFound         = errors.New("project not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrQuoteNotFound           = errors.New("quote not found")
	ErrQuoteClosed             = errors.New("quote is no longer open")
	ErrDisputeNotFound         = errors.New("dispute not found")
)
