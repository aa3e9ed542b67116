package domain

import "errors"

// Validation errors.
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrDescriptionTooLong    = errors.New("description too long (max 200 characters)")
	ErrCategoryTooLong       = errors.New("category too long (max 50 characters)")
	ErrInvalidResolutionTime = errors.New("invalid resolution time")
	ErrBetTooSmall           = errors.New("bet amount too small")
	ErrBetTooLarge           = errors.New("bet amount too large")
	ErrInvalidFeeBps         = errors.New("invalid fee percentage (max 10%)")
)

// Authorization errors.
var (
	ErrUnauthorized = errors.New("unauthorized")
)

// State errors.
var (
	ErrMarketAlreadyResolved    = errors.New("market already resolved")
	ErrMarketNotResolved        = errors.New("market not resolved yet")
	ErrBettingClosed            = errors.New("betting is closed for this market")
	ErrResolutionTimeNotReached = errors.New("resolution time not reached")
	ErrAlreadyClaimed           = errors.New("winnings already claimed")
	ErrInvalidPosition          = errors.New("invalid position")
	ErrInvalidOracle            = errors.New("invalid oracle feed")
	ErrInvalidTreasury          = errors.New("invalid treasury account")
)

// Resource errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Arithmetic errors.
var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow      = errors.New("arithmetic underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Infrastructure errors shared across stores and caches.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLockHeld      = errors.New("lock already held")
	ErrRateLimited   = errors.New("rate limited")
)
