package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the user has never enrolled.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateUser means the user is already enrolled.
	ErrDuplicateUser = errors.New("user already enrolled")

	// ErrWeakPassword means the password failed the strength policy.
	ErrWeakPassword = errors.New("password too weak")

	// ErrProvider means the embedding provider was unreachable or
	// returned garbage. Transient; callers may retry. No state changed.
	ErrProvider = errors.New("embedding provider unavailable")
)

// LockedError means the account is temporarily disabled. No scoring is
// performed and no attempt is consumed while the lock holds.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}
