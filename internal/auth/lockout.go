package auth

import (
	"context"
	"errors"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

const (
	MaxFailedLoginAttempts = 5
	AccountLockoutDuration = 15 * time.Minute
)

// LockoutStore is the subset of the store the lockout rules need.
type LockoutStore interface {
	RecordFailedLogin(ctx context.Context, username string, max int, lockFor time.Duration) error
	ResetFailedLogins(ctx context.Context, username string) error
	LockedUntil(ctx context.Context, username string) (time.Time, error)
}

// IsAccountLocked reports whether username is locked right now. An expired
// lock is cleared. Unknown users are never locked.
func IsAccountLocked(ctx context.Context, s LockoutStore, username string) (bool, error) {
	until, err := s.LockedUntil(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if until.IsZero() {
		return false, nil
	}
	if time.Now().Before(until) {
		return true, nil
	}
	return false, s.ResetFailedLogins(ctx, username)
}

// RecordFailure counts a failed login for username.
func RecordFailure(ctx context.Context, s LockoutStore, username string) error {
	return s.RecordFailedLogin(ctx, username, MaxFailedLoginAttempts, AccountLockoutDuration)
}
