package domain

import (
	"math"
	"time"
)

// User is an account able to sign in: requesters, technicians and administrators.
type User struct {
	ID                  int64
	Name                string
	Email               string
	PasswordHash        string
	Role                RoleName
	GroupID             *int64
	GroupName           *string
	IsActive            bool
	FailedLoginAttempts int
	LockoutUntil        *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LockoutPolicy controls how failed password checks lock an account.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// DefaultLockoutPolicy locks an account for 15 minutes after 3 failures.
var DefaultLockoutPolicy = LockoutPolicy{MaxFailedAttempts: 3, LockoutDuration: 15 * time.Minute}

// IsLocked reports whether the lockout window is still open at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// LockoutRemaining returns the whole minutes left on the lockout, rounded up.
func (u *User) LockoutRemaining(now time.Time) int {
	if !u.IsLocked(now) {
		return 0
	}
	return int(math.Ceil(u.LockoutUntil.Sub(now).Minutes()))
}

// FailedLogin computes the counter and lockout expiry after one more failed
// password check. A lockout window that has already elapsed starts a fresh count.
func (u *User) FailedLogin(now time.Time, policy LockoutPolicy) (int, *time.Time) {
	attempts := u.FailedLoginAttempts + 1
	if u.LockoutUntil != nil && !u.LockoutUntil.After(now) {
		attempts = 1
	}
	if policy.MaxFailedAttempts > 0 && attempts >= policy.MaxFailedAttempts {
		until := now.Add(policy.LockoutDuration)
		return attempts, &until
	}
	return attempts, nil
}

// UserStats aggregates account counts for the admin dashboard.
type UserStats struct {
	Total  int         `json:"total"`
	Active int         `json:"active"`
	ByRole []RoleCount `json:"by_role"`
}

// RoleCount is the number of users holding a role.
type RoleCount struct {
	Role  RoleName `json:"role"`
	Count int      `json:"count"`
}
