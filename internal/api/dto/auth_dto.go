package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest payload for new accounts. Role and group are honoured for
// administrators only.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     *string `json:"role,omitempty"`
	GroupID  *int64  `json:"group_id,omitempty" validate:"omitempty,gt=0"`
}

// UserResponse is the public view of an account. It never carries secrets.
type UserResponse struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	GroupID             *int64     `json:"group_id"`
	GroupName           *string    `json:"group_name"`
	IsActive            bool       `json:"is_active"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LockoutUntil        *time.Time `json:"lockout_until"`
	LastLogin           *time.Time `json:"last_login"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// LoginResponse returns the bearer token once.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// SessionResponse describes the identity behind a valid token.
type SessionResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	GroupID     *int64    `json:"group_id"`
	GroupName   *string   `json:"group_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}
