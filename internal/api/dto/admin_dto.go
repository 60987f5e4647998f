package dto

import "time"

// CreateUserRequest is an administrator creating an account.
type CreateUserRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     *string `json:"role,omitempty"`
	GroupID  *int64  `json:"group_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateUserRequest is a partial update. A group_id of 0 removes the group.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Role     *string `json:"role,omitempty"`
	GroupID  *int64  `json:"group_id,omitempty" validate:"omitempty,gte=0"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ChangePasswordRequest sets a new password for a user.
type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// GroupRequest creates a group.
type GroupRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty"`
}

// GroupResponse is the group view.
type GroupResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleRequest creates or replaces a role. Name defaults to the label.
type RoleRequest struct {
	Name        string   `json:"name" validate:"max=64"`
	Label       string   `json:"label" validate:"required,max=120"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// RoleResponse is the role view.
type RoleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}
