package domain

import "time"

// Group is an organisational unit users can belong to.
type Group struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
}
