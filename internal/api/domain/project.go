package domain

import "time"

type Project struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership binds a user to a project with exactly one role.
type Membership struct {
	UserID    int64
	ProjectID int64
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member is a membership joined with the member's public profile.
type Member struct {
	Membership
	Name  string
	Email string
}
