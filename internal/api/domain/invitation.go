package domain

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected, InvitationExpired:
		return true
	}
	return false
}

// DefaultInvitationTTL is how long an invitation stays acceptable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

type Invitation struct {
	ID            int64
	ProjectID     int64
	Email         string // stored lower-cased
	InvitedUserID *int64
	InvitedByID   int64
	Role          Role
	TokenHash     string // reserved for link based acceptance
	Status        InvitationStatus
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (i Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// AddressedTo reports whether the invitation targets the given user.
func (i Invitation) AddressedTo(userID int64, email string) bool {
	if i.InvitedUserID != nil && *i.InvitedUserID == userID {
		return true
	}
	return email != "" && NormalizeEmail(email) == i.Email
}
