package domain

import "time"

type NotificationType string

const NotificationInvitation NotificationType = "INVITATION"

// Notification is an in-app message for one user.
type Notification struct {
	ID        int64
	UserID    int64
	Type      NotificationType
	Message   string
	RelatedID *int64
	Read      bool
	CreatedAt time.Time
}
