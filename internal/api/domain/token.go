package domain

import "time"

// TokenPair is what a successful login, registration or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds until the access token expires
}

// Session is a token pair plus the public view of its owner.
type Session struct {
	TokenPair
	User PublicUser `json:"user"`
}

// RefreshToken is one active session as stored. The raw token value is
// never stored, only its fingerprint.
type RefreshToken struct {
	ID        string // ULID
	UserID    int64
	TokenHash string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ResetToken is a freshly generated password reset token.
type ResetToken struct {
	Token     string
	ExpiresAt time.Time
}

// Identity is the caller asserted by a verified access token.
type Identity struct {
	UserID int64
	Email  string
	Name   string
	Role   Role
}
