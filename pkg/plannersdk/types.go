package plannersdk

import "time"

// ============================================================================
// Auth Requests
// ============================================================================

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest is the body of POST /v1/auth/refresh and POST /v1/auth/logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RecoverPasswordRequest is the body of POST /v1/auth/recover-password.
type RecoverPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /v1/auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ============================================================================
// Auth Responses
// ============================================================================

// TokenResponse is returned by a refresh.
type TokenResponse struct {
	// AccessToken is the HS256 JWT used as a bearer token.
	AccessToken string `json:"accessToken"`

	// RefreshToken is single use. Every refresh returns a new one.
	RefreshToken string `json:"refreshToken"`

	TokenType string `json:"tokenType"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int64 `json:"expiresIn"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture *string   `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	TokenResponse
	User UserResponse `json:"user"`
}

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// OKResponse is returned by logout.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ============================================================================
// Project Types
// ============================================================================

// CreateProjectRequest is the body of POST /v1/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ProjectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UpdateMemberRoleRequest is the body of PUT /v1/projects/{projectId}/members/{userId}.
type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

type MemberResponse struct {
	UserID    int64     `json:"userId"`
	ProjectID int64     `json:"projectId"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type HistoryEntryResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	ProjectID   *int64    `json:"projectId,omitempty"`
	TaskID      *int64    `json:"taskId,omitempty"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ============================================================================
// Invitation Types
// ============================================================================

// CreateInvitationRequest is the body of POST /v1/projects/{projectId}/invitations.
// Role defaults to developer.
type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type InvitationResponse struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"projectId"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	InvitedUserID *int64    `json:"invitedUserId,omitempty"`
	InvitedByID   int64     `json:"invitedById"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

type NotificationResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	RelatedID *int64    `json:"relatedId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Notifier string `json:"notifier,omitempty"`
}
