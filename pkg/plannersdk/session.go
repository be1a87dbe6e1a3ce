package plannersdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// refreshSkew refreshes the access token shortly before it expires.
const refreshSkew = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
// All Session methods automatically handle token expiration and refresh when needed.
type Session struct {
	client *SDKClient
	user   UserResponse

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// newSession creates a new authenticated session from a register or login response.
func newSession(client *SDKClient, resp SessionResponse) *Session {
	s := &Session{client: client, user: resp.User}
	s.setTokens(resp.TokenResponse)
	return s
}

// NewSessionFromTokens resumes a session from stored tokens.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresAt time.Time) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt.Add(-refreshSkew),
	}
}

// setTokens must be called with mu held for writing, or before the session is shared.
func (s *Session) setTokens(t TokenResponse) {
	s.accessToken = t.AccessToken
	s.refreshToken = t.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(t.ExpiresIn)*time.Second - refreshSkew)
}

// User is the account the session was opened for. It is empty for
// sessions resumed with NewSessionFromTokens.
func (s *Session) User() UserResponse { return s.user }

// Tokens returns the current token pair.
func (s *Session) Tokens() (accessToken, refreshToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	tokenResp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.setTokens(*tokenResp)

	return s.accessToken, nil
}

// Logout ends this session on the server.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token to revoke")
	}
	return s.client.Logout(ctx, refreshToken)
}

// Me returns the caller's profile.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	return callPtr[UserResponse](ctx, s, http.MethodGet, "/v1/auth/me", nil, http.StatusOK)
}

func (s *Session) CreateProject(ctx context.Context, req CreateProjectRequest) (*ProjectResponse, error) {
	return callPtr[ProjectResponse](ctx, s, http.MethodPost, "/v1/projects", req, http.StatusCreated)
}

func (s *Session) GetProject(ctx context.Context, projectID int64) (*ProjectResponse, error) {
	return callPtr[ProjectResponse](ctx, s, http.MethodGet, projectPath(projectID, ""), nil, http.StatusOK)
}

func (s *Session) ListMembers(ctx context.Context, projectID int64) ([]MemberResponse, error) {
	return callJSON[[]MemberResponse](ctx, s, http.MethodGet, projectPath(projectID, "/members"), nil, http.StatusOK)
}

func (s *Session) UpdateMemberRole(ctx context.Context, projectID, userID int64, role string) error {
	path := projectPath(projectID, "/members/"+strconv.FormatInt(userID, 10))
	return s.call(ctx, http.MethodPut, path, UpdateMemberRoleRequest{Role: role}, nil, http.StatusOK)
}

func (s *Session) RemoveMember(ctx context.Context, projectID, userID int64) error {
	path := projectPath(projectID, "/members/"+strconv.FormatInt(userID, 10))
	return s.call(ctx, http.MethodDelete, path, nil, nil, http.StatusNoContent)
}

func (s *Session) ListHistory(ctx context.Context, projectID int64) ([]HistoryEntryResponse, error) {
	return callJSON[[]HistoryEntryResponse](ctx, s, http.MethodGet, projectPath(projectID, "/history"), nil, http.StatusOK)
}

// Invite offers a project role to an email address. Only project admins may invite.
func (s *Session) Invite(ctx context.Context, projectID int64, req CreateInvitationRequest) (*InvitationResponse, error) {
	return callPtr[InvitationResponse](ctx, s, http.MethodPost, projectPath(projectID, "/invitations"), req, http.StatusCreated)
}

// ListProjectInvitations lists a project's invitations. An empty status lists all.
func (s *Session) ListProjectInvitations(ctx context.Context, projectID int64, status string) ([]InvitationResponse, error) {
	path := projectPath(projectID, "/invitations")
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	return callJSON[[]InvitationResponse](ctx, s, http.MethodGet, path, nil, http.StatusOK)
}

// ListMyInvitations lists invitations addressed to the caller.
func (s *Session) ListMyInvitations(ctx context.Context) ([]InvitationResponse, error) {
	return callJSON[[]InvitationResponse](ctx, s, http.MethodGet, "/v1/invitations/me", nil, http.StatusOK)
}

func (s *Session) AcceptInvitation(ctx context.Context, invitationID int64) error {
	return s.call(ctx, http.MethodPost, invitationPath(invitationID, "/accept"), nil, nil, http.StatusOK)
}

func (s *Session) RejectInvitation(ctx context.Context, invitationID int64) error {
	return s.call(ctx, http.MethodPost, invitationPath(invitationID, "/reject"), nil, nil, http.StatusOK)
}

func (s *Session) ListNotifications(ctx context.Context) ([]NotificationResponse, error) {
	return callJSON[[]NotificationResponse](ctx, s, http.MethodGet, "/v1/notifications", nil, http.StatusOK)
}

func (s *Session) call(ctx context.Context, method, path string, body, target any, expected int) error {
	resp, err := s.doAuthRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expected)
}

func callJSON[T any](ctx context.Context, s *Session, method, path string, body any, expected int) (T, error) {
	var out T
	if err := s.call(ctx, method, path, body, &out, expected); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func callPtr[T any](ctx context.Context, s *Session, method, path string, body any, expected int) (*T, error) {
	out, err := callJSON[T](ctx, s, method, path, body, expected)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func projectPath(projectID int64, suffix string) string {
	return "/v1/projects/" + strconv.FormatInt(projectID, 10) + suffix
}

func invitationPath(invitationID int64, suffix string) string {
	return "/v1/invitations/" + strconv.FormatInt(invitationID, 10) + suffix
}
