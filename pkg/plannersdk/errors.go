package plannersdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the "error" field of every error body.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeValidation           = "validation_error"
	CodeUnauthorized         = "unauthorized"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeEmailTaken           = "email_taken"
	CodeRefreshNotFound      = "refresh_token_not_found"
	CodeRefreshExpired       = "refresh_token_expired"
	CodeInvalidResetToken    = "invalid_reset_token"
	CodeForbidden            = "forbidden"
	CodeNotProjectAdmin      = "not_project_admin"
	CodeDuplicatePending     = "duplicate_pending_invitation"
	CodeNotFound             = "not_found"
	CodeInvitationNotPending = "invitation_not_pending"
	CodeInvitationExpired    = "invitation_expired"
	CodeAdminProtected       = "admin_protected"
	CodeRateLimited          = "rate_limit_exceeded"
	CodeServerError          = "server_error"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string

	// Fields holds per-field messages for validation errors.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// parseErrorResponse turns an error body into an *APIError. Bodies that
// are not JSON still produce an error carrying the status code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp struct {
		Error            string            `json:"error"`
		ErrorDescription string            `json:"error_description"`
		Fields           map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			Fields:      errResp.Fields,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        CodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
