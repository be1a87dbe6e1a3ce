/*
Package plannersdk provides a client SDK for the planner API, along with the
request and response types the server itself speaks.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: public endpoints (register, login, password recovery, health)
  - Session: authenticated endpoints with automatic token refresh

Create an SDKClient and open a session:

	client := plannersdk.NewSDKClient("https://planner.example.com")

	session, err := client.Login(ctx, "alice@example.com", "password")
	if plannersdk.IsCode(err, plannersdk.CodeInvalidCredentials) {
		// wrong email or password; the API does not say which
	}

Use the session for project work:

	project, err := session.CreateProject(ctx, plannersdk.CreateProjectRequest{Name: "Apollo"})

	inv, err := session.Invite(ctx, project.ID, plannersdk.CreateInvitationRequest{
		Email: "bob@example.com",
		Role:  "developer",
	})

The invitee accepts from their own session:

	invites, err := bobSession.ListMyInvitations(ctx)
	err = bobSession.AcceptInvitation(ctx, invites[0].ID)

# Automatic Token Refresh

Refresh tokens are single use. A Session refreshes its access token about 30
seconds before it expires and replaces its refresh token with the one the
server returns. Sessions are safe for concurrent use; concurrent callers
share one refresh.

# Validation

Every request type has a Validate method. The server runs the same checks
and reports failures as a validation_error with per-field messages:

	if err := req.Validate(); err != nil {
		for field, msg := range plannersdk.FieldErrors(err) {
			fmt.Printf("%s: %s\n", field, msg)
		}
	}

# Errors

Non-2xx responses are returned as *APIError. Use IsCode to match on the
error code.
*/
package plannersdk
