package http

import (
	"github.com/fastplanner/planner/internal/api/domain"
	"github.com/fastplanner/planner/pkg/plannersdk"
)

func toTokenResponse(p domain.TokenPair) plannersdk.TokenResponse {
	return plannersdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}

func toUserResponse(u domain.PublicUser) plannersdk.UserResponse {
	return plannersdk.UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

func toSessionResponse(s domain.Session) plannersdk.SessionResponse {
	return plannersdk.SessionResponse{
		TokenResponse: toTokenResponse(s.TokenPair),
		User:          toUserResponse(s.User),
	}
}

func toProjectResponse(p domain.Project) plannersdk.ProjectResponse {
	return plannersdk.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
	}
}

func toMemberResponses(ms []domain.Member) []plannersdk.MemberResponse {
	out := make([]plannersdk.MemberResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, plannersdk.MemberResponse{
			UserID:    m.UserID,
			ProjectID: m.ProjectID,
			Role:      m.Role.String(),
			Name:      m.Name,
			Email:     m.Email,
			JoinedAt:  m.CreatedAt,
		})
	}
	return out
}

func toHistoryResponses(es []domain.HistoryEntry) []plannersdk.HistoryEntryResponse {
	out := make([]plannersdk.HistoryEntryResponse, 0, len(es))
	for _, e := range es {
		out = append(out, plannersdk.HistoryEntryResponse{
			ID:          e.ID,
			UserID:      e.UserID,
			ProjectID:   e.ProjectID,
			TaskID:      e.TaskID,
			Action:      string(e.Action),
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

func toInvitationResponse(i domain.Invitation) plannersdk.InvitationResponse {
	return plannersdk.InvitationResponse{
		ID:            i.ID,
		ProjectID:     i.ProjectID,
		Email:         i.Email,
		Role:          i.Role.String(),
		Status:        string(i.Status),
		InvitedUserID: i.InvitedUserID,
		InvitedByID:   i.InvitedByID,
		ExpiresAt:     i.ExpiresAt,
		CreatedAt:     i.CreatedAt,
	}
}

func toInvitationResponses(is []domain.Invitation) []plannersdk.InvitationResponse {
	out := make([]plannersdk.InvitationResponse, 0, len(is))
	for _, i := range is {
		out = append(out, toInvitationResponse(i))
	}
	return out
}

func toNotificationResponses(ns []domain.Notification) []plannersdk.NotificationResponse {
	out := make([]plannersdk.NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, plannersdk.NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Message:   n.Message,
			RelatedID: n.RelatedID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

// identityOf converts the request identity into the domain form.
func identityOf(id identity) domain.Identity {
	return domain.Identity{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   domain.Role(id.Role),
	}
}
