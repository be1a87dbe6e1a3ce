package http

import (
	"net/http"

	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/pkg/httpx"
)

type NotificationsHandler struct {
	Notifications *service.NotificationService
}

// ServeHTTP godoc
//
//	@Summary	List notifications
//	@Tags		Notifications
//	@Produce	json
//	@Success	200	{array}	plannersdk.NotificationResponse
//	@Security	BearerAuth
//	@Router		/v1/notifications [get]
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFrom(r.Context())

	list, err := h.Notifications.ListForUser(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toNotificationResponses(list))
}
