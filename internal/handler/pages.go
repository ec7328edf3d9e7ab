package handler

import (
	"net/http"
	"time"

	"github.com/kce-spotlight/console/internal/auth"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/session"
	"github.com/kce-spotlight/console/internal/websocket"
)

// activityEntities are the filters offered on the activity page.
var activityEntities = []string{
	websocket.EntitySubmission,
	websocket.EntityPointRule,
	websocket.EntityReward,
	websocket.EntityRedemption,
	websocket.EntityStaff,
	websocket.EntitySemester,
	websocket.EntityUser,
	"session",
}

type activityView struct {
	Entity   string
	Entities []string
	Events   []model.AuditEvent
}

// Activity lists recent admin actions, optionally for one entity.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	view := activityView{Entity: r.URL.Query().Get("entity"), Entities: activityEntities}
	events, err := h.audit.Recent(view.Entity, 100)
	if err != nil {
		h.logger.Error("list activity", "error", err)
		h.sessions.Flash(w, r, session.ToastError, "Could not load activity")
	}
	view.Events = events
	if r.Header.Get("HX-Request") == "true" {
		h.renderPartial(w, "activity-rows", view)
		return
	}
	h.render(w, r, "activity", "Activity", "/activity", view)
}

// Events shows the live feed of changes made from any open console.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "events", "Events", "/events", nil)
}

type integrationView struct {
	BaseURL           string
	ClientID          string
	ImageBaseURL      string
	SkipTunnelWarning bool
	TokenExpires      time.Time
	Connected         int
}

// APIIntegration shows how the console reaches the rewards backend.
func (h *Handler) APIIntegration(w http.ResponseWriter, r *http.Request) {
	view := integrationView{
		BaseURL:           h.api.BaseURL(),
		ClientID:          h.backend.ClientID,
		ImageBaseURL:      h.backend.ImageBaseURL,
		SkipTunnelWarning: h.backend.SkipTunnelWarning,
	}
	if exp, ok := session.TokenExpiry(auth.BackendToken(r.Context())); ok {
		view.TokenExpires = exp
	}
	if h.hub != nil {
		view.Connected = h.hub.ClientCount()
	}
	h.render(w, r, "api_integration", "API Integration", "/api-integration", view)
}
