package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/auth"
	"github.com/kce-spotlight/console/internal/config"
	"github.com/kce-spotlight/console/internal/export"
	"github.com/kce-spotlight/console/internal/middleware"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/resource"
	"github.com/kce-spotlight/console/internal/session"
	"github.com/kce-spotlight/console/internal/store"
	"github.com/kce-spotlight/console/internal/websocket"
)

// Deps are the services the console handlers share.
type Deps struct {
	API      *apiclient.Client
	Sessions *session.Service
	Registry *resource.Registry
	Audit    *store.AuditStore
	Hub      *websocket.Hub
	Archive  *export.Archive
	Views    *Views
	Backend  config.BackendConfig
	Lists    config.ListConfig
	Logger   *slog.Logger
}

// Handler serves every console page and partial.
type Handler struct {
	api      *apiclient.Client
	sessions *session.Service
	registry *resource.Registry
	audit    *store.AuditStore
	hub      *websocket.Hub
	archive  *export.Archive
	views    *Views
	backend  config.BackendConfig
	lists    config.ListConfig
	logger   *slog.Logger

	submissions *screen[model.Submission]
	users       *screen[model.StudentAccount]
	pointRules  *editor[model.PointRule]
	rewards     *editor[model.RewardItem]
	staff       *editor[model.StaffAccount]
	semesters   *editor[model.Semester]
	redemptions *screen[model.Redemption]
}

func New(d Deps) *Handler {
	h := &Handler{
		api:      d.API,
		sessions: d.Sessions,
		registry: d.Registry,
		audit:    d.Audit,
		hub:      d.Hub,
		archive:  d.Archive,
		views:    d.Views,
		backend:  d.Backend,
		lists:    d.Lists,
		logger:   d.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.registerScreens()
	return h
}

// Page is the data every full page renders with.
type Page struct {
	Title  string
	Nav    string
	User   model.User
	Admin  bool
	Toasts []session.Toast
	Data   any
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, title, nav string, data any) Page {
	p := Page{Title: title, Nav: nav, Data: data}
	if ac, ok := auth.FromContext(r.Context()); ok {
		p.User = ac.User
		p.Admin = ac.User.Role == model.RoleAdmin
	}
	p.Toasts = h.sessions.Flashes(w, r)
	return p
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title, nav string, data any) {
	h.views.Page(w, name, h.page(w, r, title, nav, data))
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	h.views.PageStatus(w, status, name, h.page(w, r, title, "", data))
}

func (h *Handler) renderPartial(w http.ResponseWriter, name string, data any) {
	h.views.Partial(w, name, data)
}

// toast asks the page to show a message once the HTMX swap settles.
func toast(w http.ResponseWriter, kind, message string) {
	trigger(w, map[string]any{"toast": session.Toast{Kind: kind, Message: message}})
}

// trigger sets HX-Trigger, merging with events already set on w.
func trigger(w http.ResponseWriter, events map[string]any) {
	merged := map[string]any{}
	if prev := w.Header().Get("HX-Trigger"); prev != "" {
		_ = json.Unmarshal([]byte(prev), &merged)
	}
	for k, v := range events {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(data))
}

// expired handles a backend rejection of the session token. The client's
// unauthorized hook has already ended the session; the browser is sent
// back to log in.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	if r.URL.Path != middleware.LoginPath {
		middleware.Redirect(w, r, middleware.ExpiredLoginPath)
	}
	return true
}

// changed records an admin action and tells open consoles about it.
func (h *Handler) changed(r *http.Request, entity, action, id, detail string) {
	actor := auth.Actor(r.Context())
	if h.audit != nil {
		if _, err := h.audit.Record(actor, entity, id, action, detail); err != nil {
			h.logger.Error("record audit event", "entity", entity, "action", action, "error", err)
		}
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(entity, action, id, actor))
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
