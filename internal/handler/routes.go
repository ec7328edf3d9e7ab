package handler

import "net/http"

// listRoutes registers a screen's page, panel, delete and export routes.
func listRoutes[T any](mux *http.ServeMux, h *Handler, s *screen[T]) {
	mux.HandleFunc("GET "+s.Route, s.ListPage(h))
	mux.HandleFunc("GET "+s.PanelPath(), s.Panel(h))
	if s.CanDelete() {
		mux.HandleFunc("DELETE "+s.PanelPath()+"/{id}", s.Delete(h))
	}
	if s.CanExport() {
		mux.HandleFunc("GET "+s.ExportPath(), s.Export(h))
	}
}

// editorRoutes adds the form routes on top of listRoutes.
func editorRoutes[T any](mux *http.ServeMux, h *Handler, e *editor[T]) {
	listRoutes(mux, h, e.screen)
	p := e.PanelPath()
	mux.HandleFunc("GET "+p+"/new", e.NewForm(h))
	mux.HandleFunc("GET "+p+"/{id}/edit", e.EditForm(h))
	mux.HandleFunc("POST "+p, e.Save(h))
	mux.HandleFunc("POST "+p+"/close", e.Close(h))
	mux.HandleFunc("POST "+p+"/reopen", e.Reopen(h))
	mux.HandleFunc("POST "+p+"/{id}", e.Save(h))
}

// MountManagement registers the admin-only management screens.
func (h *Handler) MountManagement(mux *http.ServeMux) {
	listRoutes(mux, h, h.submissions)
	mux.HandleFunc("GET /achieve-management/{id}", h.SubmissionDetail)
	mux.HandleFunc("GET /partials/achieve-management/{id}/confirm", h.ConfirmDialog)
	mux.HandleFunc("POST /partials/achieve-management/{id}/confirm", h.Confirm)

	listRoutes(mux, h, h.users)
	listRoutes(mux, h, h.redemptions)
	mux.HandleFunc("POST /partials/redemption-history/{id}/fulfil", h.Fulfil)

	editorRoutes(mux, h, h.pointRules)
	editorRoutes(mux, h, h.rewards)
	editorRoutes(mux, h, h.staff)
	editorRoutes(mux, h, h.semesters)

	mux.HandleFunc("GET /events", h.Events)
	mux.HandleFunc("GET /api-integration", h.APIIntegration)
	mux.HandleFunc("GET /activity", h.Activity)
}
