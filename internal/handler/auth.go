package handler

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/middleware"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/session"
)

// ConsoleRoles may sign in to the console at all.
var ConsoleRoles = []string{model.RoleUser, model.RoleAdmin, model.RoleInstructor}

type loginView struct {
	Email          string
	Next           string
	Err            string
	SessionExpired bool
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, _ := h.sessions.Get(r); middleware.Decide(sess, nil) == middleware.Allow {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "login", "Sign in", "", loginView{
		Next:           safeNext(r.URL.Query().Get("next")),
		SessionExpired: r.URL.Query().Get("sessionExpired") == "true",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	view := loginView{
		Email: strings.TrimSpace(r.FormValue("email")),
		Next:  safeNext(r.FormValue("next")),
	}
	password := r.FormValue("password")
	if view.Email == "" || password == "" {
		view.Err = "Email and password are required"
		h.render(w, r, "login", "Sign in", "", view)
		return
	}

	res, err := h.api.Login(r.Context(), view.Email, password)
	if err != nil {
		h.logger.Warn("login failed", "email", view.Email, "error", err)
		var apiErr *apiclient.Error
		switch {
		case errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Message != "":
			view.Err = apiErr.Message
		case errors.As(err, &apiErr) && apiErr.Status < 500:
			view.Err = "Invalid email or password"
		default:
			view.Err = apiclient.Message(err)
		}
		h.render(w, r, "login", "Sign in", "", view)
		return
	}

	if !slices.Contains(ConsoleRoles, res.User.Role) {
		h.logger.Warn("login refused for role", "email", view.Email, "role", res.User.Role)
		view.Err = "Your account does not have access to this console"
		h.render(w, r, "login", "Sign in", "", view)
		return
	}

	if _, err := h.sessions.Set(w, r, res.Token, res.User); err != nil {
		h.logger.Error("start session", "error", err)
		view.Err = "Something went wrong. Please try again."
		h.render(w, r, "login", "Sign in", "", view)
		return
	}
	if h.audit != nil {
		if _, err := h.audit.Record(res.User.Email, "session", "", "login", res.User.Role); err != nil {
			h.logger.Error("record login", "error", err)
		}
	}
	h.logger.Info("signed in", "email", res.User.Email, "role", res.User.Role)

	target := view.Next
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.api.Logout(r.Context()); err != nil && !errors.Is(err, apiclient.ErrUnauthorized) {
		h.logger.Warn("backend logout", "error", err)
	}
	h.changed(r, "session", "logout", "", "")
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("clear session", "error", err)
	}
	h.sessions.Flash(w, r, session.ToastSuccess, "You have been signed out")
	middleware.Redirect(w, r, middleware.LoginPath)
}

func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusForbidden, "unauthorized", "Unauthorized", nil)
}

// safeNext accepts only local absolute paths as a post-login target.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
