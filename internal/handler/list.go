package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/auth"
	"github.com/kce-spotlight/console/internal/export"
	"github.com/kce-spotlight/console/internal/resource"
	"github.com/kce-spotlight/console/internal/session"
)

// screen is one paginated management table. Each signed-in session gets
// its own container per screen from the registry.
type screen[T any] struct {
	Name        string
	Title       string
	Route       string
	Noun        string
	Entity      string
	// Placeholder is the search box hint.
	Placeholder string
	Filters     []string
	PanelTmpl   string
	PageTmpl    string
	fetch       resource.Fetcher[T]
	remove      resource.Remover
	key         func(T) string
	table       *export.Table[T]
	exportTo    func(st resource.State[T]) string
}

// PanelPath is where the table partial is fetched from.
func (s *screen[T]) PanelPath() string { return "/partials" + s.Route }

// CanDelete and CanExport drive which toolbar and row buttons render.
func (s *screen[T]) CanDelete() bool { return s.remove != nil }
func (s *screen[T]) CanExport() bool { return s.table != nil || s.exportTo != nil }

// ExportPath is the download link for the current search and filters.
func (s *screen[T]) ExportPath() string { return s.Route + "/export" }

// listView is what a table panel renders.
type listView[T any] struct {
	Screen *screen[T]
	State  resource.State[T]
	Err    string
}

func (s *screen[T]) container(h *Handler, r *http.Request) *resource.Container[T] {
	return resource.Get(h.registry, auth.SessionToken(r.Context()), s.Name, func() *resource.Container[T] {
		return resource.New(resource.Config[T]{
			Name:        s.Name,
			Fetch:       s.fetch,
			Remove:      s.remove,
			Key:         s.key,
			Limit:       h.lists.PageSize,
			ExportLimit: h.lists.ExportLimit,
			Debounce:    h.lists.Debounce.Duration,
			Logger:      h.logger.With("resource", s.Name),
		})
	})
}

// apply copies toolbar and pagination parameters onto the container. When
// the request came from typing in the search box the new term is returned
// for a debounced load instead of being applied directly.
func (s *screen[T]) apply(c *resource.Container[T], r *http.Request) (term string, debounce bool) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SetLimit(n)
		}
	}
	for _, key := range s.Filters {
		if q.Has(key) {
			c.SetFilter(key, q.Get(key))
		}
	}
	if q.Has("search") {
		term = q.Get("search")
		if r.Header.Get("HX-Trigger-Name") == "search" && term != c.Snapshot().Search {
			return term, true
		}
		c.SetSearch(term)
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SetPage(n)
		}
	}
	return "", false
}

func (s *screen[T]) load(ctx context.Context, c *resource.Container[T], r *http.Request) (resource.State[T], error) {
	if term, debounce := s.apply(c, r); debounce {
		return c.SearchDebounced(ctx, term)
	}
	return c.Load(ctx)
}

func superseded(err error) bool {
	return errors.Is(err, resource.ErrSuperseded) || errors.Is(err, context.Canceled)
}

// ListPage renders the full page with the current page of rows.
func (s *screen[T]) ListPage(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.container(h, r)
		st, err := s.load(r.Context(), c, r)
		if err != nil && h.expired(w, r, err) {
			return
		}
		view := listView[T]{Screen: s, State: st}
		if err != nil && !superseded(err) {
			view.Err = apiclient.Message(err)
		}
		h.render(w, r, s.PageTmpl, s.Title, s.Route, view)
	}
}

// Panel re-renders the table for HTMX: toolbar changes, pagination and
// live refreshes. A request overtaken by a newer one gets 204 so HTMX
// leaves the table alone.
func (s *screen[T]) Panel(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.container(h, r)
		st, err := s.load(r.Context(), c, r)
		if superseded(err) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil && h.expired(w, r, err) {
			return
		}
		view := listView[T]{Screen: s, State: st}
		if err != nil {
			view.Err = apiclient.Message(err)
		}
		h.renderPartial(w, s.PanelTmpl, view)
	}
}

// Delete removes one row remotely, then from the current page.
func (s *screen[T]) Delete(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		c := s.container(h, r)
		err := c.Delete(r.Context(), id)
		if err != nil && h.expired(w, r, err) {
			return
		}
		if err != nil {
			toast(w, session.ToastError, apiclient.Message(err))
		} else {
			h.changed(r, s.Entity, "deleted", id, "")
			toast(w, session.ToastSuccess, fmt.Sprintf("%s deleted", s.Noun))
		}
		h.renderPartial(w, s.PanelTmpl, listView[T]{Screen: s, State: c.Snapshot()})
	}
}

// Export downloads every matching row as a workbook, or redirects to the
// backend's own export when the screen has one.
func (s *screen[T]) Export(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.container(h, r)
		if s.exportTo != nil {
			h.changed(r, s.Entity, "exported", "", "backend export")
			http.Redirect(w, r, s.exportTo(c.Snapshot()), http.StatusSeeOther)
			return
		}

		records, err := c.Export(r.Context())
		if err != nil {
			if h.expired(w, r, err) {
				return
			}
			h.logger.Error("export", "resource", s.Name, "error", err)
			h.sessions.Flash(w, r, session.ToastError, "Export failed. Please try again.")
			http.Redirect(w, r, s.Route, http.StatusSeeOther)
			return
		}

		file, err := s.table.Build(records)
		if errors.Is(err, export.ErrEmpty) {
			h.sessions.Flash(w, r, session.ToastInfo, s.table.EmptyMessage())
			http.Redirect(w, r, s.Route, http.StatusSeeOther)
			return
		}
		if err != nil {
			h.logger.Error("build workbook", "resource", s.Name, "error", err)
			h.sessions.Flash(w, r, session.ToastError, "Export failed. Please try again.")
			http.Redirect(w, r, s.Route, http.StatusSeeOther)
			return
		}

		key, err := h.archive.Store(r.Context(), file)
		if err != nil {
			h.logger.Error("archive export", "resource", s.Name, "error", err)
		}
		h.changed(r, s.Entity, "exported", "", fmt.Sprintf("%d rows %s", len(records), key))

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		w.Write(file.Data)
	}
}
