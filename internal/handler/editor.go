package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/form"
	"github.com/kce-spotlight/console/internal/session"
)

const maxUpload = 5 << 20

// editForm is the part of every typed form the handlers need.
type editForm interface {
	ID() string
	EditMode() bool
	Dirty() bool
	Value(name string) string
	Values() map[string]string
	Error(name string) string
	HasErrors() bool
	Bind(values map[string][]string)
	Submit(ctx context.Context, save func(ctx context.Context) error) error
}

// saver persists a bound form. image is nil unless a file was attached.
type saver func(ctx context.Context, image *apiclient.File) error

// editor adds create and edit forms to a screen.
type editor[T any] struct {
	*screen[T]
	FormTmpl   string
	Multipart  bool
	// LabelField names the form field quoted in audit records.
	LabelField string
	open       func(initial *T) (editForm, saver)
}

type formView struct {
	Form      editForm
	Title     string
	Action    string
	ClosePath string
	Multipart bool
	Err       string
}

// hiddenField carries a form value through the unsaved-changes dialog.
type hiddenField struct {
	Name  string
	Value string
}

type guardView struct {
	formView
	ReopenPath string
	Fields     []hiddenField
}

func (e *editor[T]) view(f editForm) formView {
	v := formView{
		Form:      f,
		Title:     "Add " + e.Noun,
		Action:    e.PanelPath(),
		ClosePath: e.PanelPath() + "/close",
		Multipart: e.Multipart,
	}
	if f.EditMode() {
		v.Title = "Edit " + e.Noun
		v.Action = e.PanelPath() + "/" + f.ID()
	}
	return v
}

// initial finds the record being edited on the session's current page.
func (e *editor[T]) initial(h *Handler, r *http.Request, id string) (*T, bool) {
	if id == "" {
		return nil, true
	}
	row, ok := e.container(h, r).Find(id)
	if !ok {
		return nil, false
	}
	return &row, true
}

func (e *editor[T]) notFound(w http.ResponseWriter) {
	toast(w, session.ToastError, fmt.Sprintf("%s not found. Refresh the list and try again.", e.Noun))
	w.WriteHeader(http.StatusNotFound)
}

func (e *editor[T]) NewForm(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, _ := e.open(nil)
		h.renderPartial(w, e.FormTmpl, e.view(f))
	}
}

func (e *editor[T]) EditForm(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initial, ok := e.initial(h, r, r.PathValue("id"))
		if !ok {
			e.notFound(w)
			return
		}
		f, _ := e.open(initial)
		h.renderPartial(w, e.FormTmpl, e.view(f))
	}
}

// bind rebuilds the form from its initial record and the posted values.
func (e *editor[T]) bind(h *Handler, r *http.Request, id string) (editForm, saver, *apiclient.File, error) {
	var image *apiclient.File
	if e.Multipart && isMultipart(r) {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, nil, nil, fmt.Errorf("parse upload: %w", err)
		}
		img, err := uploadedImage(r)
		if err != nil {
			return nil, nil, nil, err
		}
		image = img
	} else if err := r.ParseForm(); err != nil {
		return nil, nil, nil, fmt.Errorf("parse form: %w", err)
	}

	initial, ok := e.initial(h, r, id)
	if !ok {
		return nil, nil, nil, errRecordGone
	}
	f, save := e.open(initial)
	f.Bind(r.PostForm)
	return f, save, image, nil
}

var errRecordGone = errors.New("record not on current page")

// Save creates or updates a record. Validation errors and backend
// failures re-render the form with what was entered.
func (e *editor[T]) Save(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f, save, image, err := e.bind(h, r, id)
		if errors.Is(err, errRecordGone) {
			e.notFound(w)
			return
		}
		if err != nil {
			toast(w, session.ToastError, err.Error())
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		err = f.Submit(r.Context(), func(ctx context.Context) error {
			return save(ctx, image)
		})
		if err != nil && h.expired(w, r, err) {
			return
		}
		if err != nil {
			v := e.view(f)
			if !errors.Is(err, form.ErrInvalid) {
				h.logger.Error("save", "resource", e.Name, "id", id, "error", err)
				v.Err = apiclient.Message(err)
			}
			h.renderPartial(w, e.FormTmpl, v)
			return
		}

		action, verb := "created", "added"
		if f.EditMode() {
			action, verb = "updated", "updated"
		}
		h.changed(r, e.Entity, action, id, f.Value(e.LabelField))
		toast(w, session.ToastSuccess, fmt.Sprintf("%s %s successfully", e.Noun, verb))
		trigger(w, map[string]any{"refresh-" + e.Entity: true})
		// Empty body closes the modal.
		w.WriteHeader(http.StatusOK)
	}
}

// Close is the unsaved-changes guard: a clean form closes, a dirty one
// answers with the Cancel / Discard / Save dialog.
func (e *editor[T]) Close(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, _, _, err := e.bind(h, r, r.FormValue("id"))
		if err != nil || !f.Dirty() {
			w.WriteHeader(http.StatusOK)
			return
		}
		v := guardView{formView: e.view(f), ReopenPath: e.PanelPath() + "/reopen"}
		values := f.Values()
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			v.Fields = append(v.Fields, hiddenField{Name: name, Value: values[name]})
		}
		h.renderPartial(w, "unsaved-changes", v)
	}
}

// Reopen returns from the guard dialog to the form, edits intact.
func (e *editor[T]) Reopen(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, _, _, err := e.bind(h, r, r.FormValue("id"))
		if err != nil {
			e.notFound(w)
			return
		}
		h.renderPartial(w, e.FormTmpl, e.view(f))
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func uploadedImage(r *http.Request) (*apiclient.File, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()
	if header.Size == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	ct := header.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &apiclient.File{Field: "image", Name: header.Filename, ContentType: ct, Data: data}, nil
}
