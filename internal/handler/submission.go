package handler

import (
	"errors"
	"net/http"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/approval"
	"github.com/kce-spotlight/console/internal/form"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/session"
)

type approvalView struct {
	approval.View
	// Back is the list route to return to after a successful action.
	Back    string
	Msg     string
	History []model.AuditEvent
}

func (h *Handler) workflow(r *http.Request) (*approval.Workflow, error) {
	wf := approval.New(h.api, r.PathValue("id"))
	return wf, wf.Load(r.Context())
}

// SubmissionDetail is the full detail page for one submission.
func (h *Handler) SubmissionDetail(w http.ResponseWriter, r *http.Request) {
	wf, err := h.workflow(r)
	if err != nil && h.expired(w, r, err) {
		return
	}
	view := approvalView{View: wf.View()}
	if err != nil {
		h.logger.Error("load submission", "id", r.PathValue("id"), "error", err)
		view.Msg = apiclient.Message(err)
	}
	if view.Load == approval.Found && h.audit != nil {
		history, err := h.audit.ForEntity(h.submissions.Entity, view.ID)
		if err != nil {
			h.logger.Error("submission history", "id", view.ID, "error", err)
		}
		view.History = history
	}
	status := http.StatusOK
	if view.Load == approval.NotFound {
		status = http.StatusNotFound
	}
	h.renderStatus(w, r, status, "submission", "Achievement Details", view)
}

// ConfirmDialog opens the accept, reject or delete dialog.
func (h *Handler) ConfirmDialog(w http.ResponseWriter, r *http.Request) {
	action, err := approval.ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	wf, err := h.workflow(r)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		toast(w, session.ToastError, apiclient.Message(err))
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if err := wf.Open(action); err != nil {
		toast(w, session.ToastError, openMessage(err))
		w.WriteHeader(http.StatusConflict)
		return
	}
	h.renderPartial(w, "approval-modal", approvalView{View: wf.View()})
}

// Confirm performs the dialog's action. A missing reject reason or a
// backend failure keeps the dialog open with the message shown.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	action, err := approval.ParseAction(r.FormValue("action"))
	if err != nil {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	wf, err := h.workflow(r)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		toast(w, session.ToastError, apiclient.Message(err))
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if err := wf.Open(action); err != nil {
		toast(w, session.ToastError, openMessage(err))
		w.WriteHeader(http.StatusConflict)
		return
	}
	reason := form.NewReject()
	reason.Bind(r.PostForm)
	wf.SetReason(reason.Reason())

	err = wf.Confirm(r.Context())
	switch {
	case errors.Is(err, approval.ErrReasonRequired):
		reason.Validate()
		h.renderPartial(w, "approval-modal", approvalView{View: wf.View(), Msg: reason.Error("reason")})
		return
	case err != nil:
		if h.expired(w, r, err) {
			return
		}
		h.logger.Error("confirm submission action", "id", wf.View().ID, "action", action, "error", err)
		h.renderPartial(w, "approval-modal", approvalView{View: wf.View(), Msg: apiclient.Message(err)})
		return
	}

	view := wf.View()
	id := view.ID
	switch action {
	case approval.Accept, approval.Reject:
		status := view.Submission.Status
		h.submissions.container(h, r).Patch(view.Submission.Key(), func(s *model.Submission) {
			s.Status = status
			s.Reason = view.Submission.Reason
		})
		h.changed(r, h.submissions.Entity, string(status), id, view.Submission.Reason)
	case approval.Delete:
		h.changed(r, h.submissions.Entity, "deleted", id, "")
	}
	h.renderPartial(w, "approval-modal", approvalView{View: view, Back: wf.Dismiss()})
}

func openMessage(err error) string {
	switch {
	case errors.Is(err, approval.ErrNotPending):
		return "This submission has already been reviewed"
	case errors.Is(err, approval.ErrNotLoaded):
		return "Submission not found"
	}
	return err.Error()
}
