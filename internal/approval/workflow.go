package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/model"
)

// ListRoute is where the detail view returns after a completed action.
const ListRoute = "/achieve-management"

var (
	ErrReasonRequired = errors.New("a reason is required to reject a submission")
	ErrNotPending     = errors.New("submission is no longer pending")
	ErrNotLoaded      = errors.New("submission not loaded")
	ErrNoAction       = errors.New("no action selected")
	ErrBusy           = errors.New("action already in progress")
	ErrUnknownAction  = errors.New("unknown action")
)

type LoadState int

const (
	Loading LoadState = iota
	Found
	NotFound
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not-found"
	case LoadFailed:
		return "failed"
	default:
		return "loading"
	}
}

type Action string

const (
	Accept Action = "accept"
	Reject Action = "reject"
	Delete Action = "delete"
)

// ParseAction accepts the action names used in URLs and forms.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Accept, Reject, Delete:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ModalState is the confirmation dialog's sub-state.
type ModalState int

const (
	Closed ModalState = iota
	Confirming
	Processing
	Success
)

func (s ModalState) String() string {
	switch s {
	case Confirming:
		return "confirming"
	case Processing:
		return "processing"
	case Success:
		return "success"
	default:
		return "closed"
	}
}

// Backend is the subset of the API client the workflow drives.
type Backend interface {
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	VerifySubmission(ctx context.Context, id string, status model.SubmissionStatus, reason string) error
	DeleteSubmission(ctx context.Context, id string) error
}

// Workflow is the detail screen for one submission: load it, then accept,
// reject or delete it through a confirm dialog.
type Workflow struct {
	backend Backend
	id      string

	mu      sync.Mutex
	load    LoadState
	sub     *model.Submission
	deleted bool
	action  Action
	modal   ModalState
	reason  string
	err     error
}

func New(backend Backend, id string) *Workflow {
	return &Workflow{backend: backend, id: id}
}

// View is a snapshot for rendering.
type View struct {
	ID           string
	Load         LoadState
	Submission   *model.Submission
	Deleted      bool
	Action       Action
	Modal        ModalState
	Reason       string
	Err          error
	ConfirmLabel string
	CanConfirm   bool
	CanAct       bool
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := View{
		ID:           w.id,
		Load:         w.load,
		Deleted:      w.deleted,
		Action:       w.action,
		Modal:        w.modal,
		Reason:       w.reason,
		Err:          w.err,
		ConfirmLabel: w.confirmLabelLocked(),
		CanConfirm:   w.modal == Confirming,
		CanAct:       w.load == Found && !w.deleted && w.sub != nil && w.sub.Pending(),
	}
	if w.sub != nil {
		s := *w.sub
		v.Submission = &s
	}
	return v
}

func (w *Workflow) confirmLabelLocked() string {
	if w.modal == Processing {
		return "Processing..."
	}
	switch w.action {
	case Accept:
		return "Accept"
	case Reject:
		return "Reject"
	case Delete:
		return "Delete"
	}
	return ""
}

// Load fetches the submission. A 404 ends in NotFound; other failures end
// in LoadFailed and are returned.
func (w *Workflow) Load(ctx context.Context) error {
	w.mu.Lock()
	w.load = Loading
	w.err = nil
	w.mu.Unlock()

	sub, err := w.backend.GetSubmission(ctx, w.id)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case apiclient.IsNotFound(err):
		w.load = NotFound
		return nil
	case err != nil:
		w.load = LoadFailed
		w.err = err
		return fmt.Errorf("load submission %s: %w", w.id, err)
	}
	w.sub = sub
	w.load = Found
	return nil
}

// Open shows the confirm dialog for action. Accept and reject need a pending
// submission; delete only needs one that was found.
func (w *Workflow) Open(action Action) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.load != Found || w.sub == nil || w.deleted {
		return ErrNotLoaded
	}
	if w.modal == Processing {
		return ErrBusy
	}
	switch action {
	case Accept, Reject:
		if !w.sub.Pending() {
			return ErrNotPending
		}
	case Delete:
	default:
		return ErrUnknownAction
	}
	w.action = action
	w.modal = Confirming
	w.reason = ""
	w.err = nil
	return nil
}

func (w *Workflow) SetReason(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reason = reason
}

// Confirm performs the open action. Rejecting with a blank reason returns
// ErrReasonRequired without contacting the backend and keeps the dialog in
// Confirming. A backend failure also returns to Confirming with the error
// recorded.
func (w *Workflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	switch w.modal {
	case Processing:
		w.mu.Unlock()
		return ErrBusy
	case Confirming:
	default:
		w.mu.Unlock()
		return ErrNoAction
	}
	action := w.action
	reason := strings.TrimSpace(w.reason)
	if action == Reject && reason == "" {
		w.err = ErrReasonRequired
		w.mu.Unlock()
		return ErrReasonRequired
	}
	w.modal = Processing
	w.err = nil
	id := w.sub.Key()
	w.mu.Unlock()

	var err error
	switch action {
	case Accept:
		err = w.backend.VerifySubmission(ctx, id, model.SubmissionApproved, "")
	case Reject:
		err = w.backend.VerifySubmission(ctx, id, model.SubmissionRejected, reason)
	case Delete:
		err = w.backend.DeleteSubmission(ctx, id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.modal = Confirming
		w.err = err
		return err
	}
	switch action {
	case Accept:
		w.sub.Status = model.SubmissionApproved
	case Reject:
		w.sub.Status = model.SubmissionRejected
		w.sub.Reason = reason
	case Delete:
		w.deleted = true
	}
	w.modal = Success
	return nil
}

// Dismiss closes the dialog. After a successful action it returns the list
// route to navigate to; otherwise it returns "" and the view stays.
func (w *Workflow) Dismiss() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal == Processing {
		return ""
	}
	done := w.modal == Success
	w.modal = Closed
	w.action = ""
	w.reason = ""
	w.err = nil
	if done {
		return ListRoute
	}
	return ""
}
