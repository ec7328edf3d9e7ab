package approval

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/model"
)

type fakeBackend struct {
	mu        sync.Mutex
	sub       *model.Submission
	getErr    error
	verifyErr error
	deleteErr error
	verifies  []string
	deletes   []string
	block     chan struct{}
}

func (f *fakeBackend) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s := *f.sub
	return &s, nil
}

func (f *fakeBackend) VerifySubmission(ctx context.Context, id string, status model.SubmissionStatus, reason string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies = append(f.verifies, id+":"+string(status)+":"+reason)
	return f.verifyErr
}

func (f *fakeBackend) DeleteSubmission(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func pending() *model.Submission {
	return &model.Submission{SubmissionID: "SUB-1", Name: "Priya", RollNo: "717822F222", Status: model.SubmissionPending}
}

func loaded(t *testing.T, b *fakeBackend) *Workflow {
	t.Helper()
	w := New(b, "SUB-1")
	if err := w.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return w
}

func TestLoadFound(t *testing.T) {
	w := New(&fakeBackend{sub: pending()}, "SUB-1")
	if got := w.View().Load; got != Loading {
		t.Errorf("initial load state = %v, want loading", got)
	}
	if err := w.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	v := w.View()
	if v.Load != Found {
		t.Errorf("load state = %v, want found", v.Load)
	}
	if !v.CanAct {
		t.Error("pending submission should offer actions")
	}
}

func TestLoadNotFound(t *testing.T) {
	w := New(&fakeBackend{getErr: &apiclient.Error{Status: http.StatusNotFound}}, "nope")
	if err := w.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := w.View().Load; got != NotFound {
		t.Errorf("load state = %v, want not-found", got)
	}
	if err := w.Open(Accept); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("open = %v, want ErrNotLoaded", err)
	}
}

func TestLoadFailure(t *testing.T) {
	w := New(&fakeBackend{getErr: errors.New("timeout")}, "SUB-1")
	if err := w.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := w.View().Load; got != LoadFailed {
		t.Errorf("load state = %v, want failed", got)
	}
}

func TestAcceptFlow(t *testing.T) {
	b := &fakeBackend{sub: pending()}
	w := loaded(t, b)

	if err := w.Open(Accept); err != nil {
		t.Fatalf("open: %v", err)
	}
	v := w.View()
	if v.Modal != Confirming || v.ConfirmLabel != "Accept" || !v.CanConfirm {
		t.Errorf("view = %+v, want confirming Accept", v)
	}

	if err := w.Confirm(context.Background()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	v = w.View()
	if v.Modal != Success {
		t.Errorf("modal = %v, want success", v.Modal)
	}
	if v.Submission.Status != model.SubmissionApproved {
		t.Errorf("status = %q, want approved", v.Submission.Status)
	}
	if len(b.verifies) != 1 || b.verifies[0] != "SUB-1:approved:" {
		t.Errorf("verifies = %v", b.verifies)
	}
	if route := w.Dismiss(); route != ListRoute {
		t.Errorf("dismiss = %q, want %q", route, ListRoute)
	}
	if w.View().Modal != Closed {
		t.Error("modal should be closed after dismiss")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	b := &fakeBackend{sub: pending()}
	w := loaded(t, b)

	w.Open(Reject)
	w.SetReason("   ")
	err := w.Confirm(context.Background())
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("confirm = %v, want ErrReasonRequired", err)
	}
	if len(b.verifies) != 0 {
		t.Errorf("backend called %d times, want 0", len(b.verifies))
	}
	if got := w.View().Modal; got != Confirming {
		t.Errorf("modal = %v, want confirming", got)
	}

	w.SetReason("Certificate is not legible")
	if err := w.Confirm(context.Background()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	v := w.View()
	if v.Submission.Status != model.SubmissionRejected || v.Submission.Reason != "Certificate is not legible" {
		t.Errorf("submission = %+v", v.Submission)
	}
	if b.verifies[0] != "SUB-1:rejected:Certificate is not legible" {
		t.Errorf("verify = %q", b.verifies[0])
	}
}

func TestDeleteFlow(t *testing.T) {
	b := &fakeBackend{sub: &model.Submission{SubmissionID: "SUB-1", Status: model.SubmissionApproved}}
	w := loaded(t, b)

	if err := w.Open(Accept); !errors.Is(err, ErrNotPending) {
		t.Errorf("open accept on approved = %v, want ErrNotPending", err)
	}
	if err := w.Open(Delete); err != nil {
		t.Fatalf("open delete: %v", err)
	}
	if err := w.Confirm(context.Background()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	v := w.View()
	if !v.Deleted {
		t.Error("expected deleted")
	}
	if v.CanAct {
		t.Error("deleted submission should not offer actions")
	}
	if len(b.deletes) != 1 || b.deletes[0] != "SUB-1" {
		t.Errorf("deletes = %v", b.deletes)
	}
	if route := w.Dismiss(); route != ListRoute {
		t.Errorf("dismiss = %q, want %q", route, ListRoute)
	}
}

func TestConfirmFailureReturnsToConfirming(t *testing.T) {
	b := &fakeBackend{sub: pending(), verifyErr: errors.New("backend down")}
	w := loaded(t, b)

	w.Open(Accept)
	if err := w.Confirm(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	v := w.View()
	if v.Modal != Confirming {
		t.Errorf("modal = %v, want confirming", v.Modal)
	}
	if v.Err == nil {
		t.Error("expected error recorded on view")
	}
	if v.Submission.Status != model.SubmissionPending {
		t.Errorf("status = %q, want pending", v.Submission.Status)
	}
	if route := w.Dismiss(); route != "" {
		t.Errorf("dismiss after failure = %q, want empty", route)
	}
}

func TestProcessingBlocksSecondConfirm(t *testing.T) {
	b := &fakeBackend{sub: pending(), block: make(chan struct{})}
	w := loaded(t, b)
	w.Open(Accept)

	done := make(chan error, 1)
	go func() { done <- w.Confirm(context.Background()) }()

	// Wait for the first confirm to enter processing.
	for w.View().Modal != Processing {
	}
	v := w.View()
	if v.ConfirmLabel != "Processing..." {
		t.Errorf("label = %q, want %q", v.ConfirmLabel, "Processing...")
	}
	if v.CanConfirm {
		t.Error("confirm should be disabled while processing")
	}
	if err := w.Confirm(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second confirm = %v, want ErrBusy", err)
	}
	if route := w.Dismiss(); route != "" {
		t.Errorf("dismiss while processing = %q, want empty", route)
	}

	close(b.block)
	if err := <-done; err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(b.verifies) != 1 {
		t.Errorf("verifies = %d, want 1", len(b.verifies))
	}
}

func TestConfirmWithoutOpen(t *testing.T) {
	w := loaded(t, &fakeBackend{sub: pending()})
	if err := w.Confirm(context.Background()); !errors.Is(err, ErrNoAction) {
		t.Errorf("confirm = %v, want ErrNoAction", err)
	}
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"accept", "Reject", " delete "} {
		if _, err := ParseAction(s); err != nil {
			t.Errorf("ParseAction(%q): %v", s, err)
		}
	}
	if _, err := ParseAction("approve-all"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction(approve-all) = %v, want ErrUnknownAction", err)
	}
}
