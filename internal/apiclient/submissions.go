package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kce-spotlight/console/internal/model"
)

func (c *Client) ListSubmissions(ctx context.Context, p ListParams) (Listing[model.Submission], error) {
	return List[model.Submission](ctx, c, "/rewards/submissions", p)
}

// GetSubmission returns one submission. A missing record is an *Error
// with status 404 (see IsNotFound).
func (c *Client) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	body, err := c.GetRaw(ctx, "/rewards/submissions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	sub, err := decodeOne[model.Submission](body)
	if err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	if sub == nil {
		return nil, &Error{Status: http.StatusNotFound, Message: "Submission not found"}
	}
	return sub, nil
}

type verifyRequest struct {
	Status model.SubmissionStatus `json:"status"`
	Reason string                 `json:"reason,omitempty"`
}

// VerifySubmission approves or rejects a pending submission.
func (c *Client) VerifySubmission(ctx context.Context, id string, status model.SubmissionStatus, reason string) error {
	return c.SendJSON(ctx, http.MethodPatch, "/rewards/submissions/"+url.PathEscape(id)+"/verify",
		verifyRequest{Status: status, Reason: reason}, nil)
}

func (c *Client) DeleteSubmission(ctx context.Context, id string) error {
	return c.Delete(ctx, "/rewards/submission/"+url.PathEscape(id))
}

// decodeOne accepts a bare object or one wrapped as {"data": {...}}.
// It returns nil for null or empty bodies.
func decodeOne[T any](body []byte) (*T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if d := bytes.TrimSpace(wrapped.Data); len(d) > 0 && d[0] == '{' {
			body = d
		}
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
