package model

import (
	"strings"
	"time"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Label is the capitalised display form. An empty status reads as Pending.
func (s SubmissionStatus) Label() string {
	if s == "" {
		return "Pending"
	}
	v := string(s)
	return strings.ToUpper(v[:1]) + v[1:]
}

// Terminal reports whether no further admin transition is offered.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// Submission is a student's request for recognition of an achievement.
// The backend exposes its id as submissionId in list responses and _id
// elsewhere.
type Submission struct {
	ID           string           `json:"_id,omitempty"`
	SubmissionID string           `json:"submissionId,omitempty"`
	Name         string           `json:"name"`
	RollNo       string           `json:"rollNo"`
	Department   string           `json:"department"`
	College      string           `json:"college"`
	Batch        string           `json:"batch"`
	Category     string           `json:"category"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	ProofLink    string           `json:"proofLink,omitempty"`
	Status       SubmissionStatus `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Key returns the identifier used for detail, verify and delete calls.
func (s Submission) Key() string {
	if s.SubmissionID != "" {
		return s.SubmissionID
	}
	return s.ID
}

// Pending reports whether the submission still awaits verification.
func (s Submission) Pending() bool {
	return s.Status == "" || s.Status == SubmissionPending
}
