package model

import "time"

// User is the staff identity returned by the backend at login.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is a signed-in console session. BackendToken is only populated
// after the session service unseals SealedToken.
type Session struct {
	ID           int64     `json:"id"`
	Token        string    `json:"token"`
	BackendToken string    `json:"-"`
	SealedToken  []byte    `json:"-"`
	User         *User     `json:"user"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditEvent struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
