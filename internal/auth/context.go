package auth

import (
	"context"

	"github.com/kce-spotlight/console/internal/model"
)

type contextKey struct{}

// AuthContext is the signed-in staff member attached to a request.
type AuthContext struct {
	SessionToken string
	BackendToken string
	User         model.User
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromSession builds the AuthContext for a loaded session.
func FromSession(sess *model.Session) AuthContext {
	ac := AuthContext{SessionToken: sess.Token, BackendToken: sess.BackendToken}
	if sess.User != nil {
		ac.User = *sess.User
	}
	return ac
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func BackendToken(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.BackendToken
}

func SessionToken(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.SessionToken
}

// Actor names the staff member for audit records.
func Actor(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return "anonymous"
	}
	if ac.User.Email != "" {
		return ac.User.Email
	}
	return ac.User.Name
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.User.Role == model.RoleAdmin
}
