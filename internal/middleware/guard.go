package middleware

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/kce-spotlight/console/internal/auth"
	"github.com/kce-spotlight/console/internal/model"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
	// ExpiredLoginPath is where a rejected backend token sends the user.
	ExpiredLoginPath = "/login?sessionExpired=true"
)

// Decision is the outcome of a route-guard check.
type Decision int

const (
	Allow Decision = iota
	ToLogin
	ToUnauthorized
)

func (d Decision) String() string {
	switch d {
	case ToLogin:
		return "login"
	case ToUnauthorized:
		return "unauthorized"
	default:
		return "allow"
	}
}

// Decide is the route-guard rule. A missing session, token or user sends
// the visitor to log in; a role outside a non-empty allowed set is
// unauthorized.
func Decide(sess *model.Session, allowed []string) Decision {
	if sess == nil || sess.Token == "" || sess.BackendToken == "" || sess.User == nil {
		return ToLogin
	}
	if len(allowed) > 0 && !slices.Contains(allowed, sess.User.Role) {
		return ToUnauthorized
	}
	return Allow
}

// SessionGetter loads the session attached to a request.
type SessionGetter interface {
	Get(r *http.Request) (*model.Session, error)
}

// RequireSession guards a subtree. Allowed requests get the session's
// AuthContext attached.
func RequireSession(sessions SessionGetter, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Get(r)
			if err != nil {
				sess = nil
			}
			switch Decide(sess, allowed) {
			case ToLogin:
				Redirect(w, r, loginTarget(r))
				return
			case ToUnauthorized:
				Redirect(w, r, UnauthorizedPath)
				return
			}
			ctx := auth.WithAuth(r.Context(), auth.FromSession(sess))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a nested subtree using the AuthContext attached by
// RequireSession.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.FromContext(r.Context())
			if !ok {
				Redirect(w, r, loginTarget(r))
				return
			}
			if !slices.Contains(allowed, ac.User.Role) {
				Redirect(w, r, UnauthorizedPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loginTarget remembers where a full-page visit was headed.
func loginTarget(r *http.Request) string {
	if r.Method != http.MethodGet || IsHTMX(r) || r.URL.Path == "/" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
}

func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Redirect sends the browser to target. HTMX requests get an HX-Redirect
// header instead of a 303 so the whole page navigates.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
