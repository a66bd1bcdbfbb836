package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

// Authenticator resolves a session token to a signed-in user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.User, error)
}

// ErrorResponder renders err for the client. The web layer supplies one so
// middleware failures look like handler failures.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

type userKey struct{}

// UserFromContext returns the user attached by Authenticate.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey{}).(core.User)
	return u, ok
}

// WithUser attaches u as the signed-in user and audit actor.
func WithUser(ctx context.Context, u core.User) context.Context {
	ctx = context.WithValue(ctx, userKey{}, u)
	return core.ContextWithActor(ctx, core.Actor{UserID: u.ID, Username: u.Username, Role: u.Role})
}

// SessionToken reads the bearer token, falling back to the session cookie.
func SessionToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate rejects requests without a valid session. Accepted requests
// carry the user in their context.
func Authenticate(auth Authenticator, cookieName string, onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r, cookieName)
			if token == "" {
				onError(w, r, fmt.Errorf("%w: no session", core.ErrUnauthorized))
				return
			}
			u, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				slog.Warn("auth: session rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				onError(w, r, err)
				return
			}
			noteUser(w, u.Username)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireRole lets through only users holding role. It must run after
// Authenticate.
func RequireRole(role core.Role, onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				onError(w, r, fmt.Errorf("%w: no session", core.ErrUnauthorized))
				return
			}
			if u.Role != role {
				slog.Warn("auth: role denied",
					"path", r.URL.Path,
					"user_id", u.ID,
					"role", u.Role,
					"required", role,
				)
				onError(w, r, fmt.Errorf("%w: %s required", core.ErrForbidden, role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
