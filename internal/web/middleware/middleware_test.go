package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func TestTrustedRealIP(t *testing.T) {
	handler := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"})

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps socket", "203.0.113.9:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:5000"},
		{"trusted real ip", "10.1.2.3:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", "192.168.1.5:5000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"trusted invalid header", "10.1.2.3:5000", map[string]string{"X-Real-IP": "garbage"}, "10.1.2.3:5000"},
		{"trusted no header", "10.1.2.3:5000", nil, "10.1.2.3:5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got := ParseTrustedProxies([]string{" 10.0.0.1/8 ", "", "::1", "bogus"})
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "::1/128", got[1].String())
}

type stubAuthenticator map[string]core.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (core.User, error) {
	u, ok := s[token]
	if !ok {
		return core.User{}, fmt.Errorf("%w: invalid session", core.ErrUnauthorized)
	}
	return u, nil
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	users := stubAuthenticator{
		"admin-token": {ID: 1, Username: "root", Role: core.RoleAdmin},
		"user-token":  {ID: 2, Username: "clerk", Role: core.RoleUser},
	}
	var failure error
	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		failure = err
		w.WriteHeader(http.StatusTeapot)
	}

	var actor core.Actor
	chain := Authenticate(users, "session", onError)(RequireRole(core.RoleAdmin, onError)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ = core.ActorFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})))

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
		kind   error
	}{
		{"no token", func(*http.Request) {}, http.StatusTeapot, core.ErrUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusTeapot, core.ErrUnauthorized},
		{"wrong role", func(r *http.Request) { r.Header.Set("Authorization", "Bearer user-token") }, http.StatusTeapot, core.ErrForbidden},
		{"bearer admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") }, http.StatusOK, nil},
		{"cookie admin", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "admin-token"}) }, http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure, actor = nil, core.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.kind != nil {
				assert.True(t, errors.Is(failure, tt.kind), "got %v", failure)
				return
			}
			assert.Equal(t, "root", actor.Username)
			assert.Equal(t, core.RoleAdmin, actor.Role)
		})
	}
}

func TestLoggerRecordsUser(t *testing.T) {
	users := stubAuthenticator{"t": {ID: 2, Username: "clerk", Role: core.RoleUser}}
	var seen *responseWriter
	h := Logger(Authenticate(users, "session", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = w.(*responseWriter)
		w.WriteHeader(http.StatusAccepted)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "clerk", seen.user)
	assert.Equal(t, http.StatusAccepted, seen.status)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
