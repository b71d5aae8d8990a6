package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energywise/energywise/pkg/types"
)

func newAuthServer() *Server {
	return &Server{
		oidcAudience: "test-audience",
		adminEmails:  []string{"admin@example.com"},
		oidcVerifier: func(ctx context.Context, token string) (identity, error) {
			switch token {
			case "user-token":
				return identity{Email: "user@example.com", Subject: "user-1", Expiry: time.Now().Add(time.Hour)}, nil
			case "admin-token":
				return identity{Email: "admin@example.com", Subject: "admin-1", Expiry: time.Now().Add(time.Hour)}, nil
			case "no-email-token":
				return identity{Subject: "anon", Expiry: time.Now().Add(time.Hour)}, nil
			}
			return identity{}, assert.AnError
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newAuthServer()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := r.Context().Value(userContextKey).(types.User); ok {
			w.Header().Set("X-Email", user.Email)
			if user.Admin {
				w.Header().Set("X-Admin", "true")
			} else {
				w.Header().Set("X-Admin", "false")
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	createReq := func(path, token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: token})
		}
		return req
	}

	tests := []struct {
		name  string
		path  string
		token string
		code  int
		email string
		admin string
	}{
		{"no cookie", "/api/residences", "", http.StatusUnauthorized, "", ""},
		{"status without login", "/api/auth/status", "", http.StatusOK, "", ""},
		{"invalid token", "/api/residences", "bad-token", http.StatusUnauthorized, "", ""},
		{"user", "/api/residences", "user-token", http.StatusOK, "user@example.com", "false"},
		{"admin", "/api/residences", "admin-token", http.StatusOK, "admin@example.com", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.authMiddleware(testHandler).ServeHTTP(w, createReq(tt.path, tt.token))
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.email, w.Header().Get("X-Email"))
			assert.Equal(t, tt.admin, w.Header().Get("X-Admin"))
		})
	}

	t.Run("invalid token clears cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.authMiddleware(testHandler).ServeHTTP(w, createReq("/api/residences", "bad-token"))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, authTokenCookie, cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("everyone is admin without admin emails", func(t *testing.T) {
		open := newAuthServer()
		open.adminEmails = nil
		w := httptest.NewRecorder()
		open.authMiddleware(testHandler).ServeHTTP(w, createReq("/api/residences", "user-token"))
		assert.Equal(t, "true", w.Header().Get("X-Admin"))
	})

	t.Run("bypass", func(t *testing.T) {
		bypass := &Server{bypassAuth: true}
		w := httptest.NewRecorder()
		bypass.authMiddleware(testHandler).ServeHTTP(w, createReq("/api/residences", ""))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("X-Admin"))
	})
}

func TestRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.srv.bypassAuth = false
	env.srv.oidcAudience = "test-audience"
	env.srv.adminEmails = []string{"admin@example.com"}
	env.srv.oidcVerifier = newAuthServer().oidcVerifier
	handler := env.srv.setupHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/sma/disconnect", nil)
	req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: "user-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/integrations/sma/disconnect", nil)
	req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: "admin-token"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	srv := newAuthServer()

	login := func(token string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"token": token})
		w := httptest.NewRecorder()
		srv.handleLogin(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
		return w
	}

	w := login("user-token")
	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "user-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	assert.Equal(t, http.StatusUnauthorized, login("bad-token").Code)
	assert.Equal(t, http.StatusUnauthorized, login("no-email-token").Code)

	w = httptest.NewRecorder()
	srv.handleLogin(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthStatus(t *testing.T) {
	srv := newAuthServer()
	handler := srv.authMiddleware(http.HandlerFunc(srv.handleAuthStatus))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: "user-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	status := decode[authStatusResponse](t, w)
	assert.True(t, status.LoggedIn)
	assert.True(t, status.AuthRequired)
	assert.Equal(t, "user@example.com", status.Email)
	assert.Equal(t, "test-audience", status.ClientID)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))
	assert.False(t, decode[authStatusResponse](t, w).LoggedIn)
}
