package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

// localUserID identifies the single user when authentication is disabled.
const localUserID = "local"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		allowNoLogin := r.URL.Path == "/api/auth/login" || r.URL.Path == "/api/auth/status" || r.URL.Path == "/api/auth/logout"

		var user types.User
		if s.bypassAuth {
			user = types.User{ID: localUserID, Admin: true}
		} else {
			authCookie, err := r.Cookie(authTokenCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				log.Ctx(ctx).ErrorContext(ctx, "failed to get auth cookie", slog.Any("error", err))
				writeJSONError(w, "missing auth cookie", http.StatusBadRequest)
				return
			}
			if authCookie != nil {
				email, subject, _, err := s.authenticateToken(ctx, authCookie.Value)
				if err != nil {
					log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
					s.clearCookie(w)
					writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
					return
				}
				user = types.User{
					ID:    subject,
					Email: email,
					Admin: len(s.adminEmails) == 0 || s.isAdmin(email),
				}
			} else if !allowNoLogin {
				log.Ctx(ctx).WarnContext(ctx, "unauthenticated request")
				writeJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		if user.ID != "" {
			ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("authUserID", user.ID)))
			ctx = context.WithValue(ctx, userContextKey, user)
		}
		log.Ctx(ctx).DebugContext(ctx, "authenticated request", slog.String("email", user.Email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin writes a 403 and returns false unless the request's user may
// change shared configuration.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user := s.getUser(r)
	if user.Admin {
		return true
	}
	ctx := r.Context()
	log.Ctx(ctx).WarnContext(ctx, "admin required", slog.String("userID", user.ID), slog.String("email", user.Email))
	writeJSONError(w, "forbidden", http.StatusForbidden)
	return false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	email, subject, expires, err := s.authenticateToken(r.Context(), req.Token)
	if err != nil {
		log.Ctx(r.Context()).WarnContext(r.Context(), "failed to validate id token", slog.Any("error", err))
		writeJSONError(w, "invalid id token", http.StatusUnauthorized)
		return
	}
	if email == "" {
		log.Ctx(r.Context()).WarnContext(r.Context(), "invalid email in id token")
		writeJSONError(w, "invalid oidc claims", http.StatusUnauthorized)
		return
	}

	log.Ctx(r.Context()).InfoContext(r.Context(), "login token validated successfully", slog.String("email", email), slog.String("subject", subject))

	http.SetCookie(w, &http.Cookie{
		Name:     authTokenCookie,
		Value:    req.Token,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	})

	w.WriteHeader(http.StatusOK)
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authTokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w)
	w.WriteHeader(http.StatusOK)
}

type authStatusResponse struct {
	LoggedIn     bool   `json:"loggedIn"`
	Email        string `json:"email"`
	Admin        bool   `json:"admin"`
	AuthRequired bool   `json:"authRequired"`
	ClientID     string `json:"clientID,omitempty"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	user := s.getUser(r)
	writeJSON(w, http.StatusOK, authStatusResponse{
		LoggedIn:     user.ID != "",
		Email:        user.Email,
		Admin:        user.Admin,
		AuthRequired: !s.bypassAuth,
		ClientID:     s.oidcAudience,
	})
}

func (s *Server) authenticateToken(ctx context.Context, token string) (string, string, time.Time, error) {
	if s.oidcVerifier == nil {
		return "", "", time.Time{}, errors.New("no oidc audience configured")
	}
	id, err := s.oidcVerifier(ctx, token)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return id.Email, id.Subject, id.Expiry, nil
}
