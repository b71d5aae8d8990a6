package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"

	"github.com/energywise/energywise/pkg/integration"
	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/observability"
	"github.com/energywise/energywise/pkg/reports"
	"github.com/energywise/energywise/pkg/solar"
	"github.com/energywise/energywise/pkg/storage"
	"github.com/energywise/energywise/pkg/store"
	"github.com/energywise/energywise/pkg/tariff"
	"github.com/energywise/energywise/pkg/tips"
	"github.com/energywise/energywise/pkg/types"
)

const (
	authTokenCookie = "auth_token"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

// identity is what a validated ID token tells us about the user.
type identity struct {
	Email   string
	Subject string
	Expiry  time.Time
}

// tokenVerifier is a function that validates a Google ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (identity, error)

func oidcTokenVerifier(v *oidc.IDTokenVerifier) tokenVerifier {
	return func(ctx context.Context, rawIDToken string) (identity, error) {
		idToken, err := v.Verify(ctx, rawIDToken)
		if err != nil {
			return identity{}, err
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return identity{}, err
		}
		return identity{Email: claims.Email, Subject: idToken.Subject, Expiry: idToken.Expiry}, nil
	}
}

// Deps are the components the Server serves.
type Deps struct {
	Store        *store.Store
	Storage      storage.Database
	Estimator    *solar.Estimator
	Rates        *tariff.Rates
	Reports      *reports.Generator
	Tips         *tips.Suggester
	Integrations *integration.Service
	Metrics      *observability.Metrics
}

// Server handles the HTTP API of the dashboard.
type Server struct {
	store        *store.Store
	storage      storage.Database
	estimator    *solar.Estimator
	rates        *tariff.Rates
	reports      *reports.Generator
	tips         *tips.Suggester
	integrations *integration.Service
	metrics      *observability.Metrics

	listenAddr string
	devProxy   string
	webDir     string
	httpServer *http.Server

	adminEmails      []string
	oidcAudience     string
	oidcVerifier     tokenVerifier
	bypassAuth       bool
	serverName       string
	webCacheDuration time.Duration

	now func() time.Time
}

// New returns a Server with authentication bypassed. Use Configured outside
// of tests.
func New(d Deps) *Server {
	return &Server{
		store:        d.Store,
		storage:      d.Storage,
		estimator:    d.Estimator,
		rates:        d.Rates,
		reports:      d.Reports,
		tips:         d.Tips,
		integrations: d.Integrations,
		metrics:      d.Metrics,
		bypassAuth:   true,
		serverName:   "energywise",
		now:          time.Now,
	}
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(d Deps) *Server {
	srv := New(d)
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	devProxy := lflag.String("dev-proxy", "", "Address of the dashboard dev server (e.g. http://localhost:5173)")
	webDir := lflag.String("web-dir", "", "Directory of the built dashboard to serve at /")
	adminEmails := lflag.String("admin-emails", "", "comma-delimited list of email addresses allowed to manage integrations")
	oidcAudience := lflag.String("oidc-audience", "", "Google client ID to validate id tokens against. Empty disables authentication")
	webCacheDuration := lflag.Duration("web-cache-duration", 0, "Duration to cache web files (e.g. 1h, 5m). 0 means no cache.")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.devProxy = *devProxy
		srv.webDir = *webDir
		srv.webCacheDuration = *webCacheDuration
		if *adminEmails != "" {
			srv.adminEmails = strings.Split(*adminEmails, ",")
			for i, email := range srv.adminEmails {
				srv.adminEmails[i] = strings.TrimSpace(email)
			}
		}
		if *oidcAudience != "" {
			provider, err := oidc.NewProvider(context.Background(), "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcAudience = *oidcAudience
			srv.oidcVerifier = oidcTokenVerifier(provider.Verifier(&oidc.Config{ClientID: *oidcAudience}))
			srv.bypassAuth = false
		} else {
			log.Ctx(context.Background()).Warn("no oidc-audience set, authentication is disabled")
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	s.handle(apiMux, "GET /api/residences", s.handleListResidences)
	s.handle(apiMux, "POST /api/residences", s.handleCreateResidence)
	s.handle(apiMux, "GET /api/residences/{id}", s.handleGetResidence)
	s.handle(apiMux, "PUT /api/residences/{id}", s.handleUpdateResidence)
	s.handle(apiMux, "DELETE /api/residences/{id}", s.handleDeleteResidence)
	s.handle(apiMux, "PUT /api/residences/{id}/solar", s.handleSetSolarSystem)
	s.handle(apiMux, "GET /api/residences/{id}/metrics", s.handleMetrics)
	s.handle(apiMux, "GET /api/residences/{id}/forecast", s.handleResidenceForecast)
	s.handle(apiMux, "GET /api/residences/{id}/readings", s.handleListReadings)
	s.handle(apiMux, "POST /api/residences/{id}/readings", s.handleRecordReading)
	s.handle(apiMux, "GET /api/residences/{id}/reports", s.handleReports)
	s.handle(apiMux, "GET /api/residences/{id}/tips", s.handlePersonalizedTips)
	s.handle(apiMux, "POST /api/simulation", s.handleSimulation)
	s.handle(apiMux, "GET /api/tips", s.handleListTips)
	s.handle(apiMux, "GET /api/tariffs", s.handleListTariffs)
	s.handle(apiMux, "GET /api/integrations", s.handleListIntegrations)
	s.handle(apiMux, "GET /api/integrations/{provider}/status", s.handleIntegrationStatus)
	s.handle(apiMux, "POST /api/integrations/{provider}/connect", s.handleConnectIntegration)
	s.handle(apiMux, "POST /api/integrations/{provider}/disconnect", s.handleDisconnectIntegration)
	s.handle(apiMux, "POST /api/integrations/{provider}/refresh", s.handleRefreshIntegration)
	s.handle(apiMux, "GET /api/settings", s.handleGetSettings)
	s.handle(apiMux, "POST /api/settings", s.handleUpdateSettings)
	s.handle(apiMux, "GET /api/auth/status", s.handleAuthStatus)
	s.handle(apiMux, "POST /api/auth/login", s.handleLogin)
	s.handle(apiMux, "POST /api/auth/logout", s.handleLogout)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))

	// serve the dashboard, either from a directory or from the dev server
	switch {
	case s.devProxy != "":
		u, err := url.Parse(s.devProxy)
		if err != nil {
			panic(fmt.Errorf("invalid dev-proxy url (%s): %w", s.devProxy, err))
		}
		mux.Handle("/", httputil.NewSingleHostReverseProxy(u))
	case s.webDir != "":
		dir := os.DirFS(s.webDir)
		mux.Handle("/", s.webHandler(dir, http.FileServer(http.FS(dir))))
	}
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", s.metrics.Handler())
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// handle registers h under pattern and records request metrics labeled by
// the pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.WrapHandler(pattern, h))
}

func (s *Server) getUser(r *http.Request) types.User {
	if user, ok := r.Context().Value(userContextKey).(types.User); ok {
		return user
	}
	return types.User{}
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) webHandler(dir fs.FS, h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// unknown paths get index.html so client-side routes work
		if r.URL.Path != "/" {
			f, err := dir.Open(strings.TrimPrefix(r.URL.Path, "/"))
			if err == nil {
				f.Close()
			} else if errors.Is(err, fs.ErrNotExist) {
				if strings.HasPrefix(r.URL.Path, "/.well-known/") {
					// we don't write JSON here because we don't know what file type is expected
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				r.URL.Path = "/"
			} else {
				log.Ctx(r.Context()).ErrorContext(r.Context(), "failed to open file", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}
		if s.webCacheDuration > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.webCacheDuration.Seconds())))
		}

		h.ServeHTTP(w, r)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

// isAdmin returns true if the email is in the adminEmails list.
func (s *Server) isAdmin(email string) bool {
	for _, adminEmail := range s.adminEmails {
		if email == adminEmail {
			return true
		}
	}
	return false
}
