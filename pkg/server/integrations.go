package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/energywise/energywise/pkg/integration"
	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

func pathProvider(r *http.Request) types.IntegrationID {
	return types.IntegrationID(r.PathValue("provider"))
}

func writeIntegrationError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, integration.ErrUnknownProvider):
		writeJSONError(w, "unknown integration", http.StatusNotFound)
	case errors.Is(err, integration.ErrMissingCredentials), errors.Is(err, integration.ErrInvalidCredentials):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, integration.ErrUnauthorized):
		log.Ctx(ctx).WarnContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, "credentials were rejected by the provider", http.StatusBadRequest)
	case errors.Is(err, integration.ErrNotConnected):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Ctx(ctx).ErrorContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, msg, http.StatusInternalServerError)
	}
}

func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	list, err := s.integrations.List(r.Context())
	if err != nil {
		writeIntegrationError(w, r, err, "failed to list integrations")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleIntegrationStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.integrations.Status(r.Context(), pathProvider(r))
	if err != nil {
		writeIntegrationError(w, r, err, "failed to get integration status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleConnectIntegration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.requireAdmin(w, r) {
		return
	}
	var creds types.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode credentials", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	st, err := s.integrations.Connect(ctx, pathProvider(r), creds)
	if err != nil {
		writeIntegrationError(w, r, err, "failed to connect integration")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	st, err := s.integrations.Disconnect(r.Context(), pathProvider(r))
	if err != nil {
		writeIntegrationError(w, r, err, "failed to disconnect integration")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleRefreshIntegration reconnects with the stored credentials, renewing an
// expired integration without asking for them again.
func (s *Server) handleRefreshIntegration(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	st, err := s.integrations.Refresh(r.Context(), pathProvider(r))
	if err != nil {
		writeIntegrationError(w, r, err, "failed to refresh integration")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
