package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

func (s *Server) getSettingsWithMigration(ctx context.Context, userID string) (types.Settings, error) {
	settings, version, err := s.storage.GetSettings(ctx, userID)
	if err != nil {
		return types.Settings{}, err
	}
	if version >= types.CurrentSettingsVersion {
		return settings, nil
	}

	log.Ctx(ctx).InfoContext(ctx, "migrating settings", slog.Int("oldVersion", version), slog.Int("newVersion", types.CurrentSettingsVersion))
	migrated, changed, err := types.MigrateSettings(settings, version)
	if err != nil {
		// best effort, serve what we have
		log.Ctx(ctx).ErrorContext(ctx, "failed to migrate settings", slog.Int("currentVersion", version), slog.Any("error", err))
		return settings, nil
	}
	if !changed {
		return settings, nil
	}
	if err := s.storage.SetSettings(ctx, userID, migrated, types.CurrentSettingsVersion); err != nil {
		// the current request still gets the new defaults
		log.Ctx(ctx).ErrorContext(ctx, "failed to save migrated settings", slog.Any("error", err))
	} else {
		log.Ctx(ctx).InfoContext(ctx, "saved migrated settings", slog.Int("oldVersion", version), slog.Int("newVersion", types.CurrentSettingsVersion))
	}
	return migrated, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	settings, err := s.getSettingsWithMigration(ctx, user.ID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}
	if settings.Email == "" {
		settings.Email = user.Email
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.getUser(r)
	if user.ID == "" {
		writeJSONError(w, "missing authentication", http.StatusUnauthorized)
		return
	}

	var newSettings types.Settings
	if err := json.NewDecoder(r.Body).Decode(&newSettings); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode settings", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	newSettings.Name = strings.TrimSpace(newSettings.Name)
	newSettings.Currency = strings.ToUpper(strings.TrimSpace(newSettings.Currency))
	if newSettings.Email != "" {
		if _, err := mail.ParseAddress(newSettings.Email); err != nil {
			writeJSONError(w, "invalid email address", http.StatusBadRequest)
			return
		}
	}
	if len(newSettings.Currency) != 3 {
		writeJSONError(w, "currency must be a 3 letter code", http.StatusBadRequest)
		return
	}
	if newSettings.DefaultResidenceID != 0 {
		if _, err := s.store.Residence(newSettings.DefaultResidenceID); err != nil {
			writeJSONError(w, "default residence not found", http.StatusBadRequest)
			return
		}
	}

	if err := s.storage.SetSettings(ctx, user.ID, newSettings, types.CurrentSettingsVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save settings", slog.Any("error", err))
		writeJSONError(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "settings updated")
	w.WriteHeader(http.StatusOK)
}
