package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/energywise/energywise/pkg/energy"
	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/store"
	"github.com/energywise/energywise/pkg/types"
)

// pathResidenceID parses the {id} path value, writing a 400 when it's
// invalid.
func pathResidenceID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeJSONError(w, "invalid residence id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// getResidence looks up the {id} residence, writing the error response when
// it can't.
func (s *Server) getResidence(w http.ResponseWriter, r *http.Request) (types.Residence, bool) {
	id, ok := pathResidenceID(w, r)
	if !ok {
		return types.Residence{}, false
	}
	res, err := s.store.Residence(id)
	if err != nil {
		writeStoreError(w, r, err, "failed to get residence")
		return types.Residence{}, false
	}
	return res, true
}

// writeStoreError maps store errors to status codes.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, store.ErrResidenceNotFound):
		writeJSONError(w, "residence not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidResidence), errors.Is(err, store.ErrInvalidReading):
		log.Ctx(ctx).WarnContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrReadingNotIncreasing):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Ctx(ctx).ErrorContext(ctx, msg, slog.Any("error", err))
		writeJSONError(w, msg, http.StatusInternalServerError)
	}
}

func (s *Server) handleListResidences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Residences)
}

func (s *Server) handleGetResidence(w http.ResponseWriter, r *http.Request) {
	res, ok := s.getResidence(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateResidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req types.Residence
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode residence", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	added, err := s.store.AddResidence(ctx, req)
	if err != nil {
		writeStoreError(w, r, err, "failed to add residence")
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "residence added", slog.Int("residenceID", added.ID))
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateResidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathResidenceID(w, r)
	if !ok {
		return
	}
	var req types.Residence
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode residence", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = id

	updated, err := s.store.UpdateResidence(ctx, req)
	if err != nil {
		writeStoreError(w, r, err, "failed to update residence")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteResidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathResidenceID(w, r)
	if !ok {
		return
	}
	if err := s.store.RemoveResidence(ctx, id); err != nil {
		writeStoreError(w, r, err, "failed to remove residence")
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "residence removed", slog.Int("residenceID", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSolarSystem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathResidenceID(w, r)
	if !ok {
		return
	}
	// a null body removes the system
	var system *types.SolarSystem
	if err := json.NewDecoder(r.Body).Decode(&system); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode solar system", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.store.SetSolarSystem(ctx, id, system)
	if err != nil {
		writeStoreError(w, r, err, "failed to set solar system")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	res, ok := s.getResidence(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, energy.ComputeMetrics(res.Data))
}

func (s *Server) handleResidenceForecast(w http.ResponseWriter, r *http.Request) {
	res, ok := s.getResidence(w, r)
	if !ok {
		return
	}
	if !res.HasSolar {
		writeJSONError(w, "residence has no solar system", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.estimator.ForResidence(res))
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	res, ok := s.getResidence(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Readings)
}

func (s *Server) handleRecordReading(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathResidenceID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date        string            `json:"date"`
		ReadingKWH  float64           `json:"reading"`
		SubmittedBy types.SubmittedBy `json:"submittedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode reading", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reading, err := s.store.RecordReading(ctx, id, types.Reading{
		Date:        req.Date,
		ReadingKWH:  req.ReadingKWH,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		writeStoreError(w, r, err, "failed to record reading")
		return
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"reading recorded",
		slog.Int("residenceID", id),
		slog.Float64("usage", reading.UsageKWH),
	)
	writeJSON(w, http.StatusCreated, reading)
}
