package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/solar"
	"github.com/energywise/energywise/pkg/types"
)

// simulationRequest either carries a full energy profile, or references a
// residence whose installed system is adjusted by the scenario.
type simulationRequest struct {
	Profile     *types.ResidenceEnergyProfile `json:"profile,omitempty"`
	ResidenceID int                           `json:"residenceID,omitempty"`
	Scenario    *solar.Scenario               `json:"scenario,omitempty"`
}

type simulationResponse struct {
	Inputs   types.ResidenceEnergyProfile `json:"inputs"`
	Scenario *solar.Scenario              `json:"scenario,omitempty"`
	types.YieldForecast
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode simulation", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var in types.ResidenceEnergyProfile
	switch {
	case req.Profile != nil:
		in = *req.Profile
	case req.ResidenceID != 0:
		res, err := s.store.Residence(req.ResidenceID)
		if err != nil {
			writeStoreError(w, r, err, "failed to get residence")
			return
		}
		in = s.estimator.Profile().InputsFor(res)
	default:
		writeJSONError(w, "profile or residenceID is required", http.StatusBadRequest)
		return
	}

	resp := simulationResponse{Inputs: in, Scenario: req.Scenario}
	if req.Scenario != nil {
		resp.Inputs.PowerKWP = req.Scenario.EffectivePower(in.PowerKWP)
		resp.YieldForecast = s.estimator.Simulate(in, *req.Scenario)
	} else {
		resp.YieldForecast = s.estimator.Estimate(in)
	}
	writeJSON(w, http.StatusOK, resp)
}
