package server

import (
	"net/http"

	"github.com/energywise/energywise/pkg/tips"
	"github.com/energywise/energywise/pkg/types"
)

type savingTipResponse struct {
	types.SavingTip
	Performance string `json:"performance"`
}

func (s *Server) handleListTips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := tips.Filter(tips.Catalog(), q.Get("category"), q.Get("difficulty"))
	resp := make([]savingTipResponse, len(list))
	for i, t := range list {
		resp[i] = savingTipResponse{SavingTip: t, Performance: t.PerformanceLabel()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePersonalizedTips(w http.ResponseWriter, r *http.Request) {
	res, ok := s.getResidence(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.tips.Suggest(r.Context(), res.Data))
}
