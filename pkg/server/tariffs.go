package server

import (
	"net/http"
)

func (s *Server) handleListTariffs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rates.List())
}
