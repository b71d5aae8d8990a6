package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/reports"
	"github.com/energywise/energywise/pkg/types"
)

const defaultReportDays = 30

type reportsResponse struct {
	Days    []types.DailyReport `json:"days"`
	Totals  types.DailyReport   `json:"totals"`
	Average types.DailyReport   `json:"average"`
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, ok := s.getResidence(w, r)
	if !ok {
		return
	}

	days := defaultReportDays
	if v := r.URL.Query().Get("days"); v != "" {
		var err error
		days, err = strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, "invalid days", http.StatusBadRequest)
			return
		}
	}

	daily, err := s.reports.Daily(res, s.now(), days)
	if err != nil {
		if errors.Is(err, reports.ErrInvalidDays) {
			writeJSONError(w, fmt.Sprintf("days must be one of %v", reports.ValidDays), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to generate reports", slog.Int("residenceID", res.ID), slog.Any("error", err))
		writeJSONError(w, "failed to generate reports", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="residence-%d-%dd.csv"`, res.ID, days))
		w.WriteHeader(http.StatusOK)
		if err := reports.WriteCSV(w, daily); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to write csv", slog.Any("error", err))
			panic(http.ErrAbortHandler)
		}
		return
	}

	totals := reports.Totals(daily)
	writeJSON(w, http.StatusOK, reportsResponse{
		Days:    daily,
		Totals:  totals,
		Average: reports.Average(totals, len(daily)),
	})
}
