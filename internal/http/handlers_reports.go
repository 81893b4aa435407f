package http

import (
	"net/http"
	"time"

	"fintrack/internal/export"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	rep, err := s.reports.Build(r.Context(), identity(r), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}

	list, err := s.reports.SpendingTrends(r.Context(), identity(r), period)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(list))
}

// handleReportExport streams the report as a CSV or PDF download.
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	rep, err := s.reports.Build(r.Context(), identity(r), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "csv":
		body, err = export.ReportCSV(rep, rng)
		contentType = "text/csv; charset=utf-8"
	case "pdf":
		body, err = export.ReportPDF(rep, rng)
		contentType = "application/pdf"
	default:
		writeJSON(w, http.StatusUnprocessableEntity,
			errorResponse{Error: "unknown export format, want csv or pdf"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+export.ReportFilename(format, time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
