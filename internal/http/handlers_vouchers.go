package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

type voucherRequest struct {
	Type                 string  `json:"type"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Amount               string  `json:"amount"`
	Category             string  `json:"category"`
	Date                 string  `json:"date"`
	RelatedTransactionID *string `json:"relatedTransactionId"`
	RelatedGoalID        *string `json:"relatedGoalId"`
}

func (s *Server) handleCreateVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	v, err := s.vouchers.Create(r.Context(), identity(r), core.Voucher{
		Type:                 core.VoucherType(req.Type),
		Title:                req.Title,
		Description:          req.Description,
		Amount:               amount,
		Category:             req.Category,
		Date:                 date,
		RelatedTransactionID: req.RelatedTransactionID,
		RelatedGoalID:        req.RelatedGoalID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVoucherDTO(v))
}

func (s *Server) handleListVouchers(w http.ResponseWriter, r *http.Request) {
	list, err := s.vouchers.List(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVoucherDTOs(list))
}

func (s *Server) handleGetVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVoucherDTO(v))
}

func (s *Server) handleVoidVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.vouchers.Void(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVoucherDTO(v))
}

func (s *Server) handleDeleteVoucher(w http.ResponseWriter, r *http.Request) {
	if err := s.vouchers.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVoucherPDF streams the voucher as a rendered PDF download.
func (s *Server) handleVoucherPDF(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	v, err := s.vouchers.Get(r.Context(), id, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	pdf, err := export.VoucherPDF(v, id.DisplayName, id.Email, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.VoucherFilename(v)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
