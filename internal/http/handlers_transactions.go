package http

import (
	"net/http"

	"fintrack/internal/core"
)

type transactionRequest struct {
	Amount      string  `json:"amount"`
	CategoryID  string  `json:"categoryId"`
	ContactID   *string `json:"contactId"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
}

type transactionUpdateRequest struct {
	Amount      *string `json:"amount"`
	CategoryID  *string `json:"categoryId"`
	ContactID   *string `json:"contactId"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Date        *string `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
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

	t, err := s.transactions.Create(r.Context(), identity(r), core.Transaction{
		Amount:      amount,
		CategoryID:  req.CategoryID,
		ContactID:   req.ContactID,
		Description: req.Description,
		Type:        core.TransactionType(req.Type),
		Date:        date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.transactions.List(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(list))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	amount, err := parseOptionalAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	u := core.TransactionUpdate{
		Amount:      amount,
		CategoryID:  req.CategoryID,
		ContactID:   req.ContactID,
		Description: req.Description,
		Date:        date,
	}
	if req.Type != nil {
		tt := core.TransactionType(*req.Type)
		if !tt.Valid() {
			writeError(w, r, core.ErrInvalidType)
			return
		}
		u.Type = &tt
	}

	t, err := s.transactions.Update(r.Context(), identity(r), r.PathValue("id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
