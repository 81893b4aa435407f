package http

import (
	"net/http"

	"fintrack/internal/core"
)

type contactRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Priority   string `json:"priority"`
}

type contactUpdateRequest struct {
	Name       *string `json:"name"`
	CategoryID *string `json:"categoryId"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Address    *string `json:"address"`
	Priority   *string `json:"priority"`
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.contacts.Create(r.Context(), identity(r), core.Contact{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		Priority:   req.Priority,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactDTO(c))
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.contacts.List(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactDTOs(list))
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.contacts.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactDTO(c))
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var req contactUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.contacts.Update(r.Context(), identity(r), r.PathValue("id"), core.ContactUpdate{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		Priority:   req.Priority,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactDTO(c))
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.contacts.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
