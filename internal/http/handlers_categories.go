package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name     string  `json:"name"`
	Icon     string  `json:"icon"`
	ParentID *string `json:"parentId"`
}

type categoryUpdateRequest struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.categories.Create(r.Context(), identity(r), core.Category{
		Name:     req.Name,
		Icon:     req.Icon,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

// handleListCategories lists the whole forest, or one level of it when
// the parent query parameter is given ("root" selects the roots).
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	if parent := r.URL.Query().Get("parent"); parent != "" {
		var parentID *string
		if parent != "root" {
			parentID = &parent
		}
		children, err := s.categories.Children(r.Context(), id, parentID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toCategoryDTOs(children))
		return
	}

	all, err := s.categories.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTOs(all))
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request) {
	seeded, err := s.categories.EnsureDefaults(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTOs(seeded))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.categories.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := s.categories.Update(r.Context(), identity(r), r.PathValue("id"), core.CategoryUpdate{
		Name: req.Name,
		Icon: req.Icon,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
