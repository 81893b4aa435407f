package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type goalRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetAmount string `json:"targetAmount"`
	Category     string `json:"category"`
	Priority     string `json:"priority"`
	TargetDate   string `json:"targetDate"`
}

type goalUpdateRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	TargetAmount  *string `json:"targetAmount"`
	CurrentAmount *string `json:"currentAmount"`
	Category      *string `json:"category"`
	Priority      *string `json:"priority"`
	TargetDate    *string `json:"targetDate"`
}

type contributionRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var targetDate time.Time
	if req.TargetDate != "" {
		if targetDate, err = parseDate(req.TargetDate); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
	}

	g, err := s.goals.Create(r.Context(), identity(r), core.Goal{
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: target,
		Category:     req.Category,
		Priority:     core.GoalPriority(req.Priority),
		TargetDate:   targetDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(g))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.goals.List(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTOs(list))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.goals.Get(r.Context(), identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	target, err := parseOptionalAmount(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := parseOptionalBalance(req.CurrentAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	targetDate, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	u := core.GoalUpdate{
		Title:         req.Title,
		Description:   req.Description,
		TargetAmount:  target,
		CurrentAmount: current,
		Category:      req.Category,
		TargetDate:    targetDate,
	}
	if req.Priority != nil {
		p := core.GoalPriority(*req.Priority)
		if !p.Valid() {
			writeError(w, r, core.ErrInvalidPriority)
			return
		}
		u.Priority = &p
	}

	g, err := s.goals.Update(r.Context(), identity(r), r.PathValue("id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(r.Context(), identity(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.goals.AddContribution(r.Context(), identity(r), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTO(g))
}
