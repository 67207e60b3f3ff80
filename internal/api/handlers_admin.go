package api

import (
	"net/http"
	"time"

	"avtoservis/internal/models"

	"github.com/gorilla/mux"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.users.ChangeRole(r.Context(), mux.Vars(r)["id"], req.Role); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "role updated"})
}

type reportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// handleEnqueueReport schedules an xlsx booking report for the given period.
func (s *Server) handleEnqueueReport(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date format; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(models.DateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date format; expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	if err := s.reports.EnqueueReport(r.Context(), start, end, p.ID); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "report scheduled"})
}
