package api

import (
	"net/http"

	"avtoservis/internal/service"

	"github.com/gorilla/mux"
)

func (s *Server) handleListServiceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.catalog.ListServiceTypes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": types})
}

func (s *Server) handleListAllServiceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.catalog.ListAllServiceTypes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": types})
}

type serviceTypeRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (r serviceTypeRequest) input() service.ServiceTypeInput {
	return service.ServiceTypeInput{
		Name:            r.Name,
		Description:     r.Description,
		PriceCents:      r.PriceCents,
		DurationMinutes: r.DurationMinutes,
	}
}

func (s *Server) handleCreateServiceType(w http.ResponseWriter, r *http.Request) {
	var req serviceTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	st, err := s.catalog.CreateServiceType(r.Context(), req.input())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, st)
}

// serviceTypePatchRequest keeps omitted and explicitly-zero fields
// distinguishable, so a zero price is applied rather than ignored.
type serviceTypePatchRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

func (r serviceTypePatchRequest) patch() service.ServiceTypePatch {
	return service.ServiceTypePatch{
		Name:            r.Name,
		Description:     r.Description,
		PriceCents:      r.PriceCents,
		DurationMinutes: r.DurationMinutes,
	}
}

func (s *Server) handleUpdateServiceType(w http.ResponseWriter, r *http.Request) {
	var req serviceTypePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	st, err := s.catalog.UpdateServiceType(r.Context(), mux.Vars(r)["id"], req.patch())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeactivateServiceType(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeactivateServiceType(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
