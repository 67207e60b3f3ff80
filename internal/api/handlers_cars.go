package api

import (
	"net/http"

	"avtoservis/internal/service"

	"github.com/gorilla/mux"
)

type carRequest struct {
	UserID string `json:"user_id,omitempty"`
	Make   string `json:"make"`
	Model  string `json:"model"`
	Year   int    `json:"year,omitempty"`
	Plate  string `json:"plate,omitempty"`
}

func (r carRequest) input() service.CarInput {
	return service.CarInput{
		UserID: r.UserID,
		Make:   r.Make,
		Model:  r.Model,
		Year:   r.Year,
		Plate:  r.Plate,
	}
}

func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	var req carRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	car, err := s.catalog.CreateCar(r.Context(), p, req.input())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, car)
}

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	cars, err := s.catalog.ListCars(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
}

func (s *Server) handleGetCar(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	car, err := s.catalog.GetCar(r.Context(), p, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, car)
}

// carPatchRequest keeps omitted and explicitly-zero fields distinguishable.
type carPatchRequest struct {
	Make  *string `json:"make,omitempty"`
	Model *string `json:"model,omitempty"`
	Year  *int    `json:"year,omitempty"`
	Plate *string `json:"plate,omitempty"`
}

func (r carPatchRequest) patch() service.CarPatch {
	return service.CarPatch{
		Make:  r.Make,
		Model: r.Model,
		Year:  r.Year,
		Plate: r.Plate,
	}
}

func (s *Server) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	var req carPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	car, err := s.catalog.UpdateCar(r.Context(), p, mux.Vars(r)["id"], req.patch())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, car)
}

func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	if err := s.catalog.DeleteCar(r.Context(), p, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
