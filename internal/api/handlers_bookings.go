package api

import (
	"net/http"
	"time"

	"avtoservis/internal/metrics"
	"avtoservis/internal/models"
	"avtoservis/internal/service"

	"github.com/gorilla/mux"
)

type createBookingRequest struct {
	UserID        string `json:"user_id,omitempty"`
	CarID         string `json:"car_id"`
	ServiceTypeID string `json:"service_type_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Notes         string `json:"notes,omitempty"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(models.DateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		date = parsed
	}
	if req.Time != "" {
		if _, err := time.Parse(models.TimeLayout, req.Time); err != nil {
			writeError(w, http.StatusBadRequest, "invalid time format; expected HH:MM")
			return
		}
	}

	booking, err := s.bookings.Create(r.Context(), p, service.CreateBookingInput{
		UserID:        req.UserID,
		CarID:         req.CarID,
		ServiceTypeID: req.ServiceTypeID,
		Date:          date,
		Time:          req.Time,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	bookings, err := s.bookings.List(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	booking, err := s.bookings.Get(r.Context(), p, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

type updateBookingRequest struct {
	CarID         *string `json:"car_id,omitempty"`
	ServiceTypeID *string `json:"service_type_id,omitempty"`
	Date          *string `json:"date,omitempty"`
	Time          *string `json:"time,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Status        *string `json:"status,omitempty"`
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	var req updateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := service.BookingPatch{
		CarID:         req.CarID,
		ServiceTypeID: req.ServiceTypeID,
		Time:          req.Time,
		Notes:         req.Notes,
		Status:        req.Status,
	}
	if req.Date != nil {
		parsed, err := time.Parse(models.DateLayout, *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		patch.Date = &parsed
	}
	if req.Time != nil {
		if _, err := time.Parse(models.TimeLayout, *req.Time); err != nil {
			writeError(w, http.StatusBadRequest, "invalid time format; expected HH:MM")
			return
		}
	}

	booking, err := s.bookings.UpdateFields(r.Context(), p, mux.Vars(r)["id"], patch)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.UpdateStatus(r.Context(), p, mux.Vars(r)["id"], req.Status)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.IncBookingTransition(booking.Status)
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())

	if err := s.bookings.Delete(r.Context(), p, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
