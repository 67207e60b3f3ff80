package service

import (
	"time"

	"avtoservis/internal/models"

	"github.com/google/uuid"
)

// Principal is the authenticated actor behind a request. The HTTP layer builds
// it from a verified token; nothing below this point does authentication.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CreateBookingInput carries the proposed field set for a new booking. UserID is
// honored only when the principal is an admin booking on behalf of a customer.
type CreateBookingInput struct {
	UserID        string
	CarID         string
	ServiceTypeID string
	Date          time.Time
	Time          string
	Notes         string
}

// BookingPatch is a partial update. Nil means "field not supplied", which keeps
// an intentionally empty value distinguishable from an omitted one.
type BookingPatch struct {
	CarID         *string
	ServiceTypeID *string
	Date          *time.Time
	Time          *string
	Notes         *string
	Status        *string
}

// The rules below are the single decision point for booking mutations.
//
// Status state machine: {pending, confirmed, completed, cancelled}; every
// booking starts in pending. An admin may set any target, in any direction.
// A non-admin owner has exactly one transition: into cancelled, from any
// current status. Non-owners get nothing.

// authorizeCreate validates required fields and produces the new record with
// the owner and status forced. It does not touch storage.
func authorizeCreate(p Principal, in CreateBookingInput) (*models.Booking, error) {
	if in.CarID == "" {
		return nil, newValidationError("car_id", "is required")
	}
	if in.ServiceTypeID == "" {
		return nil, newValidationError("service_type_id", "is required")
	}
	if in.Date.IsZero() {
		return nil, newValidationError("date", "is required")
	}
	if in.Time == "" {
		return nil, newValidationError("time", "is required")
	}

	owner := p.ID
	if p.IsAdmin() && in.UserID != "" {
		owner = in.UserID
	}

	return &models.Booking{
		ID:            uuid.NewString(),
		UserID:        owner,
		CarID:         in.CarID,
		ServiceTypeID: in.ServiceTypeID,
		Date:          in.Date,
		Time:          in.Time,
		Notes:         in.Notes,
		Status:        models.StatusPending,
	}, nil
}

func authorizeRead(p Principal, booking *models.Booking) error {
	if p.IsAdmin() || booking.UserID == p.ID {
		return nil
	}
	return ErrForbidden
}

// authorizeFieldPatch returns the merged record, or an error when the principal
// may not touch one of the supplied fields. The owner reference is never
// patchable.
func authorizeFieldPatch(p Principal, booking *models.Booking, patch BookingPatch) (*models.Booking, error) {
	if !p.IsAdmin() && booking.UserID != p.ID {
		return nil, ErrForbidden
	}

	merged := *booking

	if patch.Notes != nil {
		merged.Notes = *patch.Notes
	}

	adminOnly := patch.CarID != nil || patch.ServiceTypeID != nil ||
		patch.Date != nil || patch.Time != nil || patch.Status != nil
	if adminOnly && !p.IsAdmin() {
		// Owners change status through the status operation only.
		return nil, ErrForbidden
	}

	if patch.CarID != nil {
		merged.CarID = *patch.CarID
	}
	if patch.ServiceTypeID != nil {
		merged.ServiceTypeID = *patch.ServiceTypeID
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Time != nil {
		merged.Time = *patch.Time
	}
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return nil, newValidationError("status", "unknown status")
		}
		merged.Status = *patch.Status
	}

	return &merged, nil
}

func authorizeStatus(p Principal, booking *models.Booking, target string) error {
	if !models.ValidStatus(target) {
		return newValidationError("status", "unknown status")
	}
	if p.IsAdmin() {
		return nil
	}
	if booking.UserID != p.ID {
		return ErrForbidden
	}
	// Owner's only move is to cancel. Re-cancelling an already cancelled
	// booking is allowed and idempotent.
	if target != models.StatusCancelled {
		return ErrForbidden
	}
	return nil
}

func authorizeDelete(p Principal, booking *models.Booking) error {
	if p.IsAdmin() {
		return nil
	}
	if booking.UserID != p.ID {
		return ErrForbidden
	}
	if booking.Status != models.StatusPending && booking.Status != models.StatusCancelled {
		return ErrForbidden
	}
	return nil
}
