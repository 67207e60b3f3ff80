package service

import (
	"context"
	"errors"

	"avtoservis/internal/database"
	"avtoservis/internal/domain"
	"avtoservis/internal/events"
	"avtoservis/internal/models"

	"github.com/rs/zerolog"
)

// BookingService answers "is this mutation, by this principal, on this booking,
// allowed — and what is the resulting record". One read-decide-write sequence
// per invocation; no cross-request coordination.
type BookingService struct {
	ledger   domain.BookingLedger
	cars     domain.CarStore
	services domain.ServiceTypeStore
	users    domain.UserStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(
	ledger domain.BookingLedger,
	cars domain.CarStore,
	services domain.ServiceTypeStore,
	users domain.UserStore,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		ledger:   ledger,
		cars:     cars,
		services: services,
		users:    users,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *BookingService) Create(ctx context.Context, p Principal, in CreateBookingInput) (*models.Booking, error) {
	booking, err := authorizeCreate(p, in)
	if err != nil {
		return nil, err
	}

	// Existence-only checks on the referenced records; no business rules
	// are borrowed from the catalog.
	if _, err := s.cars.GetCar(ctx, booking.CarID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newValidationError("car_id", "unknown car")
		}
		return nil, err
	}
	if _, err := s.services.GetServiceType(ctx, booking.ServiceTypeID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newValidationError("service_type_id", "unknown service type")
		}
		return nil, err
	}
	if booking.UserID != p.ID {
		if _, err := s.users.GetUserByID(ctx, booking.UserID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, newValidationError("user_id", "unknown user")
			}
			return nil, err
		}
	}

	if err := s.ledger.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking, p)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, p Principal, id string) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(p, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// List returns all bookings for an admin and only the principal's own
// bookings otherwise.
func (s *BookingService) List(ctx context.Context, p Principal) ([]*models.Booking, error) {
	if p.IsAdmin() {
		return s.ledger.GetAllBookings(ctx)
	}
	return s.ledger.GetUserBookings(ctx, p.ID)
}

func (s *BookingService) UpdateFields(ctx context.Context, p Principal, id string, patch BookingPatch) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := authorizeFieldPatch(p, booking, patch)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.UpdateBooking(ctx, merged); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingUpdated, merged, p)
	return merged, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, p Principal, id, target string) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeStatus(p, booking, target); err != nil {
		return nil, err
	}

	booking.Status = target
	if err := s.ledger.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingStatusChanged, booking, p)
	return booking, nil
}

func (s *BookingService) Delete(ctx context.Context, p Principal, id string) error {
	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeDelete(p, booking); err != nil {
		return err
	}

	if err := s.ledger.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.publishEvent(events.EventBookingDeleted, booking, p)
	return nil
}

func (s *BookingService) load(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.ledger.GetBooking(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, p Principal) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		CarID:         booking.CarID,
		ServiceTypeID: booking.ServiceTypeID,
		Status:        booking.Status,
		Date:          booking.Date,
		Time:          booking.Time,
		Notes:         booking.Notes,
		ChangedBy:     p.ID,
		ChangedByRole: p.Role,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}
