package domain

import (
	"context"
	"time"

	"avtoservis/internal/models"
)

// BookingLedger is the persistent collection of booking records. All access to
// bookings goes through this contract.
type BookingLedger interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	UpdateUserProfile(ctx context.Context, user *models.User) error
}

type CarStore interface {
	CreateCar(ctx context.Context, car *models.Car) error
	GetCar(ctx context.Context, id string) (*models.Car, error)
	GetUserCars(ctx context.Context, userID string) ([]*models.Car, error)
	GetAllCars(ctx context.Context) ([]*models.Car, error)
	UpdateCar(ctx context.Context, car *models.Car) error
	DeleteCar(ctx context.Context, id string) error
}

type ServiceTypeStore interface {
	CreateServiceType(ctx context.Context, st *models.ServiceType) error
	GetServiceType(ctx context.Context, id string) (*models.ServiceType, error)
	GetActiveServiceTypes(ctx context.Context) ([]*models.ServiceType, error)
	GetAllServiceTypes(ctx context.Context) ([]*models.ServiceType, error)
	UpdateServiceType(ctx context.Context, st *models.ServiceType) error
	DeactivateServiceType(ctx context.Context, id string) error
}

// SessionRepository keeps refresh tokens and request-rate counters. Redis-backed
// in production with an in-memory fallback behind a failover wrapper.
type SessionRepository interface {
	StoreRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, token string) (string, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReportWorker accepts booking-report export requests for asynchronous processing.
type ReportWorker interface {
	EnqueueReport(ctx context.Context, startDate, endDate time.Time, requestedBy string) error
}
