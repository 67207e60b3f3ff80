package service

import (
	"context"
	"errors"
	"strings"

	"avtoservis/internal/database"
	"avtoservis/internal/domain"
	"avtoservis/internal/models"

	"github.com/google/uuid"
)

type CarInput struct {
	UserID string
	Make   string
	Model  string
	Year   int
	Plate  string
}

type ServiceTypeInput struct {
	Name            string
	Description     string
	PriceCents      int64
	DurationMinutes int
}

// CarPatch is a partial car update. Nil means "field not supplied", so an
// explicit zero value still lands. The owner reference is never patchable.
type CarPatch struct {
	Make  *string
	Model *string
	Year  *int
	Plate *string
}

// ServiceTypePatch is a partial catalog update with the same nil convention.
// A zero price is a legitimate update (free promo services), not an omission.
type ServiceTypePatch struct {
	Name            *string
	Description     *string
	PriceCents      *int64
	DurationMinutes *int
}

// CatalogService manages cars and the service-type catalog. Cars are owned
// records: the owner or an admin may read and mutate them.
type CatalogService struct {
	cars     domain.CarStore
	services domain.ServiceTypeStore
}

func NewCatalogService(cars domain.CarStore, services domain.ServiceTypeStore) *CatalogService {
	return &CatalogService{cars: cars, services: services}
}

func (s *CatalogService) CreateCar(ctx context.Context, p Principal, in CarInput) (*models.Car, error) {
	if strings.TrimSpace(in.Make) == "" {
		return nil, newValidationError("make", "is required")
	}
	if strings.TrimSpace(in.Model) == "" {
		return nil, newValidationError("model", "is required")
	}

	owner := p.ID
	if p.IsAdmin() && in.UserID != "" {
		owner = in.UserID
	}

	car := &models.Car{
		ID:     uuid.NewString(),
		UserID: owner,
		Make:   strings.TrimSpace(in.Make),
		Model:  strings.TrimSpace(in.Model),
		Year:   in.Year,
		Plate:  strings.TrimSpace(in.Plate),
	}
	if err := s.cars.CreateCar(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (s *CatalogService) GetCar(ctx context.Context, p Principal, id string) (*models.Car, error) {
	car, err := s.loadCar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && car.UserID != p.ID {
		return nil, ErrForbidden
	}
	return car, nil
}

func (s *CatalogService) ListCars(ctx context.Context, p Principal) ([]*models.Car, error) {
	if p.IsAdmin() {
		return s.cars.GetAllCars(ctx)
	}
	return s.cars.GetUserCars(ctx, p.ID)
}

func (s *CatalogService) UpdateCar(ctx context.Context, p Principal, id string, patch CarPatch) (*models.Car, error) {
	car, err := s.loadCar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && car.UserID != p.ID {
		return nil, ErrForbidden
	}

	if patch.Make != nil {
		v := strings.TrimSpace(*patch.Make)
		if v == "" {
			return nil, newValidationError("make", "must not be blank")
		}
		car.Make = v
	}
	if patch.Model != nil {
		v := strings.TrimSpace(*patch.Model)
		if v == "" {
			return nil, newValidationError("model", "must not be blank")
		}
		car.Model = v
	}
	if patch.Year != nil {
		car.Year = *patch.Year
	}
	if patch.Plate != nil {
		car.Plate = strings.TrimSpace(*patch.Plate)
	}

	if err := s.cars.UpdateCar(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (s *CatalogService) DeleteCar(ctx context.Context, p Principal, id string) error {
	car, err := s.loadCar(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && car.UserID != p.ID {
		return ErrForbidden
	}
	return s.cars.DeleteCar(ctx, id)
}

// ListServiceTypes returns the public catalog: active entries only.
func (s *CatalogService) ListServiceTypes(ctx context.Context) ([]*models.ServiceType, error) {
	return s.services.GetActiveServiceTypes(ctx)
}

func (s *CatalogService) ListAllServiceTypes(ctx context.Context) ([]*models.ServiceType, error) {
	return s.services.GetAllServiceTypes(ctx)
}

func (s *CatalogService) CreateServiceType(ctx context.Context, in ServiceTypeInput) (*models.ServiceType, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newValidationError("name", "is required")
	}
	if in.PriceCents < 0 {
		return nil, newValidationError("price_cents", "must not be negative")
	}
	if in.DurationMinutes < 0 {
		return nil, newValidationError("duration_minutes", "must not be negative")
	}

	st := &models.ServiceType{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		PriceCents:      in.PriceCents,
		DurationMinutes: in.DurationMinutes,
		IsActive:        true,
	}
	if err := s.services.CreateServiceType(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *CatalogService) UpdateServiceType(ctx context.Context, id string, patch ServiceTypePatch) (*models.ServiceType, error) {
	st, err := s.services.GetServiceType(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		if v == "" {
			return nil, newValidationError("name", "must not be blank")
		}
		st.Name = v
	}
	if patch.Description != nil {
		st.Description = *patch.Description
	}
	if patch.PriceCents != nil {
		if *patch.PriceCents < 0 {
			return nil, newValidationError("price_cents", "must not be negative")
		}
		st.PriceCents = *patch.PriceCents
	}
	if patch.DurationMinutes != nil {
		if *patch.DurationMinutes < 0 {
			return nil, newValidationError("duration_minutes", "must not be negative")
		}
		st.DurationMinutes = *patch.DurationMinutes
	}

	if err := s.services.UpdateServiceType(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeactivateServiceType hides a catalog entry from the public listing without
// breaking referential integrity of existing bookings.
func (s *CatalogService) DeactivateServiceType(ctx context.Context, id string) error {
	err := s.services.DeactivateServiceType(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CatalogService) loadCar(ctx context.Context, id string) (*models.Car, error) {
	car, err := s.cars.GetCar(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return car, nil
}
