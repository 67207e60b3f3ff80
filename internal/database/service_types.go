package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"avtoservis/internal/models"
)

const serviceTypeColumns = `id, name, description, price_cents, duration_minutes,
                            is_active, created_at, updated_at`

func (db *DB) CreateServiceType(ctx context.Context, st *models.ServiceType) error {
	query := `INSERT INTO service_types (
				id, name, description, price_cents, duration_minutes,
				is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		st.ID, st.Name, st.Description, st.PriceCents, st.DurationMinutes,
		st.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create service type: %w", err)
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	return nil
}

func (db *DB) GetServiceType(ctx context.Context, id string) (*models.ServiceType, error) {
	query := `SELECT ` + serviceTypeColumns + ` FROM service_types WHERE id = ?`
	st := &models.ServiceType{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.Description, &st.PriceCents, &st.DurationMinutes,
		&st.IsActive, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service type: %w", err)
	}
	return st, nil
}

func (db *DB) GetActiveServiceTypes(ctx context.Context) ([]*models.ServiceType, error) {
	query := `SELECT ` + serviceTypeColumns + ` FROM service_types WHERE is_active = 1 ORDER BY name ASC`
	return db.queryServiceTypes(ctx, query)
}

func (db *DB) GetAllServiceTypes(ctx context.Context) ([]*models.ServiceType, error) {
	query := `SELECT ` + serviceTypeColumns + ` FROM service_types ORDER BY name ASC`
	return db.queryServiceTypes(ctx, query)
}

func (db *DB) UpdateServiceType(ctx context.Context, st *models.ServiceType) error {
	query := `UPDATE service_types SET name = ?, description = ?, price_cents = ?,
	                                   duration_minutes = ?, is_active = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		st.Name, st.Description, st.PriceCents, st.DurationMinutes, st.IsActive, now, st.ID)
	if err != nil {
		return fmt.Errorf("failed to update service type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	st.UpdatedAt = now
	return nil
}

func (db *DB) DeactivateServiceType(ctx context.Context, id string) error {
	query := `UPDATE service_types SET is_active = 0, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate service type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryServiceTypes(ctx context.Context, query string, args ...any) ([]*models.ServiceType, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query service types: %w", err)
	}
	defer rows.Close()

	var types []*models.ServiceType
	for rows.Next() {
		st := &models.ServiceType{}
		err := rows.Scan(
			&st.ID, &st.Name, &st.Description, &st.PriceCents, &st.DurationMinutes,
			&st.IsActive, &st.CreatedAt, &st.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service type: %w", err)
		}
		types = append(types, st)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}
