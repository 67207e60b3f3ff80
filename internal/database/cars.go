package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"avtoservis/internal/models"
)

const carColumns = `id, user_id, make, model, year, plate, created_at, updated_at`

func (db *DB) CreateCar(ctx context.Context, car *models.Car) error {
	query := `INSERT INTO cars (id, user_id, make, model, year, plate, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		car.ID, car.UserID, car.Make, car.Model, car.Year, car.Plate, now, now)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	car.CreatedAt = now
	car.UpdatedAt = now
	return nil
}

func (db *DB) GetCar(ctx context.Context, id string) (*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = ?`
	c := &models.Car{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Make, &c.Model, &c.Year, &c.Plate, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return c, nil
}

func (db *DB) GetUserCars(ctx context.Context, userID string) ([]*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE user_id = ? ORDER BY created_at DESC`
	return db.queryCars(ctx, query, userID)
}

func (db *DB) GetAllCars(ctx context.Context) ([]*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars ORDER BY created_at DESC`
	return db.queryCars(ctx, query)
}

func (db *DB) UpdateCar(ctx context.Context, car *models.Car) error {
	query := `UPDATE cars SET make = ?, model = ?, year = ?, plate = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		car.Make, car.Model, car.Year, car.Plate, now, car.ID)
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	car.UpdatedAt = now
	return nil
}

func (db *DB) DeleteCar(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM cars WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryCars(ctx context.Context, query string, args ...any) ([]*models.Car, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cars: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		c := &models.Car{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Make, &c.Model, &c.Year, &c.Plate, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return cars, nil
}
