package models

import "time"

type Booking struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CarID         string    `json:"car_id"`
	ServiceTypeID string    `json:"service_type_id"`
	Date          time.Time `json:"date"`
	Time          string    `json:"time"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"` // pending, confirmed, completed, cancelled
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
