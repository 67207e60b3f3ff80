package models

import "time"

type Car struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year,omitempty"`
	Plate     string    `json:"plate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
