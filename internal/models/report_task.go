package models

import (
	"database/sql"
	"time"
)

// ReportTask is a queued booking-report export.
type ReportTask struct {
	ID          int64        `json:"id"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	RequestedBy string       `json:"requested_by"`
	Status      string       `json:"status"` // pending, retry, done, failed
	RetryCount  int          `json:"retry_count"`
	LastError   string       `json:"last_error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt sql.NullTime `json:"processed_at,omitempty"`
	NextRetryAt sql.NullTime `json:"next_retry_at,omitempty"`
}
