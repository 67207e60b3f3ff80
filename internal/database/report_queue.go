package database

import (
	"context"
	"fmt"
	"time"

	"avtoservis/internal/models"
)

func (db *DB) CreateReportTask(ctx context.Context, task *models.ReportTask) error {
	query := `INSERT INTO report_queue (start_date, end_date, requested_by, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.StartDate.Format(models.DateLayout),
		task.EndDate.Format(models.DateLayout),
		task.RequestedBy,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

func (db *DB) GetPendingReportTasks(ctx context.Context, limit int) ([]models.ReportTask, error) {
	query := `SELECT id, start_date, end_date, requested_by, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM report_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending report tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.ReportTask
	for rows.Next() {
		var t models.ReportTask
		var startStr, endStr string
		var lastError *string
		err := rows.Scan(&t.ID, &startStr, &endStr, &t.RequestedBy, &t.Status,
			&t.RetryCount, &lastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report task: %w", err)
		}
		if lastError != nil {
			t.LastError = *lastError
		}
		t.StartDate, _ = time.Parse(models.DateLayout, startStr)
		t.EndDate, _ = time.Parse(models.DateLayout, endStr)
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (db *DB) MarkReportTaskDone(ctx context.Context, id int64) error {
	query := `UPDATE report_queue SET status = 'done', processed_at = ?, last_error = NULL WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark report task done: %w", err)
	}
	return nil
}

// MarkReportTaskFailed schedules a retry or moves the task to a terminal failed
// state when maxRetries is exhausted.
func (db *DB) MarkReportTaskFailed(ctx context.Context, id int64, taskErr string, nextRetryAt time.Time, maxRetries int) error {
	query := `UPDATE report_queue
              SET status = CASE WHEN retry_count + 1 >= ? THEN 'failed' ELSE 'retry' END,
                  retry_count = retry_count + 1,
                  last_error = ?,
                  next_retry_at = ?
              WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, maxRetries, taskErr, nextRetryAt, id); err != nil {
		return fmt.Errorf("failed to mark report task failed: %w", err)
	}
	return nil
}
