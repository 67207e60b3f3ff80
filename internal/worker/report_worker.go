package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"avtoservis/internal/database"
	"avtoservis/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ReportWorker consumes report_queue tasks and renders booking reports to xlsx.
type ReportWorker struct {
	db           *database.DB
	retryPolicy  RetryPolicy
	queue        chan models.ReportTask
	exportPath   string
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

// NewReportWorker builds a worker with sane defaults.
func NewReportWorker(db *database.DB, exportPath string, retry RetryPolicy, logger *zerolog.Logger) *ReportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ReportWorker{
		db:           db,
		retryPolicy:  retry,
		queue:        make(chan models.ReportTask, models.WorkerQueueSize),
		exportPath:   exportPath,
		pollInterval: 2 * time.Second,
		batchSize:    models.DefaultExportBatchSize,
		logger:       logger,
	}
}

// EnqueueReport persists a report task and schedules it on the in-memory queue.
// The polling loop picks it up anyway if the queue is full.
func (w *ReportWorker) EnqueueReport(ctx context.Context, startDate, endDate time.Time, requestedBy string) error {
	if endDate.Before(startDate) {
		return errors.New("end date is before start date")
	}

	task := models.ReportTask{
		StartDate:   startDate,
		EndDate:     endDate,
		RequestedBy: requestedBy,
		Status:      "pending",
	}
	if err := w.db.CreateReportTask(ctx, &task); err != nil {
		return fmt.Errorf("persist report task: %w", err)
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("report queue full, task left for polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *ReportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("report worker started")
	defer w.logger.Info().Msg("report worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingReportTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending report tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *ReportWorker) tryLocalQueue() (models.ReportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.ReportTask{}, false
	}
}

func (w *ReportWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *ReportWorker) processTask(ctx context.Context, task *models.ReportTask) {
	path, err := w.exportReport(ctx, task.StartDate, task.EndDate)
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.MarkReportTaskDone(ctx, task.ID); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark report task done")
		return
	}
	w.logger.Info().Int64("task_id", task.ID).Str("file_path", path).Msg("report exported")
}

func (w *ReportWorker) retryOrFail(ctx context.Context, task *models.ReportTask, cause error) {
	attempt := task.RetryCount + 1
	nextTime := time.Now().Add(w.retryPolicy.Backoff(attempt))
	if err := w.db.MarkReportTaskFailed(ctx, task.ID, cause.Error(), nextTime, w.retryPolicy.MaxRetries); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark report task failed")
	}
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Msg("report export failed")
}

// exportReport выгружает записи за период в xlsx файл
func (w *ReportWorker) exportReport(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(w.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	bookings, err := w.db.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("get bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Записи"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "H1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Клиент", "Автомобиль", "Услуга", "Дата", "Время", "Статус", "Комментарий"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.ID, b.UserID, b.CarID, b.ServiceTypeID,
			b.Date.Format("02.01.2006"), b.Time, statusLabel(b.Status), b.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "D", 38)
	_ = f.SetColWidth(sheetName, "E", "G", 14)
	_ = f.SetColWidth(sheetName, "H", "H", 40)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	filePath := filepath.Join(w.exportPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return filePath, nil
}

// statusLabel переводит статус записи для отчёта
func statusLabel(status string) string {
	switch status {
	case models.StatusPending:
		return "Ожидает"
	case models.StatusConfirmed:
		return "Подтверждена"
	case models.StatusCompleted:
		return "Выполнена"
	case models.StatusCancelled:
		return "Отменена"
	default:
		return status
	}
}
