package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidStatus reports whether s is one of the four booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

const (
	// DateLayout формат даты записи на сервис
	DateLayout = "2006-01-02"

	// TimeLayout формат времени записи
	TimeLayout = "15:04"

	// WorkerQueueSize размер очереди воркера отчётов
	WorkerQueueSize = 64

	// DefaultExportBatchSize количество задач за один проход воркера
	DefaultExportBatchSize = 10
)
