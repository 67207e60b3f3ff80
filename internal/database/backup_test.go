package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"avtoservis/internal/config"
	"avtoservis/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	backupDir := filepath.Join(dir, "backups")

	logger := zerolog.New(os.Stdout)
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)

	booking := &models.Booking{
		ID:            uuid.NewString(),
		UserID:        "user-1",
		CarID:         "car-1",
		ServiceTypeID: "svc-1",
		Date:          time.Now(),
		Time:          "10:00",
		Status:        models.StatusPending,
	}
	require.NoError(t, db.CreateBooking(context.Background(), booking))
	require.NoError(t, db.Close())

	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// The snapshot must be a readable database with the data inside.
	restored, err := NewDB(filepath.Join(backupDir, files[0].Name()), &logger)
	require.NoError(t, err)
	defer restored.Close()

	got, err := restored.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
}

func TestCleanupOldBackups(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.New(os.Stdout)

	old := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, past, past))

	fresh := filepath.Join(dir, "backup_fresh.db")
	require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0o644))

	svc := NewBackupService("unused.db", config.BackupConfig{
		RetentionDays: 7,
		StoragePath:   dir,
	}, &logger)
	svc.CleanupOldBackups()

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}
