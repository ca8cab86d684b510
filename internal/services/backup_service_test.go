package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwelr/minevault/internal/backup"
	"github.com/dwelr/minevault/internal/database"
	"github.com/dwelr/minevault/internal/minecraft"
)

func newTestService(t *testing.T) (*BackupService, *EventService, string) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	sourceRoot := t.TempDir()
	writeFile(t, filepath.Join(sourceRoot, "saves", "world1.dat"), 100)
	writeFile(t, filepath.Join(sourceRoot, "mods", "modA.jar"), 200)

	eventSvc := NewEventService(db)
	svc := NewBackupService(db, eventSvc, nil, minecraft.NewSaveGuard("", ""), sourceRoot, t.TempDir())
	return svc, eventSvc, sourceRoot
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{'x'}, size), 0644))
}

func TestCreateBackup_Compressed(t *testing.T) {
	svc, _, _ := newTestService(t)

	b, err := svc.CreateBackup(BackupRequest{
		Name:     "nightly",
		Folders:  []string{"saves", "mods"},
		Compress: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "nightly", b.Name)
	assert.Equal(t, int64(300), b.SizeBytes)
	assert.Equal(t, 2, b.FileCount)
	assert.True(t, b.Compress)
	assert.ElementsMatch(t, []string{"saves", "mods"}, b.Folders)

	// The archive exists where the row says it does.
	info, err := os.Stat(b.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// And the row round-trips through the database.
	stored, err := svc.GetBackupByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.SizeBytes, stored.SizeBytes)
	assert.Equal(t, b.FileCount, stored.FileCount)
	assert.Equal(t, b.Folders, stored.Folders)
	assert.Equal(t, b.ExcludedExtensions, stored.ExcludedExtensions)
}

func TestCreateBackup_PlainWithExclusions(t *testing.T) {
	svc, _, _ := newTestService(t)

	b, err := svc.CreateBackup(BackupRequest{
		Name:               "plain",
		Folders:            []string{"saves", "mods"},
		Compress:           false,
		ExcludedExtensions: []string{"dat"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(200), b.SizeBytes)
	assert.Equal(t, 1, b.FileCount)

	// Plain mode output is a mirrored tree plus a metadata sidecar.
	_, err = os.Stat(filepath.Join(b.Path, "mods", "modA.jar"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(b.Path, "saves", "world1.dat"))
	assert.True(t, os.IsNotExist(err))

	matches, err := filepath.Glob(filepath.Join(b.Path, "backup_metadata_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	record, err := backup.ReadRecord(matches[0])
	require.NoError(t, err)
	assert.Equal(t, int64(200), record.SizeInBytes)
	assert.Equal(t, []string{"dat"}, record.ExcludedExtensions)
}

func TestCreateBackup_UnknownFolder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateBackup(BackupRequest{
		Name:    "bad",
		Folders: []string{"shaders"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shaders")
}

func TestGetAllBackups_NewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, name := range []string{"first", "second"} {
		_, err := svc.CreateBackup(BackupRequest{Name: name, Folders: []string{"saves"}, Compress: true})
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	backups, err := svc.GetAllBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "second", backups[0].Name)
	assert.Equal(t, "first", backups[1].Name)
}

func TestDeleteBackup_RemovesRowAndOutput(t *testing.T) {
	svc, _, _ := newTestService(t)

	b, err := svc.CreateBackup(BackupRequest{Name: "doomed", Folders: []string{"saves"}, Compress: true})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBackup(b.ID))

	_, err = os.Stat(b.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = svc.GetBackupByID(b.ID)
	require.Error(t, err)
}

func TestPruneOlderThan(t *testing.T) {
	svc, _, _ := newTestService(t)

	old, err := svc.CreateBackup(BackupRequest{Name: "old", Folders: []string{"saves"}, Compress: true})
	require.NoError(t, err)

	// Everything created before this instant is prunable.
	time.Sleep(10 * time.Millisecond)
	pruned, err := svc.PruneOlderThan(0)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, err = svc.GetBackupByID(old.ID)
	require.Error(t, err)
}

func TestCreateBackup_RecordsEvents(t *testing.T) {
	svc, eventSvc, _ := newTestService(t)

	_, err := svc.CreateBackup(BackupRequest{Name: "evt", Folders: []string{"saves"}, Compress: true})
	require.NoError(t, err)

	events, err := eventSvc.GetRecentEvents(10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "backup.create", events[0].Type)
	assert.Equal(t, "info", events[0].Level)
	require.NotNil(t, events[0].BackupID)
}
