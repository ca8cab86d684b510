package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dwelr/minevault/internal/backup"
	"github.com/dwelr/minevault/internal/minecraft"
	"github.com/dwelr/minevault/internal/models"
	"github.com/dwelr/minevault/internal/websocket"
)

// BackupRequest describes what a single backup run should cover.
type BackupRequest struct {
	Name               string   `json:"name"`
	Folders            []string `json:"folders"`
	Compress           bool     `json:"compress"`
	ExcludedExtensions []string `json:"excludedExtensions"`
}

// BackupServiceProvider defines the interface for backup services.
type BackupServiceProvider interface {
	CreateBackup(req BackupRequest) (models.Backup, error)
	GetAllBackups() ([]models.Backup, error)
	GetBackupByID(backupID string) (models.Backup, error)
	DeleteBackup(backupID string) error
	PruneOlderThan(maxAge time.Duration) (int, error)
}

// BackupService runs the backup engine against the configured Minecraft
// installation and keeps the history of runs in the database.
type BackupService struct {
	db           *sql.DB
	eventService EventServiceProvider
	hub          *websocket.Hub
	saveGuard    *minecraft.SaveGuard
	manager      *backup.Manager
	sourceRoot   string
	backupPath   string
}

// NewBackupService creates a new BackupService.
func NewBackupService(db *sql.DB, eventService EventServiceProvider, hub *websocket.Hub, saveGuard *minecraft.SaveGuard, sourceRoot, backupPath string) *BackupService {
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		log.Error().Err(err).Str("path", backupPath).Msg("Failed to create base backup directory")
	}
	return &BackupService{
		db:           db,
		eventService: eventService,
		hub:          hub,
		saveGuard:    saveGuard,
		manager:      backup.NewManager(),
		sourceRoot:   sourceRoot,
		backupPath:   backupPath,
	}
}

// CreateBackup runs a backup with the requested options and records it in
// the history table. Compressed runs produce a single zip, plain runs a
// mirrored directory tree plus a metadata sidecar.
func (s *BackupService) CreateBackup(req BackupRequest) (models.Backup, error) {
	folders, err := backup.ParseFolders(req.Folders)
	if err != nil {
		return models.Backup{}, fmt.Errorf("invalid backup request: %w", err)
	}

	id := uuid.New().String()
	stamp := time.Now().Format("20060102150405")
	dest := filepath.Join(s.backupPath, fmt.Sprintf("%s_%s", id, stamp))
	if req.Compress {
		dest += ".zip"
	}

	opts := backup.NewOptions(s.sourceRoot, folders, dest, req.Compress)
	for _, ext := range req.ExcludedExtensions {
		opts.AddExcludedExtension(ext)
	}

	if s.saveGuard.Enabled() {
		if err := s.saveGuard.Suspend(); err != nil {
			// A failed flush degrades the backup, it does not block it.
			log.Warn().Err(err).Msg("Could not suspend world saving, backing up anyway")
		} else {
			defer func() {
				if err := s.saveGuard.Resume(); err != nil {
					log.Error().Err(err).Msg("Could not resume world saving after backup")
				}
			}()
		}
	}

	record, err := s.manager.Run(opts)
	if err != nil {
		s.eventService.CreateEvent("backup.fail", "error", fmt.Sprintf("Backup '%s' failed: %v", req.Name, err), nil)
		return models.Backup{}, fmt.Errorf("backup run failed: %w", err)
	}

	b := models.Backup{
		ID:                 id,
		Name:               req.Name,
		Path:               dest,
		SizeBytes:          record.SizeInBytes,
		FileCount:          record.FileCount,
		Compress:           record.Compress,
		Folders:            record.Folders,
		ExcludedExtensions: record.ExcludedExtensions,
		CreatedAt:          record.Timestamp,
	}

	foldersJSON, err := json.Marshal(b.Folders)
	if err != nil {
		return models.Backup{}, err
	}
	excludedJSON, err := json.Marshal(b.ExcludedExtensions)
	if err != nil {
		return models.Backup{}, err
	}

	stmt, err := s.db.Prepare(`
		INSERT INTO backups (id, name, path, size_bytes, file_count, compress, folders_json, excluded_extensions_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return models.Backup{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(b.ID, b.Name, b.Path, b.SizeBytes, b.FileCount, b.Compress, string(foldersJSON), string(excludedJSON), b.CreatedAt)
	if err != nil {
		return models.Backup{}, err
	}

	s.eventService.CreateEvent("backup.create", "info", fmt.Sprintf("Backup '%s' completed (%d files, %d bytes).", b.Name, b.FileCount, b.SizeBytes), &b.ID)
	if s.hub != nil {
		s.hub.BroadcastMessage(websocket.Message{Action: "backup_complete", Payload: b})
	}

	return b, nil
}

// GetAllBackups retrieves the full backup history, newest first.
func (s *BackupService) GetAllBackups() ([]models.Backup, error) {
	rows, err := s.db.Query(`
		SELECT id, name, path, size_bytes, file_count, compress, folders_json, excluded_extensions_json, created_at
		FROM backups ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backups []models.Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// GetBackupByID retrieves a single backup by its ID.
func (s *BackupService) GetBackupByID(backupID string) (models.Backup, error) {
	row := s.db.QueryRow(`
		SELECT id, name, path, size_bytes, file_count, compress, folders_json, excluded_extensions_json, created_at
		FROM backups WHERE id = ?`, backupID)
	b, err := scanBackup(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Backup{}, fmt.Errorf("backup with id %s not found", backupID)
		}
		return models.Backup{}, err
	}
	return b, nil
}

// DeleteBackup deletes a backup's output from the filesystem and its row
// from the database.
func (s *BackupService) DeleteBackup(backupID string) error {
	b, err := s.GetBackupByID(backupID)
	if err != nil {
		return err
	}

	// Plain-mode output is a directory tree, compressed output a single file.
	if err := os.RemoveAll(b.Path); err != nil {
		log.Warn().Err(err).Str("path", b.Path).Msg("Could not delete backup output")
	}

	_, err = s.db.Exec("DELETE FROM backups WHERE id = ?", backupID)
	if err == nil {
		s.eventService.CreateEvent("backup.delete", "warn", fmt.Sprintf("Backup '%s' was deleted.", b.Name), nil)
	}
	return err
}

// PruneOlderThan deletes every backup created before now-maxAge and returns
// how many were removed.
func (s *BackupService) PruneOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	rows, err := s.db.Query("SELECT id FROM backups WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	pruned := 0
	for _, id := range ids {
		if err := s.DeleteBackup(id); err != nil {
			log.Error().Err(err).Str("backup_id", id).Msg("Failed to prune backup")
			continue
		}
		pruned++
	}
	return pruned, nil
}

// scanBackup reads one history row, expanding the JSON list columns.
func scanBackup(scanner interface{ Scan(...interface{}) error }) (models.Backup, error) {
	var b models.Backup
	var foldersJSON, excludedJSON string
	err := scanner.Scan(&b.ID, &b.Name, &b.Path, &b.SizeBytes, &b.FileCount, &b.Compress, &foldersJSON, &excludedJSON, &b.CreatedAt)
	if err != nil {
		return models.Backup{}, err
	}
	if err := json.Unmarshal([]byte(foldersJSON), &b.Folders); err != nil {
		return models.Backup{}, fmt.Errorf("corrupt folders column for backup %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(excludedJSON), &b.ExcludedExtensions); err != nil {
		return models.Backup{}, fmt.Errorf("corrupt exclusions column for backup %s: %w", b.ID, err)
	}
	return b, nil
}
