package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dwelr/minevault/internal/services"
)

// BackupHandler handles HTTP requests related to backups.
type BackupHandler struct {
	service services.BackupServiceProvider
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service services.BackupServiceProvider) *BackupHandler {
	return &BackupHandler{service: service}
}

// GetAll handles the request to get the backup history.
func (h *BackupHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	backups, err := h.service.GetAllBackups()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve backups")
		http.Error(w, "Failed to retrieve backups: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(backups)
}

// Get handles the request to get a single backup by ID.
func (h *BackupHandler) Get(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "id")
	b, err := h.service.GetBackupByID(backupID)
	if err != nil {
		http.Error(w, "Backup not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

// Create handles the request to start a new backup.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload services.BackupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if payload.Name == "" {
		http.Error(w, "Backup name is required", http.StatusBadRequest)
		return
	}
	if len(payload.Folders) == 0 {
		http.Error(w, "At least one folder must be selected", http.StatusBadRequest)
		return
	}

	// Creating a backup can be a long-running task.
	go func() {
		if _, err := h.service.CreateBackup(payload); err != nil {
			log.Error().Err(err).Str("backup_name", payload.Name).Msg("Failed to create backup in background")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"message": "Backup creation started."})
}

// Delete handles the request to delete a backup.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "id")
	if err := h.service.DeleteBackup(backupID); err != nil {
		log.Error().Err(err).Str("backup_id", backupID).Msg("Failed to delete backup")
		http.Error(w, "Failed to delete backup: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
