package collector

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes the collector's sync surface on its own listener, separate
// from the reporting API.
type Handler struct {
	drive    *DriveService
	ingest   *IngestService
	folderID string
}

func NewHandler(drive *DriveService, ingest *IngestService, folderID string) *Handler {
	return &Handler{
		drive:    drive,
		ingest:   ingest,
		folderID: folderID,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/collector/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/collector/sync", h.Sync).Methods("POST")
	router.HandleFunc("/api/collector/ingest", h.IngestFile).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		folderID = h.folderID
	}

	files, err := h.drive.ListCSVFiles(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

// Sync ingests every export in the configured folder. The store system's
// upload job calls this after it finishes writing the day's files.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		folderID = h.folderID
	}

	if err := h.ingest.SyncFolder(r.Context(), folderID); err != nil {
		http.Error(w, fmt.Sprintf("sync failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	name := r.URL.Query().Get("name")
	if fileID == "" || name == "" {
		http.Error(w, "fileId and name parameters are required", http.StatusBadRequest)
		return
	}

	if err := h.ingest.IngestFile(r.Context(), fileID, name); err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": "File ingested successfully"})
}
