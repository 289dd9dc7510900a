package handler

import (
	"context"
	"net/http"
	"time"

	"rtmap/internal/importer"
)

// HealthResponse reports whether a timetable is loaded and which run produced it.
type HealthResponse struct {
	Status     string `json:"status"`
	Data       bool   `json:"data"`
	Driver     string `json:"driver"`
	RunID      string `json:"run_id,omitempty"`
	ImportedAt string `json:"imported_at,omitempty"`
	BuildMode  string `json:"build_mode,omitempty"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Data: h.store.HasData(ctx), Driver: h.store.Driver()}
	var err error
	if resp.RunID, err = h.store.GetMetadata(ctx, importer.MetaRunID); err != nil {
		h.logger.Error("health check", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "error", Driver: resp.Driver})
		return
	}
	resp.ImportedAt, _ = h.store.GetMetadata(ctx, importer.MetaImportedAt)
	resp.BuildMode, _ = h.store.GetMetadata(ctx, importer.MetaBuildMode)
	writeJSON(w, http.StatusOK, resp)
}
