package server

import (
	"net/http"

	"DanceDeck/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type snapshotView struct {
	Key     string `json:"key"`
	TakenAt int64  `json:"takenAt"`
	Size    string `json:"size"`
}

// CreateSnapshotHandler POST /api/videos/{id}/snapshots backs the stored
// record up to object storage.
func (h *APIHandler) CreateSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusNotImplemented, "Snapshot storage is not configured")
		return
	}
	v, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	now := h.clock.Now()
	key, err := h.snapshots.Backup(r.Context(), v, now)
	if err != nil {
		h.log.Error("[Snapshots] 备份失败", zap.String("id", v.ID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to store snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, snapshotView{Key: key, TakenAt: now.UnixMilli()})
}

// ListSnapshotsHandler GET /api/videos/{id}/snapshots
func (h *APIHandler) ListSnapshotsHandler(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusNotImplemented, "Snapshot storage is not configured")
		return
	}
	list, err := h.snapshots.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.log.Error("[Snapshots] 列出失败", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotViews(list))
}

func toSnapshotViews(list []storage.SnapshotInfo) []snapshotView {
	out := make([]snapshotView, 0, len(list))
	for _, s := range list {
		out = append(out, snapshotView{Key: s.Key, TakenAt: s.TakenAt.UnixMilli(), Size: storage.FormatSize(s.Size)})
	}
	return out
}

var _ SnapshotBackend = (*storage.SnapshotStore)(nil)
