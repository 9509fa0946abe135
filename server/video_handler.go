package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"DanceDeck/core/library"
	"DanceDeck/model"
	"DanceDeck/repository"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ListVideosHandler GET /api/videos?tags=a,b&mode=and|or
func (h *APIHandler) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := h.repo.List(r.Context())
	if err != nil {
		h.log.Error("[Videos] 查询视频列表失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}

	query := library.ParseTagQuery(r.URL.Query().Get("tags"))
	mode := library.ParseMode(r.URL.Query().Get("mode"))
	out := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if library.MatchTags(v.Tags, query, mode) {
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateVideoHandler POST /api/videos
func (h *APIHandler) CreateVideoHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.URI = strings.TrimSpace(req.URI)
	if req.URI == "" {
		writeError(w, http.StatusBadRequest, "uri is required")
		return
	}
	if req.SourceType != "" && !req.SourceType.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown sourceType")
		return
	}
	if req.DurationMillis < 0 {
		writeError(w, http.StatusBadRequest, "durationMillis must not be negative")
		return
	}
	req.Tags = cleanTags(req.Tags)

	v := model.NewVideo(req, h.clock.Now())
	if err := h.repo.Create(r.Context(), v); err != nil {
		h.log.Error("[Videos] 创建视频失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create video")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func cleanTags(raw []string) []string {
	tags := []string{}
	for _, t := range raw {
		tags, _ = library.AddTag(tags, t)
	}
	return tags
}

// GetVideoHandler GET /api/videos/{id}
func (h *APIHandler) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateVideoHandler PUT /api/videos/{id} edits metadata. Loop settings are
// only changed through a practice session.
func (h *APIHandler) UpdateVideoHandler(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DurationMillis != nil && *req.DurationMillis < 0 {
		writeError(w, http.StatusBadRequest, "durationMillis must not be negative")
		return
	}
	if !h.refuseIfLive(w, r) {
		return
	}
	v, ok := h.loadVideo(w, r)
	if !ok {
		return
	}

	if req.Title != nil {
		v.Title = *req.Title
	}
	if req.Memo != nil {
		v.Memo = *req.Memo
	}
	if req.Tags != nil {
		v.Tags = cleanTags(*req.Tags)
	}
	if req.DurationMillis != nil {
		v.DurationMillis = *req.DurationMillis
	}
	v.UpdatedAt = h.clock.Now().UnixMilli()

	if !h.saveVideo(w, r, v) {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVideoHandler DELETE /api/videos/{id}
func (h *APIHandler) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	if !h.refuseIfLive(w, r) {
		return
	}
	err := h.repo.Delete(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, repository.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		h.log.Error("[Videos] 删除视频失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete video")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBookmarksHandler GET /api/videos/{id}/bookmarks
func (h *APIHandler) ListBookmarksHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Bookmarks())
}

// DeleteBookmarkHandler DELETE /api/videos/{id}/bookmarks/{bookmarkId}.
// Removing an unknown bookmark is not an error.
func (h *APIHandler) DeleteBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	if !h.refuseIfLive(w, r) {
		return
	}
	v, ok := h.loadVideo(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["bookmarkId"]
	list := v.Bookmarks()
	kept := list[:0]
	for _, b := range list {
		if b.ID != target {
			kept = append(kept, b)
		}
	}
	if len(kept) != len(v.LoopBookmarks) {
		v.SetBookmarks(kept)
		v.UpdatedAt = h.clock.Now().UnixMilli()
		if !h.saveVideo(w, r, v) {
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// SuggestTagsHandler GET /api/tags?q=ho&current=house,popping
func (h *APIHandler) SuggestTagsHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := h.repo.List(r.Context())
	if err != nil {
		h.log.Error("[Tags] 查询视频列表失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list tags")
		return
	}
	lists := make([][]string, 0, len(videos))
	for _, v := range videos {
		lists = append(lists, v.Tags)
	}
	all := library.CollectTags(lists...)
	if all == nil {
		all = []string{}
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, all)
		return
	}
	current := library.ParseTagQuery(r.URL.Query().Get("current"))
	suggestions := library.Suggest(all, current, q)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *APIHandler) loadVideo(w http.ResponseWriter, r *http.Request) (*model.Video, bool) {
	v, err := h.repo.Load(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, repository.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "Video not found")
		return nil, false
	}
	if err != nil {
		h.log.Error("[Videos] 读取视频失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load video")
		return nil, false
	}
	return v, true
}

func (h *APIHandler) saveVideo(w http.ResponseWriter, r *http.Request, v *model.Video) bool {
	err := h.repo.Save(r.Context(), v)
	if errors.Is(err, repository.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "Video not found")
		return false
	}
	if err != nil {
		h.log.Error("[Videos] 保存视频失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save video")
		return false
	}
	return true
}

func (h *APIHandler) refuseIfLive(w http.ResponseWriter, r *http.Request) bool {
	if h.live.active(mux.Vars(r)["id"]) {
		writeError(w, http.StatusConflict, "Video is open in a practice session")
		return false
	}
	return true
}
