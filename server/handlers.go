package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"DanceDeck/config"
	"DanceDeck/core/auth"
	"DanceDeck/model"
	"DanceDeck/repository"
	"DanceDeck/storage"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SnapshotBackend stores point-in-time record backups.
type SnapshotBackend interface {
	Backup(ctx context.Context, v *model.Video, at time.Time) (string, error)
	List(ctx context.Context, videoID string) ([]storage.SnapshotInfo, error)
}

// APIHandler serves the REST API and the practice socket.
type APIHandler struct {
	cfg       *config.Config
	repo      repository.VideoRepository
	snapshots SnapshotBackend
	issuer    *auth.Issuer
	clock     clock.Clock
	log       *zap.Logger
	upgrader  websocket.Upgrader
	live      *liveSessions
}

// Option customises an APIHandler.
type Option func(*APIHandler)

func WithSnapshots(b SnapshotBackend) Option { return func(h *APIHandler) { h.snapshots = b } }
func WithClock(c clock.Clock) Option         { return func(h *APIHandler) { h.clock = c } }
func WithLogger(l *zap.Logger) Option        { return func(h *APIHandler) { h.log = l } }

// NewAPIHandler 创建 API 处理器。JWT 校验仅在配置了口令哈希与密钥时启用。
func NewAPIHandler(cfg *config.Config, repo repository.VideoRepository, opts ...Option) *APIHandler {
	h := &APIHandler{
		cfg:   cfg,
		repo:  repo,
		clock: clock.New(),
		log:   zap.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		live: newLiveSessions(),
	}
	if cfg.AuthEnabled() {
		h.issuer = auth.NewIssuer(cfg.JWTSecret)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router 注册全部路由
func (h *APIHandler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/auth/token", h.TokenHandler).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.AuthMiddleware)
	api.HandleFunc("/videos", h.ListVideosHandler).Methods(http.MethodGet)
	api.HandleFunc("/videos", h.CreateVideoHandler).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}", h.GetVideoHandler).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}", h.UpdateVideoHandler).Methods(http.MethodPut)
	api.HandleFunc("/videos/{id}", h.DeleteVideoHandler).Methods(http.MethodDelete)
	api.HandleFunc("/videos/{id}/bookmarks", h.ListBookmarksHandler).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/bookmarks/{bookmarkId}", h.DeleteBookmarkHandler).Methods(http.MethodDelete)
	api.HandleFunc("/videos/{id}/snapshots", h.CreateSnapshotHandler).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}/snapshots", h.ListSnapshotsHandler).Methods(http.MethodGet)
	api.HandleFunc("/tags", h.SuggestTagsHandler).Methods(http.MethodGet)

	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(h.AuthMiddleware)
	ws.HandleFunc("/practice/{id}", h.PracticeSocketHandler).Methods(http.MethodGet)

	return router
}

// corsMiddleware 添加 CORS 头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware checks for a valid JWT. Browsers cannot set headers on a
// WebSocket handshake, so a token query parameter is accepted as well.
func (h *APIHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.issuer == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := r.URL.Query().Get("token")
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}
			token = parts[1]
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		if _, err := h.issuer.ParseToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// liveSessions tracks which videos have an open practice socket. The socket
// owns the record while open, so REST writes to it are refused.
type liveSessions struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newLiveSessions() *liveSessions { return &liveSessions{ids: make(map[string]bool)} }

func (l *liveSessions) acquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ids[id] {
		return false
	}
	l.ids[id] = true
	return true
}

func (l *liveSessions) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, id)
}

func (l *liveSessions) active(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ids[id]
}
