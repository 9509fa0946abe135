package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"DanceDeck/config"
	"DanceDeck/logger"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB 是本地 SQLite 存储连接
var DB *sql.DB

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ConnectDB opens the local SQLite store and ensures its schema.
func ConnectDB(cfg *config.Config) error {
	conn, err := OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return err
	}
	DB = conn
	logger.Info("Successfully connected to the SQLite store.", logger.String("path", cfg.SQLitePath))
	return nil
}

// CloseDB closes the SQLite store.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// OpenSQLite opens path and runs InitSchema. SQLite allows one writer, so
// the pool is limited to a single connection; this also keeps an in-memory
// database alive for the lifetime of the handle.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// InitSchema creates tables if they don't exist and applies additive column
// migrations for databases created by older builds.
func InitSchema(conn *sql.DB) error {
	schema := `
	PRAGMA foreign_keys = ON;
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		source_type TEXT NOT NULL DEFAULT 'local',
		uri TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		memo TEXT NOT NULL DEFAULT '',
		bpm REAL NOT NULL DEFAULT 120,
		phase_millis REAL NOT NULL DEFAULT 0,
		loop_length_beats INTEGER NOT NULL DEFAULT 8,
		loop_start_millis REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_videos_updated_at ON videos(updated_at);
	CREATE TABLE IF NOT EXISTS loop_bookmarks (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		bpm REAL NOT NULL,
		phase_millis REAL NOT NULL,
		loop_length_beats INTEGER NOT NULL,
		loop_start_millis REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_loop_bookmarks_video ON loop_bookmarks(video_id, position);
	`
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	migrations := []string{
		"ALTER TABLE videos ADD COLUMN thumbnail_uri TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE videos ADD COLUMN duration_millis REAL NOT NULL DEFAULT 0",
	}
	for _, stmt := range migrations {
		if _, err := conn.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
