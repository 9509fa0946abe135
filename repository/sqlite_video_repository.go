package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"DanceDeck/core/library"
	"DanceDeck/model"
)

// SQLiteVideoRepository stores records in a local SQLite file. The schema is
// created by db.InitSchema.
type SQLiteVideoRepository struct {
	db *sql.DB
}

// NewSQLiteVideoRepository 创建 SQLite 视频仓库
func NewSQLiteVideoRepository(db *sql.DB) *SQLiteVideoRepository {
	return &SQLiteVideoRepository{db: db}
}

const videoColumns = `id, source_type, uri, thumbnail_uri, title, tags, memo, duration_millis,
	bpm, phase_millis, loop_length_beats, loop_start_millis, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var v model.Video
	err := row.Scan(&v.ID, &v.SourceType, &v.URI, &v.ThumbnailURI, &v.Title, &v.Tags, &v.Memo,
		&v.DurationMillis, &v.BPM, &v.PhaseMillis, &v.LoopLengthBeats, &v.LoopStartMillis,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create 插入新记录
func (r *SQLiteVideoRepository) Create(ctx context.Context, v *model.Video) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO videos (`+videoColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.SourceType, v.URI, v.ThumbnailURI, v.Title, v.Tags, v.Memo, v.DurationMillis,
			v.BPM, v.PhaseMillis, v.LoopLengthBeats, v.LoopStartMillis, v.CreatedAt, v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert video: %w", err)
		}
		return insertBookmarks(ctx, tx, v)
	})
}

// Load 读取记录及书签
func (r *SQLiteVideoRepository) Load(ctx context.Context, id string) (*model.Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return r.finish(ctx, row)
}

// FindByURI 按来源地址查找
func (r *SQLiteVideoRepository) FindByURI(ctx context.Context, uri string) (*model.Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE uri = ? LIMIT 1`, uri)
	return r.finish(ctx, row)
}

func (r *SQLiteVideoRepository) finish(ctx context.Context, row *sql.Row) (*model.Video, error) {
	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("load video: %w", err)
	}
	if v.LoopBookmarks, err = r.bookmarks(ctx, v.ID); err != nil {
		return nil, err
	}
	v.Normalize()
	return v, nil
}

func (r *SQLiteVideoRepository) bookmarks(ctx context.Context, videoID string) ([]model.LoopBookmark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, video_id, position, bpm, phase_millis, loop_length_beats, loop_start_millis, created_at
		FROM loop_bookmarks WHERE video_id = ? ORDER BY position ASC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	defer rows.Close()

	list := []model.LoopBookmark{}
	for rows.Next() {
		var b model.LoopBookmark
		if err := rows.Scan(&b.ID, &b.VideoID, &b.Position, &b.BPM, &b.PhaseMillis,
			&b.LoopLengthBeats, &b.LoopStartMillis, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Save 覆盖记录并替换书签
func (r *SQLiteVideoRepository) Save(ctx context.Context, v *model.Video) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE videos SET source_type = ?, uri = ?, thumbnail_uri = ?, title = ?, tags = ?, memo = ?,
				duration_millis = ?, bpm = ?, phase_millis = ?, loop_length_beats = ?, loop_start_millis = ?,
				updated_at = ?
			WHERE id = ?`,
			v.SourceType, v.URI, v.ThumbnailURI, v.Title, v.Tags, v.Memo, v.DurationMillis,
			v.BPM, v.PhaseMillis, v.LoopLengthBeats, v.LoopStartMillis, v.UpdatedAt, v.ID)
		if err != nil {
			return fmt.Errorf("update video: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrVideoNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM loop_bookmarks WHERE video_id = ?`, v.ID); err != nil {
			return fmt.Errorf("clear bookmarks: %w", err)
		}
		return insertBookmarks(ctx, tx, v)
	})
}

func insertBookmarks(ctx context.Context, tx *sql.Tx, v *model.Video) error {
	for i, b := range v.LoopBookmarks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO loop_bookmarks (id, video_id, position, bpm, phase_millis, loop_length_beats, loop_start_millis, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, v.ID, i, b.BPM, b.PhaseMillis, b.LoopLengthBeats, b.LoopStartMillis, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert bookmark %s: %w", b.ID, err)
		}
	}
	return nil
}

// Delete 删除记录，书签通过外键级联删除
func (r *SQLiteVideoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// List 返回全部记录，最近更新的在前
func (r *SQLiteVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	var videos []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// 单连接池：必须先关闭游标再查询书签
	for _, v := range videos {
		if v.LoopBookmarks, err = r.bookmarks(ctx, v.ID); err != nil {
			return nil, err
		}
		v.Normalize()
	}
	library.SortByRecency(videos)
	return videos, nil
}

func (r *SQLiteVideoRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
