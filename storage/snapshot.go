package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"DanceDeck/model"

	"github.com/minio/minio-go/v7"
)

const snapshotPrefix = "records/"

// SnapshotInfo describes one stored backup.
type SnapshotInfo struct {
	Key     string
	VideoID string
	TakenAt time.Time
	Size    int64
}

// SnapshotStore keeps point-in-time JSON copies of video records in a bucket
// under records/<videoId>/<unixMillis>.json.
type SnapshotStore struct {
	client *minio.Client
	bucket string
}

func NewSnapshotStore(client *minio.Client, bucket string) *SnapshotStore {
	return &SnapshotStore{client: client, bucket: bucket}
}

func snapshotKey(videoID string, at time.Time) string {
	return fmt.Sprintf("%s%s/%d.json", snapshotPrefix, videoID, at.UnixMilli())
}

func parseSnapshotKey(key string) (videoID string, at time.Time, ok bool) {
	rest := strings.TrimPrefix(key, snapshotPrefix)
	if rest == key {
		return "", time.Time{}, false
	}
	dir, file := path.Split(rest)
	videoID = strings.TrimSuffix(dir, "/")
	if videoID == "" || strings.Contains(videoID, "/") || !strings.HasSuffix(file, ".json") {
		return "", time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSuffix(file, ".json"), 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return videoID, time.UnixMilli(ms), true
}

// Backup uploads v and returns its object key.
func (s *SnapshotStore) Backup(ctx context.Context, v *model.Video, at time.Time) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	key := snapshotKey(v.ID, at)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("上传快照失败: %w", err)
	}
	return key, nil
}

// List returns snapshots newest first. An empty videoID lists every video.
func (s *SnapshotStore) List(ctx context.Context, videoID string) ([]SnapshotInfo, error) {
	prefix := snapshotPrefix
	if videoID != "" {
		prefix += videoID + "/"
	}
	var out []SnapshotInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("列出快照失败: %w", obj.Err)
		}
		id, at, ok := parseSnapshotKey(obj.Key)
		if !ok {
			continue
		}
		out = append(out, SnapshotInfo{Key: obj.Key, VideoID: id, TakenAt: at, Size: obj.Size})
	}
	sortSnapshots(out)
	return out, nil
}

func sortSnapshots(list []SnapshotInfo) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].TakenAt.After(list[j].TakenAt) })
}

// Fetch downloads and decodes the snapshot at key.
func (s *SnapshotStore) Fetch(ctx context.Context, key string) (*model.Video, error) {
	if _, _, ok := parseSnapshotKey(key); !ok {
		return nil, fmt.Errorf("not a snapshot key: %q", key)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取快照失败: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取快照内容失败: %w", err)
	}
	var v model.Video
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	v.Normalize()
	return &v, nil
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
