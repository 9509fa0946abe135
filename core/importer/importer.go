// Package importer registers video files dropped into a watch folder.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DanceDeck/model"
	"DanceDeck/repository"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SettleDelay is how long a file must stay unchanged before it is imported.
const SettleDelay = 500 * time.Millisecond

var videoExts = map[string]bool{".mp4": true, ".mov": true, ".m4v": true, ".webm": true}

// IsVideoFile reports whether name has a supported extension.
func IsVideoFile(name string) bool {
	return videoExts[strings.ToLower(filepath.Ext(name))]
}

// FileURI turns an absolute path into a file:// URI.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// Store is the part of the repository the importer needs.
type Store interface {
	FindByURI(ctx context.Context, uri string) (*model.Video, error)
	Create(ctx context.Context, v *model.Video) error
}

var _ Store = (repository.VideoRepository)(nil)

// Importer 监听目录中的新视频文件
type Importer struct {
	dir    string
	store  Store
	log    *zap.Logger
	settle time.Duration
	now    func() time.Time
	// OnImport is called after a file is registered.
	OnImport func(*model.Video)
}

func New(dir string, store Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{dir: dir, store: store, log: log, settle: SettleDelay, now: time.Now}
}

// Scan registers every video already present in the folder and returns how
// many were new.
func (im *Importer) Scan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(im.dir)
	if err != nil {
		return 0, fmt.Errorf("读取导入目录失败: %w", err)
	}
	added := 0
	for _, e := range entries {
		if e.IsDir() || !IsVideoFile(e.Name()) {
			continue
		}
		ok, err := im.Register(ctx, filepath.Join(im.dir, e.Name()))
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Register adds path to the library unless a record already points at it.
func (im *Importer) Register(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	uri := FileURI(abs)
	_, err = im.store.FindByURI(ctx, uri)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrVideoNotFound) {
		return false, err
	}

	name := filepath.Base(abs)
	v := model.NewVideo(model.CreateVideoRequest{
		SourceType: model.SourceLocal,
		URI:        uri,
		Title:      strings.TrimSuffix(name, filepath.Ext(name)),
	}, im.now())
	if err := im.store.Create(ctx, v); err != nil {
		return false, fmt.Errorf("register %s: %w", name, err)
	}
	im.log.Info("导入视频", zap.String("id", v.ID), zap.String("file", name))
	if im.OnImport != nil {
		im.OnImport(v)
	}
	return true, nil
}

// Run watches the folder until ctx is done. Files are imported once they
// have stopped changing for the settle delay.
func (im *Importer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(im.dir); err != nil {
		return fmt.Errorf("监听目录失败: %w", err)
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(im.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && IsVideoFile(event.Name) {
				pending[event.Name] = im.now()
			}

		case <-ticker.C:
			now := im.now()
			for path, last := range pending {
				if now.Sub(last) < im.settle {
					continue // 文件可能还在写入
				}
				delete(pending, path)
				if _, err := os.Stat(path); err != nil {
					continue // renamed away or deleted
				}
				if _, err := im.Register(ctx, path); err != nil {
					im.log.Warn("导入视频失败", zap.String("file", path), zap.Error(err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.log.Warn("文件监听错误", zap.Error(err))
		}
	}
}
