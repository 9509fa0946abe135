package repository

import (
	"context"
	"errors"

	"DanceDeck/model"
)

// ErrVideoNotFound is returned when no record has the requested id.
var ErrVideoNotFound = errors.New("video not found")

// VideoRepository 定义视频记录的存储操作
type VideoRepository interface {
	// Create 插入新记录
	Create(ctx context.Context, v *model.Video) error
	// Load 读取完整记录，书签按新到旧排列
	Load(ctx context.Context, id string) (*model.Video, error)
	// FindByURI 按来源地址查找，不存在时返回 ErrVideoNotFound
	FindByURI(ctx context.Context, uri string) (*model.Video, error)
	// Save 整体覆盖记录及其书签
	Save(ctx context.Context, v *model.Video) error
	// Delete 删除记录及其书签
	Delete(ctx context.Context, id string) error
	// List 返回全部记录，最近更新的在前
	List(ctx context.Context) ([]*model.Video, error)
}
