package repository

import (
	"context"
	"errors"

	"DanceDeck/core/library"
	"DanceDeck/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormVideoRepository GORM 实现，用于 MySQL
type gormVideoRepository struct {
	db *gorm.DB
}

// NewGormVideoRepository 创建 GORM 视频仓库
func NewGormVideoRepository(db *gorm.DB) VideoRepository {
	return &gormVideoRepository{db: db}
}

func orderedBookmarks(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create 创建视频记录
func (r *gormVideoRepository) Create(ctx context.Context, v *model.Video) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return err
		}
		return r.replaceBookmarks(tx, v)
	})
}

// Load 根据ID获取视频
func (r *gormVideoRepository) Load(ctx context.Context, id string) (*model.Video, error) {
	var v model.Video
	err := r.db.WithContext(ctx).
		Preload("LoopBookmarks", orderedBookmarks).
		Where("id = ?", id).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	v.Normalize()
	return &v, nil
}

// FindByURI 根据来源地址获取视频
func (r *gormVideoRepository) FindByURI(ctx context.Context, uri string) (*model.Video, error) {
	var v model.Video
	err := r.db.WithContext(ctx).
		Preload("LoopBookmarks", orderedBookmarks).
		Where("uri = ?", uri).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	v.Normalize()
	return &v, nil
}

// Save 更新视频并整体替换书签
func (r *gormVideoRepository) Save(ctx context.Context, v *model.Video) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Video{}).
			Where("id = ?", v.ID).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(v)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Video{}).Where("id = ?", v.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrVideoNotFound
			}
		}
		if err := tx.Where("video_id = ?", v.ID).Delete(&model.LoopBookmark{}).Error; err != nil {
			return err
		}
		return r.replaceBookmarks(tx, v)
	})
}

func (r *gormVideoRepository) replaceBookmarks(tx *gorm.DB, v *model.Video) error {
	if len(v.LoopBookmarks) == 0 {
		return nil
	}
	rows := make([]model.LoopBookmark, len(v.LoopBookmarks))
	for i, b := range v.LoopBookmarks {
		b.VideoID = v.ID
		b.Position = i
		rows[i] = b
	}
	return tx.Create(&rows).Error
}

// Delete 删除视频及书签
func (r *gormVideoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&model.LoopBookmark{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Video{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVideoNotFound
		}
		return nil
	})
}

// List 获取全部视频
func (r *gormVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).
		Preload("LoopBookmarks", orderedBookmarks).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	for _, v := range videos {
		v.Normalize()
	}
	library.SortByRecency(videos)
	return videos, nil
}
