package repository

import (
	"context"
	"errors"

	"DanceDeck/cache"
	"DanceDeck/model"

	"go.uber.org/zap"
)

// CachedVideoRepository reads through a Redis cache. Cache failures are
// logged and fall back to the wrapped repository.
type CachedVideoRepository struct {
	next  VideoRepository
	cache *cache.VideoCache
	log   *zap.Logger
}

// NewCachedVideoRepository wraps next with cache.
func NewCachedVideoRepository(next VideoRepository, c *cache.VideoCache, log *zap.Logger) *CachedVideoRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedVideoRepository{next: next, cache: c, log: log}
}

func (r *CachedVideoRepository) Create(ctx context.Context, v *model.Video) error {
	if err := r.next.Create(ctx, v); err != nil {
		return err
	}
	r.store(ctx, v)
	return nil
}

func (r *CachedVideoRepository) Load(ctx context.Context, id string) (*model.Video, error) {
	v, err := r.cache.Get(ctx, id)
	if err == nil {
		v.Normalize()
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.log.Warn("video cache read failed", zap.String("id", id), zap.Error(err))
	}
	v, err = r.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, v)
	return v, nil
}

// FindByURI is not cached.
func (r *CachedVideoRepository) FindByURI(ctx context.Context, uri string) (*model.Video, error) {
	return r.next.FindByURI(ctx, uri)
}

func (r *CachedVideoRepository) Save(ctx context.Context, v *model.Video) error {
	if err := r.next.Save(ctx, v); err != nil {
		r.invalidate(ctx, v.ID)
		return err
	}
	r.store(ctx, v)
	return nil
}

func (r *CachedVideoRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	videos, err := r.cache.GetList(ctx)
	if err == nil {
		for _, v := range videos {
			v.Normalize()
		}
		return videos, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.log.Warn("video list cache read failed", zap.Error(err))
	}
	videos, err = r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetList(ctx, videos); err != nil {
		r.log.Warn("video list cache write failed", zap.Error(err))
	}
	return videos, nil
}

func (r *CachedVideoRepository) store(ctx context.Context, v *model.Video) {
	if err := r.cache.Set(ctx, v); err != nil {
		r.log.Warn("video cache write failed", zap.String("id", v.ID), zap.Error(err))
	}
}

func (r *CachedVideoRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Invalidate(ctx, id); err != nil {
		r.log.Warn("video cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}
