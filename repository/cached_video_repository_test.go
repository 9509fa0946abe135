package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"DanceDeck/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestCachedRepositoryReadsThrough(t *testing.T) {
	ctx := context.Background()
	base := newSQLiteRepo(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCachedVideoRepository(base, cache.NewVideoCache(client, time.Minute), nil)

	v := newVideo("a", 1000)
	if err := repo.Create(ctx, v); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("video:" + v.ID) {
		t.Fatal("create should populate cache")
	}

	// A write that bypasses the cache is invisible until the entry goes.
	stale := v.Clone()
	stale.Title = "renamed"
	if err := base.Save(ctx, stale); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Load(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "a" {
		t.Fatalf("title = %q, want cached value", got.Title)
	}

	mr.FlushAll()
	if got, err = repo.Load(ctx, v.ID); err != nil || got.Title != "renamed" {
		t.Fatalf("after flush %+v, %v", got, err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if !mr.Exists("videos:list") {
		t.Fatal("list should be cached")
	}

	if err := repo.Delete(ctx, v.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Load(ctx, v.ID); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCachedRepositorySurvivesRedisOutage(t *testing.T) {
	ctx := context.Background()
	base := newSQLiteRepo(t)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	repo := NewCachedVideoRepository(base, cache.NewVideoCache(client, time.Minute), nil)

	v := newVideo("a", 1000)
	if err := base.Create(ctx, v); err != nil {
		t.Fatal(err)
	}
	mr.Close()

	got, err := repo.Load(ctx, v.ID)
	if err != nil || got.ID != v.ID {
		t.Fatalf("load during outage = %+v, %v", got, err)
	}
}
