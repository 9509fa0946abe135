package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"DanceDeck/core/bookmark"
	"DanceDeck/db"
	"DanceDeck/model"
)

func newSQLiteRepo(t *testing.T) *SQLiteVideoRepository {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteVideoRepository(conn)
}

func newVideo(uri string, createdAt int64) *model.Video {
	return model.NewVideo(model.CreateVideoRequest{URI: uri, Title: uri, Tags: []string{"house"}}, time.UnixMilli(createdAt))
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	v := newVideo("file:///a.mp4", 1000)
	v.DurationMillis = 60000
	v.SetBookmarks([]bookmark.Bookmark{
		{ID: "new", BPM: 100, LengthBeats: 8, StartMillis: 3000, CreatedAt: 20},
		{ID: "old", BPM: 90, LengthBeats: 4, StartMillis: 1000, CreatedAt: 10},
	})
	if err := repo.Create(ctx, v); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.URI != v.URI || got.DurationMillis != 60000 || len(got.Tags) != 1 || got.Tags[0] != "house" {
		t.Fatalf("loaded %+v", got)
	}
	if len(got.LoopBookmarks) != 2 || got.LoopBookmarks[0].ID != "new" || got.LoopBookmarks[1].ID != "old" {
		t.Fatalf("bookmarks = %+v", got.LoopBookmarks)
	}

	got.BPM = 128
	got.UpdatedAt = 5000
	got.SetBookmarks(got.Bookmarks()[1:])
	if err := repo.Save(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, err := repo.Load(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.BPM != 128 || again.UpdatedAt != 5000 || len(again.LoopBookmarks) != 1 || again.LoopBookmarks[0].ID != "old" {
		t.Fatalf("after save %+v", again)
	}

	byURI, err := repo.FindByURI(ctx, "file:///a.mp4")
	if err != nil || byURI.ID != v.ID {
		t.Fatalf("FindByURI = %v, %v", byURI, err)
	}
}

func TestSQLiteMissing(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	if _, err := repo.Load(ctx, "nope"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("Load err = %v", err)
	}
	if err := repo.Save(ctx, newVideo("x", 1)); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("Save err = %v", err)
	}
	if err := repo.Delete(ctx, "nope"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestSQLiteListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	a := newVideo("a", 1000)
	b := newVideo("b", 2000)
	c := newVideo("c", 3000)
	a.UpdatedAt = 9000
	a.SetBookmarks([]bookmark.Bookmark{{ID: "bm", BPM: 120, LengthBeats: 8}})
	for _, v := range []*model.Video{a, b, c} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].URI != "a" || list[1].URI != "c" || list[2].URI != "b" {
		t.Fatalf("order = %v %v %v", list[0].URI, list[1].URI, list[2].URI)
	}
	if len(list[0].LoopBookmarks) != 1 {
		t.Fatalf("bookmarks not loaded: %+v", list[0])
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM loop_bookmarks`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("%d bookmarks left after delete", n)
	}
}
