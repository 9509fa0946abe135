package storage

import (
	"testing"
	"time"
)

func TestSnapshotKeyRoundTrip(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	key := snapshotKey("abc", at)
	if key != "records/abc/1700000000123.json" {
		t.Fatalf("key = %q", key)
	}
	id, got, ok := parseSnapshotKey(key)
	if !ok || id != "abc" || !got.Equal(at) {
		t.Fatalf("parse = %q %v %v", id, got, ok)
	}
}

func TestParseSnapshotKeyRejects(t *testing.T) {
	for _, key := range []string{
		"other/abc/1.json",
		"records/1.json",
		"records/abc/def/1.json",
		"records/abc/notanumber.json",
		"records/abc/1.txt",
	} {
		if _, _, ok := parseSnapshotKey(key); ok {
			t.Errorf("%q accepted", key)
		}
	}
}

func TestSortSnapshotsNewestFirst(t *testing.T) {
	list := []SnapshotInfo{
		{Key: "a", TakenAt: time.UnixMilli(1)},
		{Key: "c", TakenAt: time.UnixMilli(3)},
		{Key: "b", TakenAt: time.UnixMilli(2)},
	}
	sortSnapshots(list)
	if list[0].Key != "c" || list[1].Key != "b" || list[2].Key != "a" {
		t.Fatalf("order = %v", list)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{512: "512 B", 2048: "2.0 KB", 5 * 1024 * 1024: "5.0 MB"}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}
