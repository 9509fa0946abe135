package library

import (
	"reflect"
	"testing"
)

func TestParseTagQuery(t *testing.T) {
	got := ParseTagQuery("hiphop house, #popping")
	want := []string{"hiphop", "house", "popping"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if ParseTagQuery("   ") != nil {
		t.Fatal("blank query should give no tags")
	}
	if got := ParseTagQuery(", ,#House,,"); !reflect.DeepEqual(got, []string{"house"}) {
		t.Fatalf("got %v", got)
	}
}

func TestMatchTags(t *testing.T) {
	q := ParseTagQuery("house hiphop")
	cases := []struct {
		tags []string
		mode SearchMode
		want bool
	}{
		{[]string{"House", "hiphop"}, ModeAnd, true},
		{[]string{"house"}, ModeAnd, false},
		{[]string{"house"}, ModeOr, true},
		{[]string{"popping"}, ModeOr, false},
		{nil, ModeOr, false},
	}
	for _, c := range cases {
		if got := MatchTags(c.tags, q, c.mode); got != c.want {
			t.Fatalf("MatchTags(%v, %v) = %v, want %v", c.tags, c.mode, got, c.want)
		}
	}
	if !MatchTags(nil, nil, ModeAnd) {
		t.Fatal("empty query should match everything")
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("OR") != ModeOr || ParseMode("and") != ModeAnd || ParseMode("") != ModeAnd {
		t.Fatal("ParseMode mismatch")
	}
}

func TestAddAndRemoveTag(t *testing.T) {
	tags, ok := AddTag(nil, "  #Krump ")
	if !ok || !reflect.DeepEqual(tags, []string{"Krump"}) {
		t.Fatalf("tags = %v ok=%v", tags, ok)
	}
	if _, ok := AddTag(tags, "krump"); ok {
		t.Fatal("case-insensitive duplicate accepted")
	}
	if _, ok := AddTag(tags, "#"); ok {
		t.Fatal("empty tag accepted")
	}
	tags, _ = AddTag(tags, "waacking")
	tags, ok = RemoveTag(tags, "Krump")
	if !ok || !reflect.DeepEqual(tags, []string{"waacking"}) {
		t.Fatalf("after remove = %v", tags)
	}
}

func TestCollectAndSuggest(t *testing.T) {
	all := CollectTags([]string{"house", "HipHop"}, []string{"hiphop", "popping", "house dance"})
	if !reflect.DeepEqual(all, []string{"HipHop", "house", "house dance", "popping"}) {
		t.Fatalf("collected = %v", all)
	}
	got := Suggest(all, []string{"house"}, "#HO")
	if !reflect.DeepEqual(got, []string{"HipHop", "house dance"}) {
		t.Fatalf("suggest = %v", got)
	}
	if Suggest(all, nil, " ") != nil {
		t.Fatal("blank query should suggest nothing")
	}

	many := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
	if got := Suggest(many, nil, "a"); len(got) != MaxSuggestions {
		t.Fatalf("suggest returned %d", len(got))
	}
}

func TestFormatTime(t *testing.T) {
	cases := map[float64]string{
		0:      "0:00",
		9999:   "0:09",
		65000:  "1:05",
		600000: "10:00",
		-5:     "0:00",
	}
	for in, want := range cases {
		if got := FormatTime(in); got != want {
			t.Fatalf("FormatTime(%v) = %q, want %q", in, got, want)
		}
	}
}

type item struct {
	id               string
	created, updated int64
}

func (i item) CreatedAtMillis() int64 { return i.created }
func (i item) UpdatedAtMillis() int64 { return i.updated }

func TestSortByRecency(t *testing.T) {
	items := []item{
		{id: "a", created: 1000, updated: 2000},
		{id: "b", created: 1000, updated: 3000},
		{id: "c", created: 2500},
	}
	SortByRecency(items)
	var ids []string
	for _, it := range items {
		ids = append(ids, it.id)
	}
	if !reflect.DeepEqual(ids, []string{"b", "c", "a"}) {
		t.Fatalf("order = %v", ids)
	}
}
