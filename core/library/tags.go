// Package library has the pure helpers behind the video library: tag
// normalisation, tag search and ordering.
package library

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SearchMode combines the tags of a query.
type SearchMode string

const (
	ModeAnd SearchMode = "and"
	ModeOr  SearchMode = "or"
)

// ParseMode accepts "and"/"or" in any case and defaults to AND.
func ParseMode(s string) SearchMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeOr)) {
		return ModeOr
	}
	return ModeAnd
}

// MaxSuggestions caps the tag suggestion list.
const MaxSuggestions = 6

var querySeparators = regexp.MustCompile(`[\s,]+`)

// CleanTag trims a tag and drops one leading '#'. Case is preserved.
func CleanTag(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "#")
}

// NormalizeTag is the comparison form of a tag.
func NormalizeTag(raw string) string {
	return strings.ToLower(CleanTag(raw))
}

// ParseTagQuery splits a query on whitespace and commas into normalised tags.
func ParseTagQuery(query string) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	var out []string
	for _, part := range querySeparators.Split(query, -1) {
		if tag := NormalizeTag(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// MatchTags reports whether a video's tags satisfy the query tags.
func MatchTags(videoTags, queryTags []string, mode SearchMode) bool {
	if len(queryTags) == 0 {
		return true
	}
	have := make(map[string]bool, len(videoTags))
	for _, t := range videoTags {
		have[strings.ToLower(t)] = true
	}
	for _, q := range queryTags {
		if mode == ModeOr && have[q] {
			return true
		}
		if mode != ModeOr && !have[q] {
			return false
		}
	}
	return mode != ModeOr
}

// AddTag appends candidate unless an equal tag (case-insensitive) is present.
func AddTag(tags []string, candidate string) ([]string, bool) {
	clean := CleanTag(candidate)
	if clean == "" {
		return tags, false
	}
	if ContainsTag(tags, clean) {
		return tags, false
	}
	out := make([]string, 0, len(tags)+1)
	out = append(out, tags...)
	return append(out, clean), true
}

// RemoveTag drops the exact tag.
func RemoveTag(tags []string, tag string) ([]string, bool) {
	out := make([]string, 0, len(tags))
	removed := false
	for _, t := range tags {
		if t == tag {
			removed = true
			continue
		}
		out = append(out, t)
	}
	return out, removed
}

func ContainsTag(tags []string, tag string) bool {
	n := NormalizeTag(tag)
	for _, t := range tags {
		if strings.ToLower(t) == n {
			return true
		}
	}
	return false
}

// CollectTags returns the distinct tags of many videos, sorted. The first
// spelling seen wins.
func CollectTags(tagLists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range tagLists {
		for _, t := range list {
			k := strings.ToLower(t)
			if t == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Suggest offers known tags containing the query that are not already set.
func Suggest(available, current []string, query string) []string {
	q := NormalizeTag(query)
	if q == "" {
		return nil
	}
	var out []string
	for _, t := range available {
		if ContainsTag(current, t) || !strings.Contains(strings.ToLower(t), q) {
			continue
		}
		out = append(out, t)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// FormatTime renders milliseconds as m:ss.
func FormatTime(millis float64) string {
	if millis < 0 {
		millis = 0
	}
	total := int64(millis / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
