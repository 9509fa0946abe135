package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"DanceDeck/core/bookmark"
	"DanceDeck/core/loop"
	"DanceDeck/core/tempo"

	"github.com/google/uuid"
)

// SourceType 视频来源
type SourceType string

const (
	SourceLocal     SourceType = "local"
	SourceYouTube   SourceType = "youtube"
	SourceTikTok    SourceType = "tiktok"
	SourceInstagram SourceType = "instagram"
)

// Valid reports whether s is a known source.
func (s SourceType) Valid() bool {
	switch s {
	case SourceLocal, SourceYouTube, SourceTikTok, SourceInstagram:
		return true
	}
	return false
}

// TagList 自定义类型，以 JSON 文本存储在单列中
type TagList []string

// Scan 实现 sql.Scanner 接口
func (t *TagList) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*t = TagList{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported tag column type %T", value)
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*t = TagList{}
		return nil
	}
	return json.Unmarshal(bytes, t)
}

// Value 实现 driver.Valuer 接口
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Video is one practice video with its notes and loop settings.
// Timestamps are unix milliseconds.
type Video struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	SourceType      SourceType     `gorm:"size:16;not null;default:local" json:"sourceType"`
	URI             string         `gorm:"size:1024;not null" json:"uri"`
	ThumbnailURI    string         `gorm:"size:1024" json:"thumbnailUri,omitempty"`
	Title           string         `gorm:"size:255" json:"title,omitempty"`
	Tags            TagList        `gorm:"type:text" json:"tags"`
	Memo            string         `gorm:"type:text" json:"memo,omitempty"`
	DurationMillis  float64        `json:"durationMillis,omitempty"`
	BPM             float64        `json:"bpm"`
	PhaseMillis     float64        `json:"phaseMillis"`
	LoopLengthBeats int            `json:"loopLengthBeats"`
	LoopStartMillis float64        `json:"loopStartMillis"`
	LoopBookmarks   []LoopBookmark `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"loopBookmarks"`
	CreatedAt       int64          `gorm:"autoCreateTime:false;index" json:"createdAt"`
	UpdatedAt       int64          `gorm:"autoUpdateTime:false;index" json:"updatedAt,omitempty"`
}

// LoopBookmark is the stored form of a bookmark. Position orders the list,
// 0 being the newest.
type LoopBookmark struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	VideoID         string  `gorm:"size:36;index;not null" json:"-"`
	Position        int     `gorm:"not null" json:"-"`
	BPM             float64 `json:"bpm"`
	PhaseMillis     float64 `json:"phaseMillis"`
	LoopLengthBeats int     `json:"loopLengthBeats"`
	LoopStartMillis float64 `json:"loopStartMillis"`
	CreatedAt       int64   `gorm:"autoCreateTime:false" json:"createdAt"`
}

func (Video) TableName() string        { return "videos" }
func (LoopBookmark) TableName() string { return "loop_bookmarks" }

func (v *Video) CreatedAtMillis() int64 { return v.CreatedAt }
func (v *Video) UpdatedAtMillis() int64 { return v.UpdatedAt }

// CreateVideoRequest 新建视频请求
type CreateVideoRequest struct {
	SourceType     SourceType `json:"sourceType"`
	URI            string     `json:"uri"`
	ThumbnailURI   string     `json:"thumbnailUri"`
	Title          string     `json:"title"`
	Tags           []string   `json:"tags"`
	DurationMillis float64    `json:"durationMillis"`
}

// UpdateVideoRequest carries the editable metadata. Nil fields are left alone.
type UpdateVideoRequest struct {
	Title          *string   `json:"title"`
	Tags           *[]string `json:"tags"`
	Memo           *string   `json:"memo"`
	DurationMillis *float64  `json:"durationMillis"`
}

// NewVideo builds a record with default loop settings.
func NewVideo(req CreateVideoRequest, now time.Time) *Video {
	source := req.SourceType
	if !source.Valid() {
		source = SourceLocal
	}
	tags := TagList{}
	if req.Tags != nil {
		tags = append(tags, req.Tags...)
	}
	ms := now.UnixMilli()
	return &Video{
		ID:              uuid.New().String(),
		SourceType:      source,
		URI:             req.URI,
		ThumbnailURI:    req.ThumbnailURI,
		Title:           req.Title,
		Tags:            tags,
		DurationMillis:  req.DurationMillis,
		BPM:             tempo.DefaultBPM,
		LoopLengthBeats: tempo.DefaultLengthBeats,
		CreatedAt:       ms,
		UpdatedAt:       ms,
	}
}

// Normalize fills defaults for records written before loop settings existed.
func (v *Video) Normalize() {
	if v.BPM == 0 {
		v.BPM = tempo.DefaultBPM
	}
	v.BPM = tempo.ClampBPM(v.BPM)
	if v.PhaseMillis < 0 {
		v.PhaseMillis = 0
	}
	if v.LoopLengthBeats == 0 {
		v.LoopLengthBeats = tempo.DefaultLengthBeats
	}
	if v.Tags == nil {
		v.Tags = TagList{}
	}
	if v.LoopBookmarks == nil {
		v.LoopBookmarks = []LoopBookmark{}
	}
	if !v.SourceType.Valid() {
		v.SourceType = SourceLocal
	}
}

func (v *Video) Tempo() loop.TempoSpec {
	return loop.TempoSpec{BPM: v.BPM, PhaseMillis: v.PhaseMillis}
}

func (v *Video) LoopSpec() loop.Spec {
	return loop.Spec{LengthBeats: v.LoopLengthBeats, StartMillis: v.LoopStartMillis}
}

// Bookmarks converts the stored list into core bookmarks, newest first.
func (v *Video) Bookmarks() []bookmark.Bookmark {
	out := make([]bookmark.Bookmark, 0, len(v.LoopBookmarks))
	for _, b := range v.LoopBookmarks {
		out = append(out, bookmark.Bookmark{
			ID:          b.ID,
			BPM:         b.BPM,
			PhaseMillis: b.PhaseMillis,
			LengthBeats: b.LoopLengthBeats,
			StartMillis: b.LoopStartMillis,
			CreatedAt:   b.CreatedAt,
		})
	}
	return out
}

// SetBookmarks replaces the stored list, numbering positions newest first.
func (v *Video) SetBookmarks(list []bookmark.Bookmark) {
	v.LoopBookmarks = make([]LoopBookmark, 0, len(list))
	for i, b := range list {
		v.LoopBookmarks = append(v.LoopBookmarks, LoopBookmark{
			ID:              b.ID,
			VideoID:         v.ID,
			Position:        i,
			BPM:             b.BPM,
			PhaseMillis:     b.PhaseMillis,
			LoopLengthBeats: b.LengthBeats,
			LoopStartMillis: b.StartMillis,
			CreatedAt:       b.CreatedAt,
		})
	}
}

// Clone deep-copies the record so it can be handed to another goroutine.
func (v *Video) Clone() *Video {
	c := *v
	c.Tags = append(TagList{}, v.Tags...)
	c.LoopBookmarks = append([]LoopBookmark{}, v.LoopBookmarks...)
	return &c
}
