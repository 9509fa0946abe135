package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"DanceDeck/core/bookmark"
	"DanceDeck/core/playback"
	"DanceDeck/core/session"
)

// MessageType 练习会话消息类型
type MessageType string

const (
	// 客户端 -> 服务端
	MsgObservation  MessageType = "observation"
	MsgTap          MessageType = "tap"
	MsgTapReset     MessageType = "tap_reset"
	MsgTapApply     MessageType = "tap_apply"
	MsgLayout       MessageType = "layout"
	MsgDragStart    MessageType = "drag_start"
	MsgDragMove     MessageType = "drag_move"
	MsgDragEnd      MessageType = "drag_end"
	MsgDragCancel   MessageType = "drag_cancel"
	MsgSetBPM       MessageType = "set_bpm"
	MsgAdjustBPM    MessageType = "adjust_bpm"
	MsgRephase      MessageType = "rephase"
	MsgSetLength    MessageType = "set_length"
	MsgToggleLoop   MessageType = "toggle_loop"
	MsgTogglePlay   MessageType = "toggle_play"
	MsgSeekRelative MessageType = "seek_relative"
	MsgSeek         MessageType = "seek"
	MsgCycleRate    MessageType = "cycle_rate"
	MsgToggleMirror MessageType = "toggle_mirror"
	MsgControlsTap  MessageType = "controls_tap"
	MsgBookmarkAdd  MessageType = "bookmark_create"
	MsgBookmarkUse  MessageType = "bookmark_apply"
	MsgBookmarkDel  MessageType = "bookmark_remove"
	MsgSetTitle     MessageType = "set_title"
	MsgAddTag       MessageType = "add_tag"
	MsgRemoveTag    MessageType = "remove_tag"
	MsgSetMemo      MessageType = "set_memo"
	MsgPing         MessageType = "ping"

	// 服务端 -> 客户端
	MsgState   MessageType = "state"
	MsgCommand MessageType = "command"
	MsgNotice  MessageType = "notice"
	MsgPong    MessageType = "pong"
	MsgError   MessageType = "error"
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// eventData covers every client payload; each event reads its own fields.
type eventData struct {
	PositionMillis *float64 `json:"positionMillis"`
	DurationMillis float64  `json:"durationMillis"`
	IsPlaying      bool     `json:"isPlaying"`
	AtMillis       *float64 `json:"atMillis"`
	LengthBeats    int      `json:"lengthBeats"`
	TrackWidth     float64  `json:"trackWidth"`
	DeltaPixels    float64  `json:"deltaPixels"`
	BPM            float64  `json:"bpm"`
	Delta          float64  `json:"delta"`
	DeltaMillis    float64  `json:"deltaMillis"`
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Tag            string   `json:"tag"`
	Memo           string   `json:"memo"`
}

// PlayerCommand asks the client's player to act.
type PlayerCommand struct {
	Action         string  `json:"action"`
	PositionMillis float64 `json:"positionMillis,omitempty"`
	Rate           float64 `json:"rate,omitempty"`
}

// Notice is a user-facing message for a refused operation.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errUnknownEvent = errors.New("unknown event type")

// outcome tells the socket what to send back after an event.
type outcome struct {
	sendState bool
	notice    *Notice
	pong      bool
}

// dispatch applies one client event. It runs on the session goroutine.
func dispatch(s *session.Session, msg *WSMessage, nowMillis float64) (outcome, error) {
	var d eventData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return outcome{}, fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
	}
	changed := outcome{sendState: true}

	switch msg.Type {
	case MsgObservation:
		var pos float64
		if d.PositionMillis != nil {
			pos = *d.PositionMillis
		}
		seeked, moved := s.Observe(playback.Observation{PositionMillis: pos, DurationMillis: d.DurationMillis, IsPlaying: d.IsPlaying})
		return outcome{sendState: seeked || moved}, nil
	case MsgTap:
		at := nowMillis
		if d.AtMillis != nil {
			at = *d.AtMillis
		}
		s.Tap(at)
	case MsgTapReset:
		s.ResetTaps()
	case MsgTapApply:
		if !s.ApplyTaps(d.LengthBeats) {
			return outcome{notice: &Notice{Code: "no_estimate", Message: "Tap at least twice before applying"}}, nil
		}
	case MsgLayout:
		s.SetTrackWidth(d.TrackWidth)
	case MsgDragStart:
		s.DragStart()
	case MsgDragMove:
		s.DragMove(d.DeltaPixels)
	case MsgDragEnd:
		s.DragEnd()
	case MsgDragCancel:
		s.DragCancel()
	case MsgSetBPM:
		s.SetBPM(d.BPM)
	case MsgAdjustBPM:
		s.AdjustBPM(d.Delta)
	case MsgRephase:
		s.Rephase()
	case MsgSetLength:
		s.SetLengthBeats(d.LengthBeats)
	case MsgToggleLoop:
		s.ToggleLoop()
	case MsgTogglePlay:
		s.TogglePlay()
	case MsgSeekRelative:
		s.SeekRelative(d.DeltaMillis)
	case MsgSeek:
		if d.PositionMillis == nil {
			return outcome{}, fmt.Errorf("seek needs positionMillis")
		}
		s.SeekTo(*d.PositionMillis)
	case MsgCycleRate:
		s.CycleRate()
	case MsgToggleMirror:
		s.ToggleMirror()
	case MsgControlsTap:
		s.ControlsTap()
	case MsgBookmarkAdd:
		if _, err := s.CreateBookmark(); err != nil {
			return outcome{notice: bookmarkNotice(err)}, nil
		}
	case MsgBookmarkUse:
		if err := s.ApplyBookmark(d.ID); err != nil {
			return outcome{notice: &Notice{Code: "not_found", Message: err.Error()}}, nil
		}
	case MsgBookmarkDel:
		s.RemoveBookmark(d.ID)
	case MsgSetTitle:
		s.SetTitle(d.Title)
	case MsgAddTag:
		s.AddTag(d.Tag)
	case MsgRemoveTag:
		s.RemoveTag(d.Tag)
	case MsgSetMemo:
		s.SetMemo(d.Memo)
	case MsgPing:
		return outcome{pong: true}, nil
	default:
		return outcome{}, fmt.Errorf("%w: %q", errUnknownEvent, msg.Type)
	}
	return changed, nil
}

func bookmarkNotice(err error) *Notice {
	var pe *bookmark.PreconditionError
	switch {
	case errors.Is(err, bookmark.ErrDurationUnknown):
		return &Notice{Code: "duration_unknown", Message: "Wait for the video to load before saving a loop"}
	case errors.As(err, &pe):
		return &Notice{Code: "window_exceeds_duration", Message: fmt.Sprintf("Loop ends at %.0f ms, after the video ends at %.0f ms", pe.EndMillis, pe.DurationMillis)}
	default:
		return &Notice{Code: "bookmark_failed", Message: err.Error()}
	}
}
