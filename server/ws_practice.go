package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"DanceDeck/core/session"
	"DanceDeck/repository"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// practiceClient 是一个练习会话的 WebSocket 连接
type practiceClient struct {
	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger
}

// enqueue never blocks the session goroutine; a client too slow to drain
// its buffer loses frames.
func (c *practiceClient) enqueue(msgType MessageType, data interface{}) {
	msg := WSMessage{Type: msgType, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			c.log.Error("marshal frame failed", zap.String("type", string(msgType)), zap.Error(err))
			return
		}
		msg.Data = raw
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Warn("send buffer full, dropping frame", zap.String("type", string(msgType)))
	}
}

// remotePlayer forwards player commands to the client.
type remotePlayer struct{ c *practiceClient }

func (p remotePlayer) Seek(ms float64) {
	p.c.enqueue(MsgCommand, PlayerCommand{Action: "seek", PositionMillis: ms})
}
func (p remotePlayer) Play()  { p.c.enqueue(MsgCommand, PlayerCommand{Action: "play"}) }
func (p remotePlayer) Pause() { p.c.enqueue(MsgCommand, PlayerCommand{Action: "pause"}) }
func (p remotePlayer) SetRate(rate float64) {
	p.c.enqueue(MsgCommand, PlayerCommand{Action: "rate", Rate: rate})
}

// PracticeSocketHandler GET /ws/practice/{id} opens a live session on one
// video. Only one socket per video is allowed at a time.
func (h *APIHandler) PracticeSocketHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	// 先占用会话再读取记录，避免读取之后的 REST 修改被会话保存覆盖
	if !h.live.acquire(id) {
		writeError(w, http.StatusConflict, "Video is already open in another practice session")
		return
	}
	defer h.live.release(id)

	video, err := h.repo.Load(r.Context(), id)
	if errors.Is(err, repository.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		h.log.Error("[Practice] 读取视频失败", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load video")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket 升级失败", zap.Error(err))
		return
	}

	log := h.log.With(zap.String("video", id))
	client := &practiceClient{conn: conn, send: make(chan []byte, sendBuffer), log: log}
	sess := session.New(video, session.Options{
		Player:    remotePlayer{client},
		Save:      h.repo.Save,
		SaveDelay: h.cfg.SaveDebounce,
		Clock:     h.clock,
		Logger:    log,
		OnControlsHidden: func(s *session.Session) {
			client.enqueue(MsgState, s.View())
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sess.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		client.writePump(ctx)
	}()

	log.Info("practice session opened")
	sess.Post(func(s *session.Session) { client.enqueue(MsgState, s.View()) })
	client.readPump(func(msg *WSMessage) {
		sess.Post(func(s *session.Session) {
			h.handleEvent(s, client, msg)
		})
	})

	cancel()
	wg.Wait()
	log.Info("practice session closed")
}

func (h *APIHandler) handleEvent(s *session.Session, c *practiceClient, msg *WSMessage) {
	out, err := dispatch(s, msg, float64(h.clock.Now().UnixMilli()))
	if err != nil {
		c.log.Warn("rejected practice event", zap.String("type", string(msg.Type)), zap.Error(err))
		c.enqueue(MsgError, map[string]string{"message": err.Error()})
		return
	}
	if out.pong {
		c.enqueue(MsgPong, nil)
	}
	if out.notice != nil {
		c.enqueue(MsgNotice, out.notice)
	}
	if out.sendState {
		c.enqueue(MsgState, s.View())
	}
}

// readPump 读取消息循环，连接断开时返回
func (c *practiceClient) readPump(handler func(msg *WSMessage)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Warn("invalid message format", zap.Error(err))
			c.enqueue(MsgError, map[string]string{"message": "invalid message format"})
			continue
		}
		handler(&msg)
	}
}

// writePump 写入消息循环
func (c *practiceClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
