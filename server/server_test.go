package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DanceDeck/config"
	"DanceDeck/core/auth"
	"DanceDeck/db"
	"DanceDeck/model"
	"DanceDeck/repository"
	"DanceDeck/storage"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*httptest.Server, repository.VideoRepository) {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	repo := repository.NewSQLiteVideoRepository(conn)
	if cfg == nil {
		cfg = &config.Config{SaveDebounce: 20 * time.Millisecond}
	}
	ts := httptest.NewServer(NewAPIHandler(cfg, repo, opts...).Router())
	t.Cleanup(ts.Close)
	return ts, repo
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestVideoCRUD(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var created model.Video
	status := doJSON(t, http.MethodPost, ts.URL+"/api/videos", model.CreateVideoRequest{
		URI:  "https://youtu.be/x",
		Tags: []string{"#House", "house", " popping "},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if len(created.Tags) != 2 || created.Tags[0] != "House" || created.Tags[1] != "popping" {
		t.Fatalf("tags = %v", created.Tags)
	}
	if created.BPM != 120 || created.LoopLengthBeats != 8 {
		t.Fatalf("defaults = %+v", created)
	}

	if status := doJSON(t, http.MethodPost, ts.URL+"/api/videos", model.CreateVideoRequest{}, nil); status != http.StatusBadRequest {
		t.Fatalf("empty uri status = %d", status)
	}

	title := "Chorus"
	var updated model.Video
	if status := doJSON(t, http.MethodPut, ts.URL+"/api/videos/"+created.ID, model.UpdateVideoRequest{Title: &title}, &updated); status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}
	if updated.Title != "Chorus" || len(updated.Tags) != 2 {
		t.Fatalf("updated = %+v", updated)
	}

	var list []model.Video
	doJSON(t, http.MethodGet, ts.URL+"/api/videos?tags=popping,krump&mode=or", nil, &list)
	if len(list) != 1 {
		t.Fatalf("or search = %d", len(list))
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/videos?tags=popping,krump", nil, &list)
	if len(list) != 0 {
		t.Fatalf("and search = %d", len(list))
	}

	var tags []string
	doJSON(t, http.MethodGet, ts.URL+"/api/tags?q=po&current=house", nil, &tags)
	if len(tags) != 1 || tags[0] != "popping" {
		t.Fatalf("suggest = %v", tags)
	}

	if status := doJSON(t, http.MethodDelete, ts.URL+"/api/videos/"+created.ID, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	if status := doJSON(t, http.MethodGet, ts.URL+"/api/videos/"+created.ID, nil, nil); status != http.StatusNotFound {
		t.Fatalf("get after delete = %d", status)
	}
}

func TestAuth(t *testing.T) {
	hash, err := auth.HashPassword("open sesame")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{AuthPassphraseHash: hash, JWTSecret: "k", SaveDebounce: time.Second}
	ts, _ := newTestServer(t, cfg)

	if status := doJSON(t, http.MethodGet, ts.URL+"/api/videos", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", status)
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/auth/token", TokenRequest{Passphrase: "nope"}, nil); status != http.StatusUnauthorized {
		t.Fatalf("bad passphrase status = %d", status)
	}

	var tok map[string]string
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/auth/token", TokenRequest{Passphrase: "open sesame"}, &tok); status != http.StatusOK {
		t.Fatalf("token status = %d", status)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/videos", nil)
	req.Header.Set("Authorization", "Bearer "+tok["token"])
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("with token status = %d", resp.StatusCode)
	}
}

func TestSnapshotsNotConfigured(t *testing.T) {
	ts, repo := newTestServer(t, nil)
	v := model.NewVideo(model.CreateVideoRequest{URI: "a"}, time.Now())
	if err := repo.Create(context.Background(), v); err != nil {
		t.Fatal(err)
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/videos/"+v.ID+"/snapshots", nil, nil); status != http.StatusNotImplemented {
		t.Fatalf("status = %d", status)
	}
}

type fakeSnapshots struct{ keys []string }

func (f *fakeSnapshots) Backup(ctx context.Context, v *model.Video, at time.Time) (string, error) {
	key := "records/" + v.ID + "/1.json"
	f.keys = append(f.keys, key)
	return key, nil
}

func (f *fakeSnapshots) List(ctx context.Context, videoID string) ([]storage.SnapshotInfo, error) {
	var out []storage.SnapshotInfo
	for _, k := range f.keys {
		out = append(out, storage.SnapshotInfo{Key: k, VideoID: videoID, TakenAt: time.UnixMilli(1), Size: 2048})
	}
	return out, nil
}

func TestSnapshots(t *testing.T) {
	snaps := &fakeSnapshots{}
	ts, repo := newTestServer(t, nil, WithSnapshots(snaps))
	v := model.NewVideo(model.CreateVideoRequest{URI: "a"}, time.Now())
	if err := repo.Create(context.Background(), v); err != nil {
		t.Fatal(err)
	}
	if status := doJSON(t, http.MethodPost, ts.URL+"/api/videos/"+v.ID+"/snapshots", nil, nil); status != http.StatusCreated {
		t.Fatalf("backup status = %d", status)
	}
	var list []snapshotView
	doJSON(t, http.MethodGet, ts.URL+"/api/videos/"+v.ID+"/snapshots", nil, &list)
	if len(list) != 1 || list[0].Size != "2.0 KB" {
		t.Fatalf("list = %+v", list)
	}
}

// ---- practice socket ----

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialPractice(t *testing.T, ts *httptest.Server, id string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/practice/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(typ MessageType, data interface{}) {
	c.t.Helper()
	msg := map[string]interface{}{"type": typ}
	if data != nil {
		msg["data"] = data
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatal(err)
	}
}

// next reads frames until one of type typ arrives.
func (c *wsClient) next(typ MessageType, into interface{}) {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type != typ {
			continue
		}
		if into != nil {
			if err := json.Unmarshal(msg.Data, into); err != nil {
				c.t.Fatal(err)
			}
		}
		return
	}
}

type stateFrame struct {
	BPM             float64 `json:"bpm"`
	LoopStartMillis float64 `json:"loopStartMillis"`
	DurationMillis  float64 `json:"durationMillis"`
	Bookmarks       []struct {
		ID string `json:"id"`
	} `json:"bookmarks"`
	Geometry *struct {
		TrackWidth  float64 `json:"trackWidth"`
		WindowWidth float64 `json:"windowWidth"`
	} `json:"geometry"`
}

func TestPracticeSocket(t *testing.T) {
	ts, repo := newTestServer(t, nil)
	v := model.NewVideo(model.CreateVideoRequest{URI: "a"}, time.Now())
	if err := repo.Create(context.Background(), v); err != nil {
		t.Fatal(err)
	}

	c := dialPractice(t, ts, v.ID)
	var st stateFrame
	c.next(MsgState, &st)
	if st.BPM != 120 || st.Geometry != nil {
		t.Fatalf("initial state = %+v", st)
	}

	c.send(MsgBookmarkAdd, nil)
	var notice Notice
	c.next(MsgNotice, &notice)
	if notice.Code != "duration_unknown" {
		t.Fatalf("notice = %+v", notice)
	}

	c.send(MsgLayout, map[string]float64{"trackWidth": 600})
	c.next(MsgState, nil)
	c.send(MsgObservation, map[string]interface{}{"positionMillis": 0, "durationMillis": 60000, "isPlaying": true})
	c.send(MsgSetBPM, map[string]float64{"bpm": 100})
	c.next(MsgState, &st)
	if st.BPM != 100 || st.Geometry == nil || st.Geometry.TrackWidth != 600 {
		t.Fatalf("state = %+v", st)
	}

	// 8 beats at 100 BPM end at 4800; reporting 4760 must loop back to 0.
	c.send(MsgObservation, map[string]interface{}{"positionMillis": 4760, "durationMillis": 60000, "isPlaying": true})
	var cmd PlayerCommand
	c.next(MsgCommand, &cmd)
	if cmd.Action != "seek" || cmd.PositionMillis != 0 {
		t.Fatalf("command = %+v", cmd)
	}

	c.send(MsgBookmarkAdd, nil)
	c.next(MsgState, &st)
	if len(st.Bookmarks) != 1 {
		t.Fatalf("bookmarks = %+v", st.Bookmarks)
	}

	c.send(MsgPing, nil)
	c.next(MsgPong, nil)

	c.send("bogus", nil)
	c.next(MsgError, nil)

	// The open socket owns the record.
	if status := doJSON(t, http.MethodDelete, ts.URL+"/api/videos/"+v.ID, nil, nil); status != http.StatusConflict {
		t.Fatalf("delete while live = %d", status)
	}
	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/practice/"+v.ID, nil); err == nil {
		t.Fatal("second socket should be refused")
	}

	// Debounced save lands after the quiet period.
	deadline := time.Now().Add(3 * time.Second)
	for {
		got, err := repo.Load(context.Background(), v.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.BPM == 100 && len(got.LoopBookmarks) == 1 && got.DurationMillis == 60000 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("record not saved: %+v", got)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPracticeSocketUnknownVideo(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/practice/missing", nil)
	if err == nil {
		t.Fatal("dial should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestPracticeSocketClaimsSlotBeforeLoading(t *testing.T) {
	conn, err := db.OpenSQLite(db.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	h := NewAPIHandler(&config.Config{SaveDebounce: 20 * time.Millisecond}, repository.NewSQLiteVideoRepository(conn))
	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/practice/missing"

	// a held slot is refused before the store is consulted
	if !h.live.acquire("missing") {
		t.Fatal("acquire failed")
	}
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("held slot: err = %v resp = %+v, want 409", err, resp)
	}
	h.live.release("missing")

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("free slot: err = %v resp = %+v, want 404", err, resp)
	}
	if h.live.active("missing") {
		t.Fatal("slot still held after a failed load")
	}
}
