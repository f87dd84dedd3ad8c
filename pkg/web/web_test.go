package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-soundscape/pkg/assistant"
	"github.com/teslashibe/go-soundscape/pkg/camera"
	"github.com/teslashibe/go-soundscape/pkg/capture"
	"github.com/teslashibe/go-soundscape/pkg/settings"
	"github.com/teslashibe/go-soundscape/pkg/speechgate"
	"github.com/teslashibe/go-soundscape/pkg/vision"
)

type frames struct{}

func (frames) Ready() bool { return true }

func (frames) Capture(ctx context.Context) ([]byte, error) {
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

type speaker struct {
	mu   sync.Mutex
	said []string
}

func (s *speaker) Say(text, voice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
}

func newTestServer(t *testing.T) (*Server, *assistant.Session) {
	t.Helper()

	live := settings.NewLive(settings.Defaults(), nil)
	gate := speechgate.New(time.Now)
	spk := &speaker{}

	loop, err := capture.New(capture.Config{
		Frames:   frames{},
		Analyzer: vision.NewMockAnalyzer(0),
		Gate:     gate,
		Speaker:  spk,
		Mode:     live,
	})
	require.NoError(t, err)

	session, err := assistant.New(assistant.Config{
		Loop:     loop,
		Speaker:  spk,
		Settings: live,
		Gate:     gate,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	srv, err := NewServer(Config{
		Session:   session,
		Camera:    camera.NewManager(camera.DefaultConfig()),
		AccessLog: io.Discard,
	})
	require.NoError(t, err)
	return srv, session
}

func doJSON(t *testing.T, srv *Server, method, path, body string, out any) int {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestNewServerRequiresSession(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	srv, session := newTestServer(t)

	var snap map[string]any
	code := doJSON(t, srv, http.MethodGet, "/api/status", "", &snap)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, session.ID(), snap["session"])
	assert.Equal(t, "offline", snap["state"])
	assert.Equal(t, false, snap["active"])
}

func TestActions(t *testing.T) {
	srv, session := newTestServer(t)

	var reply assistant.Reply
	code := doJSON(t, srv, http.MethodPost, "/api/actions/start", "", &reply)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, reply.Active)
	assert.True(t, session.Loop().Active())

	reply = assistant.Reply{}
	code = doJSON(t, srv, http.MethodPost, "/api/actions/describe_scene", "", &reply)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, vision.SampleScene.Narration, reply.Spoken)

	reply = assistant.Reply{}
	code = doJSON(t, srv, http.MethodPost, "/api/actions/stop", "", &reply)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, reply.Active)

	var body map[string]string
	code = doJSON(t, srv, http.MethodPost, "/api/actions/dance", "", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["error"])

	var logs []LogEntry
	doJSON(t, srv, http.MethodGet, "/api/logs", "", &logs)
	require.Len(t, logs, 3)
	assert.Equal(t, "action", logs[0].Type)
	assert.Equal(t, "start", logs[0].Message)
}

func TestActionAfterClose(t *testing.T) {
	srv, session := newTestServer(t)
	require.NoError(t, session.Close())

	code := doJSON(t, srv, http.MethodPost, "/api/actions/start", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestSettings(t *testing.T) {
	srv, session := newTestServer(t)

	var got map[string]any
	code := doJSON(t, srv, http.MethodPut, "/api/settings", `{"safe_mode":true,"voice_id":"adam"}`, &got)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, got["safe_mode"])
	assert.Equal(t, "adam", got["voice_id"])

	mode := session.Settings().Mode()
	assert.True(t, mode.SafeMode)
	assert.Equal(t, settings.Defaults().CaptureInterval, mode.CaptureInterval, "unset fields are kept")

	code = doJSON(t, srv, http.MethodPut, "/api/settings", `{"safe_mode":`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = doJSON(t, srv, http.MethodDelete, "/api/settings", "", &got)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, settings.Defaults(), session.Settings().Mode())
}

func TestCamera(t *testing.T) {
	srv, _ := newTestServer(t)

	var cfg camera.Config
	code := doJSON(t, srv, http.MethodGet, "/api/camera", "", &cfg)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, camera.DefaultConfig(), cfg)

	code = doJSON(t, srv, http.MethodPut, "/api/camera", `{"preset":"low"}`, &cfg)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, camera.LowBandwidthConfig().Width, cfg.Width)
}

func TestWebsocketRejectsPlainRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	code := doJSON(t, srv, http.MethodGet, "/ws/status", "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestStatusWebsocket(t *testing.T) {
	srv, session := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	}()

	url := "ws://" + ln.Addr().String() + "/ws/status"
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "status", env.Type)

	var snap assistant.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, session.ID(), snap.Session)
}
