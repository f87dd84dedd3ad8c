package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-soundscape/pkg/scene"
)

func geminiServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultModel+":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "image/jpeg")
		assert.Contains(t, string(body), "application/json")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background())
	assert.ErrorIs(t, err, scene.ErrVisionUnavailable)
}

func TestGeminiAnalyze(t *testing.T) {
	srv := geminiServer(t, http.StatusOK,
		`{"crosswalk_present":true,"alignment":"veer_right","curb_ahead":false,"obstacle_close":false,"pedestrian_signal":"countdown","confidence":0.7,"narration":"Crosswalk to the right."}`)

	g, err := NewGemini(context.Background(), WithAPIKey("test-key"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	d, err := g.Analyze(context.Background(), []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, scene.AlignVeerRight, d.Alignment)
	assert.Equal(t, scene.SignalCountdown, d.PedestrianSignal)
	assert.Equal(t, "Crosswalk to the right.", d.Narration)
}

func TestGeminiMalformedFailsClosed(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"crosswalk_present":true,"alignment":"center"}`)

	g, err := NewGemini(context.Background(), WithAPIKey("test-key"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	d, err := g.Analyze(context.Background(), []byte{0xff, 0xd8})
	assert.Nil(t, d)
	assert.ErrorIs(t, err, scene.ErrVisionUnavailable)
	assert.ErrorIs(t, err, scene.ErrMalformed)
}

func TestGeminiServerError(t *testing.T) {
	srv := geminiServer(t, http.StatusServiceUnavailable, "")

	g, err := NewGemini(context.Background(), WithAPIKey("test-key"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Analyze(context.Background(), []byte{0xff, 0xd8})
	assert.ErrorIs(t, err, scene.ErrVisionUnavailable)
}

func TestMockAnalyzerCycles(t *testing.T) {
	a := scene.Description{CurbAhead: true, Alignment: scene.AlignUnknown, PedestrianSignal: scene.SignalNone}
	b := scene.Description{ObstacleClose: true, Alignment: scene.AlignUnknown, PedestrianSignal: scene.SignalNone}
	m := NewMockAnalyzer(0, a, b)

	for i, want := range []scene.Description{a, b, a} {
		got, err := m.Analyze(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, want, *got, "call %d", i)
	}
	assert.Equal(t, 3, m.Calls())

	m.SetError(scene.ErrVisionUnavailable)
	_, err := m.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, scene.ErrVisionUnavailable)
}

func TestPlaceholderAnalyzer(t *testing.T) {
	assert.False(t, scene.IsPlaceholder(NewMockAnalyzer(0)), "scripted mocks stand in for a working service")

	p := NewPlaceholderAnalyzer()
	assert.True(t, scene.IsPlaceholder(p))

	got, err := p.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SampleScene, *got)
}
