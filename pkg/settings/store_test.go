package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClamps(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultCaptureInterval},
		{100 * time.Millisecond, MinCaptureInterval},
		{1500 * time.Millisecond, 1500 * time.Millisecond},
		{10 * time.Second, MaxCaptureInterval},
	}
	for _, tt := range tests {
		got := Mode{CaptureInterval: tt.in}.Normalize()
		assert.Equal(t, tt.want, got.CaptureInterval, "input %v", tt.in)
	}

	m := Mode{CueVerbosity: "chatty"}.Normalize()
	assert.Equal(t, VerbosityNormal, m.CueVerbosity)
	assert.Equal(t, DefaultVoiceID, m.VoiceID)
}

func TestFileStoreMissingFileReturnsDefaults(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "none.yaml"), Defaults())
	m, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), m)
}

func TestFileStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s := NewFileStore(path, Defaults())

	want := Mode{
		CaptureInterval: 2 * time.Second,
		SafeMode:        true,
		VoiceID:         "Bella",
		CueVerbosity:    VerbosityBrief,
		VoiceMode:       true,
	}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreDefaultsFillMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safe_mode: true\n"), 0o600))

	s := NewFileStore(path, Defaults())
	m, err := s.Load()
	require.NoError(t, err)
	assert.True(t, m.SafeMode)
	assert.Equal(t, DefaultCaptureInterval, m.CaptureInterval)
	assert.Equal(t, DefaultVoiceID, m.VoiceID)
	assert.Equal(t, VerbosityNormal, m.CueVerbosity)
}

func TestFileStoreClampsStoredInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture_interval_ms: 50\n"), 0o600))

	m, err := NewFileStore(path, Defaults()).Load()
	require.NoError(t, err)
	assert.Equal(t, MinCaptureInterval, m.CaptureInterval)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safe_mode: [unterminated\n"), 0o600))

	m, err := NewFileStore(path, Defaults()).Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), m)
}

func TestFileStoreReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewFileStore(path, Defaults())
	require.NoError(t, s.Save(Mode{SafeMode: true}))
	require.NoError(t, s.Reset())
	require.NoError(t, s.Reset(), "reset of missing file is not an error")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLiveUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewFileStore(path, Defaults())
	l := NewLive(Defaults(), s)

	got, err := l.Update(Mode{CaptureInterval: 5 * time.Second, SafeMode: true})
	require.NoError(t, err)
	assert.Equal(t, MaxCaptureInterval, got.CaptureInterval)
	assert.Equal(t, got, l.Mode())

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, got, loaded)
}

func TestModeJSONUsesMilliseconds(t *testing.T) {
	data, err := Mode{CaptureInterval: 1500 * time.Millisecond, VoiceID: "Rachel"}.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"capture_interval_ms":1500`)

	var m Mode
	require.NoError(t, m.UnmarshalJSON([]byte(`{"capture_interval_ms":900,"safe_mode":true}`)))
	assert.Equal(t, 900*time.Millisecond, m.CaptureInterval)
	assert.True(t, m.SafeMode)
}
