package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Store loads and saves the assistant mode.
type Store interface {
	Load() (Mode, error)
	Save(Mode) error
	Reset() error
}

// fileData is the on-disk layout. Pointer fields detect missing keys so
// defaults fill only what the file omits.
type fileData struct {
	CaptureIntervalMs *int    `yaml:"capture_interval_ms"`
	SafeMode          *bool   `yaml:"safe_mode"`
	VoiceID           *string `yaml:"voice_id"`
	CueVerbosity      *string `yaml:"cue_verbosity"`
	VoiceMode         *bool   `yaml:"voice_mode"`
}

// FileStore implements Store with a YAML file.
type FileStore struct {
	path     string
	defaults Mode
	mu       sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store at path. The file is created on first Save.
// defaults fill any key the file does not set.
func NewFileStore(path string, defaults Mode) *FileStore {
	return &FileStore{path: path, defaults: defaults.Normalize()}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the mode from disk. A missing file yields the defaults.
func (s *FileStore) Load() (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.defaults, nil
	}
	if err != nil {
		return s.defaults, fmt.Errorf("settings: read %s: %w", s.path, err)
	}

	var fd fileData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return s.defaults, fmt.Errorf("settings: parse %s: %w", s.path, err)
	}

	m := s.defaults
	if fd.CaptureIntervalMs != nil {
		m.CaptureInterval = time.Duration(*fd.CaptureIntervalMs) * time.Millisecond
	}
	if fd.SafeMode != nil {
		m.SafeMode = *fd.SafeMode
	}
	if fd.VoiceID != nil {
		m.VoiceID = *fd.VoiceID
	}
	if fd.CueVerbosity != nil {
		m.CueVerbosity = Verbosity(*fd.CueVerbosity)
	}
	if fd.VoiceMode != nil {
		m.VoiceMode = *fd.VoiceMode
	}
	return m.Normalize(), nil
}

// Save writes the mode to disk atomically.
func (s *FileStore) Save(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m = m.Normalize()
	ms := int(m.CaptureInterval / time.Millisecond)
	verbosity := string(m.CueVerbosity)
	fd := fileData{
		CaptureIntervalMs: &ms,
		SafeMode:          &m.SafeMode,
		VoiceID:           &m.VoiceID,
		CueVerbosity:      &verbosity,
		VoiceMode:         &m.VoiceMode,
	}

	data, err := yaml.Marshal(&fd)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: create directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("settings: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("settings: rename temp file: %w", err)
	}
	return nil
}

// Reset deletes the settings file so the next Load returns defaults.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("settings: reset: %w", err)
	}
	return nil
}

// Live holds the current mode in memory and persists updates through a Store.
// It is safe for concurrent use and is read by every capture cycle.
type Live struct {
	mu    sync.RWMutex
	mode  Mode
	store Store
}

// NewLive creates a Live seeded with m. store may be nil.
func NewLive(m Mode, store Store) *Live {
	return &Live{mode: m.Normalize(), store: store}
}

// Mode returns the current mode.
func (l *Live) Mode() Mode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode
}

// Update replaces the mode and persists it.
// The in-memory mode changes even if persisting fails.
func (l *Live) Update(m Mode) (Mode, error) {
	m = m.Normalize()
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()

	if l.store == nil {
		return m, nil
	}
	return m, l.store.Save(m)
}
