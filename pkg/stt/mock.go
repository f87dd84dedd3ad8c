package stt

import (
	"context"
	"sync"
)

// Mock is a scripted Transcriber for tests.
type Mock struct {
	mu sync.Mutex

	// Transcript is returned when TranscribeFunc is nil.
	Transcript string
	Err        error
	// Unconfigured makes Configured return false.
	Unconfigured bool

	TranscribeFunc func(ctx context.Context, wav []byte) (string, error)

	calls [][]byte
}

var _ Transcriber = (*Mock)(nil)

// Configured implements Transcriber.
func (m *Mock) Configured() bool {
	return !m.Unconfigured
}

// Transcribe implements Transcriber.
func (m *Mock) Transcribe(ctx context.Context, wav []byte) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, wav)
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if m.Unconfigured {
		return "", ErrUnconfigured
	}
	if fn != nil {
		return fn(ctx, wav)
	}
	return m.Transcript, m.Err
}

// Calls returns the clips passed to Transcribe.
func (m *Mock) Calls() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.calls...)
}
