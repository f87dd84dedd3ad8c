package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/teslashibe/go-soundscape/pkg/capture"
)

// ErrNoFrames is returned when a FileSource path holds no JPEG files.
var ErrNoFrames = errors.New("camera: no JPEG frames found")

// FileSource replays JPEG files from disk in name order, looping.
// It stands in for a camera in demos and tests.
type FileSource struct {
	mu     sync.Mutex
	frames []string
	next   int
}

var _ capture.FrameSource = (*FileSource)(nil)

// NewFileSource reads a single JPEG file or every *.jpg and *.jpeg in a
// directory.
func NewFileSource(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	if !info.IsDir() {
		return &FileSource{frames: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	var frames []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".jpg" || ext == ".jpeg") {
			frames = append(frames, filepath.Join(path, e.Name()))
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, path)
	}
	sort.Strings(frames)
	return &FileSource{frames: frames}, nil
}

// Ready reports whether any frames are available.
func (f *FileSource) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames) > 0
}

// Capture returns the next frame.
func (f *FileSource) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if len(f.frames) == 0 {
		f.mu.Unlock()
		return nil, capture.ErrCameraNotReady
	}
	path := f.frames[f.next%len(f.frames)]
	f.next++
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("camera: read frame: %w", err)
	}
	if len(data) == 0 {
		return nil, capture.ErrEmptyFrame
	}
	return data, nil
}

// Len returns the number of frames in the rotation.
func (f *FileSource) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}
