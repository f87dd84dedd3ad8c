// Package webcam captures JPEG frames from a local camera with OpenCV.
package webcam

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-soundscape/pkg/camera"
	"github.com/teslashibe/go-soundscape/pkg/capture"
)

// Camera is an OpenCV video capture device.
type Camera struct {
	mu     sync.Mutex // protects dev, img and cfg
	dev    *gocv.VideoCapture
	img    gocv.Mat
	cfg    camera.Config
	logger *slog.Logger
}

var _ capture.FrameSource = (*Camera)(nil)

// Open opens the device named by cfg.
func Open(cfg camera.Config, logger *slog.Logger) (*Camera, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("webcam: invalid config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	dev, err := gocv.OpenVideoCapture(cfg.DeviceID())
	if err != nil {
		return nil, fmt.Errorf("webcam: open %s: %w", cfg.Device, err)
	}

	c := &Camera{
		dev:    dev,
		img:    gocv.NewMat(),
		logger: logger.With("component", "webcam"),
	}
	c.apply(cfg)
	c.logger.Info("camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height)
	return c, nil
}

// Apply changes capture properties. It matches camera.Manager.OnConfigChange.
func (c *Camera) Apply(cfg camera.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		return capture.ErrCameraNotReady
	}
	if cfg.Device != c.cfg.Device {
		return fmt.Errorf("webcam: changing device requires reopening")
	}
	c.apply(cfg)
	return nil
}

func (c *Camera) apply(cfg camera.Config) {
	c.dev.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	c.dev.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	c.dev.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.Brightness != 0 {
		// OpenCV brightness is 0..1 with 0.5 neutral on most V4L2 drivers.
		c.dev.Set(gocv.VideoCaptureBrightness, 0.5+cfg.Brightness/2)
	}
	c.cfg = cfg
}

// Ready reports whether the device is open.
func (c *Camera) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev != nil && c.dev.IsOpened()
}

// Capture grabs a frame and encodes it as JPEG.
func (c *Camera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil || !c.dev.IsOpened() {
		return nil, capture.ErrCameraNotReady
	}
	if ok := c.dev.Read(&c.img); !ok || c.img.Empty() {
		return nil, capture.ErrEmptyFrame
	}

	frame := c.img
	if flag, ok := rotation(c.cfg.Rotate); ok {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(c.img, &rotated, flag)
		frame = rotated
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{int(gocv.IMWriteJpegQuality), c.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("webcam: encode: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

func rotation(deg int) (gocv.RotateFlag, bool) {
	switch deg {
	case 90:
		return gocv.Rotate90Clockwise, true
	case 180:
		return gocv.Rotate180Clockwise, true
	case 270:
		return gocv.Rotate90CounterClockwise, true
	}
	return 0, false
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	c.img.Close()
	c.dev = nil
	return err
}
