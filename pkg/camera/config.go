// Package camera configures the frame source that feeds scene analysis.
package camera

import (
	"fmt"
	"strconv"
)

// Config holds camera parameters. These can be changed at runtime
// through a Manager.
type Config struct {
	// Device is a camera index ("0") or a device path or stream URL.
	Device string `json:"device" yaml:"device"`

	Width     int `json:"width" yaml:"width"`
	Height    int `json:"height" yaml:"height"`
	Framerate int `json:"framerate" yaml:"framerate"`

	// Quality is the JPEG quality 1-100 of uploaded frames.
	Quality int `json:"quality" yaml:"quality"`

	// Brightness adjustment, -1.0 to +1.0. Zero leaves the driver default.
	Brightness float64 `json:"brightness" yaml:"brightness"`

	// Rotate is a clockwise rotation in degrees: 0, 90, 180 or 270.
	// Chest or cane mounts are often sideways.
	Rotate int `json:"rotate" yaml:"rotate"`
}

// Frame size limits. Larger frames add upload latency without helping the
// vision model.
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 1920
	MaxHeight = 1080
)

// DefaultConfig returns 640x480 at JPEG quality 80.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     640,
		Height:    480,
		Framerate: 15,
		Quality:   80,
	}
}

// DeviceID returns Device as an int when it is a camera index, or the
// string otherwise.
func (c Config) DeviceID() any {
	if n, err := strconv.Atoi(c.Device); err == nil {
		return n
	}
	return c.Device
}

// Validate returns every out-of-range field, or nil.
func (c *Config) Validate() []string {
	var errs []string

	if c.Device == "" {
		errs = append(errs, "device is required")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > 60 {
		errs = append(errs, "framerate must be between 1 and 60")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}
	if c.Brightness < -1.0 || c.Brightness > 1.0 {
		errs = append(errs, "brightness must be between -1.0 and 1.0")
	}
	switch c.Rotate {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, "rotate must be 0, 90, 180 or 270")
	}

	return errs
}
