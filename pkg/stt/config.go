package stt

import (
	"log/slog"
	"time"
)

// Defaults for short voice commands.
const (
	DefaultLanguage   = "en-US"
	DefaultModel      = "command_and_search"
	DefaultSampleRate = 16000
	DefaultTimeout    = 15 * time.Second
)

// Config holds transcriber configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey          string
	CredentialsFile string
	Endpoint        string

	Language   string
	Model      string
	SampleRate int

	Timeout time.Duration
	Logger  *slog.Logger
}

// Option configures a transcriber.
type Option func(*Config)

// DefaultConfig returns settings for 16kHz English commands.
func DefaultConfig() Config {
	return Config{
		Language:   DefaultLanguage,
		Model:      DefaultModel,
		SampleRate: DefaultSampleRate,
		Timeout:    DefaultTimeout,
		Logger:     slog.Default(),
	}
}

// WithAPIKey authenticates with a Google API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithCredentialsFile authenticates with a service-account JSON file.
func WithCredentialsFile(path string) Option {
	return func(c *Config) { c.CredentialsFile = path }
}

// WithEndpoint overrides the service endpoint.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithLanguage sets the BCP-47 language code.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithModel sets the recognition model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSampleRate sets the clip sample rate in Hz.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Configured reports whether any credential is set.
func (c *Config) Configured() bool {
	return c.APIKey != "" || c.CredentialsFile != ""
}
