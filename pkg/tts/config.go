package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds provider configuration. Use the WithXxx options to set it.
type Config struct {
	APIKey  string
	BaseURL string

	// VoiceID is the default voice, used when a call names none.
	VoiceID       string
	ModelID       string
	VoiceSettings VoiceSettings
	OutputFormat  Encoding

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the default voice. Preset names such as "Rachel" are
// resolved by the ElevenLabs provider.
func WithVoice(voiceID string) Option {
	return func(c *Config) { c.VoiceID = voiceID }
}

func WithModel(modelID string) Option {
	return func(c *Config) { c.ModelID = modelID }
}

func WithOutputFormat(format Encoding) Option {
	return func(c *Config) { c.OutputFormat = format }
}

func WithVoiceSettings(settings VoiceSettings) Option {
	return func(c *Config) { c.VoiceSettings = settings }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetry sets how many times retryable API errors are retried.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithHTTPClient overrides the shared HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// DefaultConfig returns the configuration used for spoken cues.
func DefaultConfig() *Config {
	return &Config{
		VoiceID:       DefaultVoice,
		ModelID:       ModelTurboV2_5,
		OutputFormat:  EncodingPCM16,
		VoiceSettings: DefaultVoiceSettings(),
		Timeout:       10 * time.Second,
		MaxRetries:    2,
		RetryDelay:    100 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// Apply applies opts in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that an API key and a default voice are present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}
