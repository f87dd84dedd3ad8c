// Package vision analyzes camera frames with a multimodal model.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/teslashibe/go-soundscape/pkg/scene"
)

// DefaultModel is the Gemini model used for scene analysis.
const DefaultModel = "gemini-2.5-flash"

// ScenePrompt instructs the model to return a scene description.
const ScenePrompt = `You are a scene safety parser for a blind pedestrian. Return ONLY valid JSON with these keys:
crosswalk_present (boolean), alignment ("center" | "veer_left" | "veer_right" | "unknown"),
curb_ahead (boolean), obstacle_close (boolean),
pedestrian_signal ("walk" | "dont_walk" | "countdown" | "none"),
confidence (number 0-1), narration (one or two plain sentences describing the scene).

Guidelines:
- alignment: where the crosswalk center is relative to the camera center; "unknown" if unclear.
- curb_ahead: true only if a curb or step edge is likely within about 2 meters.
- obstacle_close: true only if a person or object is in the walking path within about 1 meter.
- pedestrian_signal: the state of a visible pedestrian signal facing the camera, else "none".
- Be conservative. If uncertain, prefer false and "unknown".
- No extra keys. No prose outside the JSON.`

// sceneSchema constrains the model output to the Description wire form.
var sceneSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"crosswalk_present": {Type: genai.TypeBoolean},
		"alignment":         {Type: genai.TypeString, Enum: []string{"center", "veer_left", "veer_right", "unknown"}},
		"curb_ahead":        {Type: genai.TypeBoolean},
		"obstacle_close":    {Type: genai.TypeBoolean},
		"pedestrian_signal": {Type: genai.TypeString, Enum: []string{"walk", "dont_walk", "countdown", "none"}},
		"confidence":        {Type: genai.TypeNumber},
		"narration":         {Type: genai.TypeString},
	},
	Required: []string{"crosswalk_present", "alignment", "curb_ahead", "obstacle_close", "pedestrian_signal", "confidence"},
}

// Config holds analyzer configuration.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures a GeminiAnalyzer.
type Option func(*Config)

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		Model:   DefaultModel,
		Timeout: 15 * time.Second,
		Logger:  slog.Default(),
	}
}

// WithAPIKey sets the Gemini API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTimeout sets the per-frame timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// GeminiAnalyzer implements scene.Analyzer with Gemini.
type GeminiAnalyzer struct {
	cfg    Config
	client *genai.Client
	gen    *genai.GenerateContentConfig
}

var _ scene.Analyzer = (*GeminiAnalyzer)(nil)

// NewGemini creates an analyzer. An API key is required.
func NewGemini(ctx context.Context, opts ...Option) (*GeminiAnalyzer, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY not set", scene.ErrVisionUnavailable)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("vision: create client: %w", err)
	}

	return &GeminiAnalyzer{
		cfg:    cfg,
		client: client,
		gen: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   sceneSchema,
			Temperature:      genai.Ptr[float32](0.2),
		},
	}, nil
}

// Analyze sends the frame to Gemini and parses the reply.
// Any failure wraps scene.ErrVisionUnavailable; malformed replies also
// wrap scene.ErrMalformed.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, jpeg []byte) (*scene.Description, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ScenePrompt),
			genai.NewPartFromBytes(jpeg, "image/jpeg"),
		}, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, g.gen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scene.ErrVisionUnavailable, err)
	}

	desc, err := scene.Parse([]byte(resp.Text()))
	if err != nil {
		g.cfg.Logger.Warn("unparseable scene", "error", err, "raw", truncate(resp.Text(), 200))
		return nil, fmt.Errorf("%w: %w", scene.ErrVisionUnavailable, err)
	}

	g.cfg.Logger.Debug("scene analyzed",
		"latency", time.Since(start),
		"crosswalk", desc.CrosswalkPresent,
		"alignment", desc.Alignment,
		"curb", desc.CurbAhead,
		"obstacle", desc.ObstacleClose,
		"signal", desc.PedestrianSignal,
		"confidence", desc.Confidence,
	)
	return desc, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
