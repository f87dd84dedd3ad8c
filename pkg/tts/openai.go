package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-soundscape/internal/httpc"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	providerOpenAI = "openai"

	// openAISampleRate is the rate of the "pcm" response format.
	openAISampleRate = 24000
)

// OpenAI voices.
const (
	VoiceAlloy   = "alloy"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// ModelTTS1 is the low-latency OpenAI speech model.
const ModelTTS1 = "tts-1"

// OpenAI implements Provider with the OpenAI speech endpoint.
// It is used as a secondary provider in a Chain.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI provider. Voice names that OpenAI does not
// know, such as ElevenLabs presets, are replaced by the default voice.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceNova
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.Or(cfg.HTTPClient, cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.openai"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (o *OpenAI) voice(name string) string {
	switch strings.ToLower(name) {
	case VoiceAlloy, VoiceNova, VoiceShimmer, "echo", "fable", "onyx":
		return strings.ToLower(name)
	}
	return o.config.VoiceID
}

// Synthesize converts text to 24kHz PCM.
func (o *OpenAI) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	body, err := json.Marshal(map[string]string{
		"model":           o.config.ModelID,
		"voice":           o.voice(voice),
		"input":           text,
		"response_format": "pcm",
	})
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerOpenAI, ErrEmptyAudio)
	}
	latency := time.Since(start).Milliseconds()

	o.logger.Debug("synthesized audio", "chars", len(text), "bytes", len(audio), "latency_ms", latency)

	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Encoding: EncodingPCM24, SampleRate: openAISampleRate, Channels: 1},
		Duration:  pcmDuration(len(audio), openAISampleRate),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health lists models to check the key.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.parseError(resp)
	}
	return nil
}

// Name returns "openai".
func (o *OpenAI) Name() string { return providerOpenAI }

// Close releases idle connections.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

func (o *OpenAI) parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body), Provider: providerOpenAI}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Code = errResp.Error.Code
	}
	return apiErr
}
