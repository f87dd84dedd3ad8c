package stt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

// GoogleTranscriber uses Google Cloud Speech-to-Text.
type GoogleTranscriber struct {
	cfg Config
	svc *speech.Service
}

var _ Transcriber = (*GoogleTranscriber)(nil)

// NewGoogle creates a Google transcriber. Without credentials it is
// returned unconfigured and Transcribe fails with ErrUnconfigured.
func NewGoogle(ctx context.Context, opts ...Option) (*GoogleTranscriber, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &GoogleTranscriber{cfg: cfg}
	if !cfg.Configured() {
		return t, nil
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("stt: read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, speech.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("stt: parse credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithTokenSource(creds.TokenSource))
	default:
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := speech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("stt: create service: %w", err)
	}
	t.svc = svc
	return t, nil
}

// Configured implements Transcriber.
func (t *GoogleTranscriber) Configured() bool {
	return t.svc != nil
}

// Transcribe implements Transcriber. It returns the top alternative of the
// first result, or "" when the service heard nothing.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if t.svc == nil {
		return "", ErrUnconfigured
	}
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	req := &speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:          "LINEAR16",
			SampleRateHertz:   int64(t.cfg.SampleRate),
			LanguageCode:      t.cfg.Language,
			Model:             t.cfg.Model,
			AudioChannelCount: 1,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(wav),
		},
	}

	resp, err := t.svc.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &APIError{StatusCode: gerr.Code, Message: gerr.Message}
		}
		return "", fmt.Errorf("%w: %v", ErrFailed, err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		t.cfg.Logger.Debug("no transcription results")
		return "", nil
	}
	transcript := strings.TrimSpace(resp.Results[0].Alternatives[0].Transcript)
	t.cfg.Logger.Debug("transcribed", "transcript", transcript, "confidence", resp.Results[0].Alternatives[0].Confidence)
	return transcript, nil
}
