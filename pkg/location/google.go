package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/teslashibe/go-soundscape/internal/httpc"
)

const geocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Config configures the Google geocoder.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures a Google geocoder.
type Option func(*Config)

func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the geocode endpoint.
func WithBaseURL(u string) Option {
	return func(c *Config) { c.BaseURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// DefaultConfig returns the geocoder defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: geocodeURL,
		Timeout: 8 * time.Second,
		Logger:  slog.Default(),
	}
}

// Google reverse geocodes with the Google Geocoding API.
type Google struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

var _ Geocoder = (*Google)(nil)

// NewGoogle creates a geocoder. Without an API key every lookup fails with
// ErrUnconfigured.
func NewGoogle(opts ...Option) *Google {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Google{
		cfg:    cfg,
		client: httpc.Or(cfg.HTTPClient, cfg.Timeout),
		logger: cfg.Logger.With("component", "location.google"),
	}
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
	Types             []string           `json:"types"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// ReverseGeocode looks up intersections and street addresses near pos.
// An intersection in any result wins over a plain street name.
func (g *Google) ReverseGeocode(ctx context.Context, pos Position) (Result, error) {
	if g.cfg.APIKey == "" {
		return Unknown(), ErrUnconfigured
	}

	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(pos.Lat, 'f', 6, 64)+","+strconv.FormatFloat(pos.Lng, 'f', 6, 64))
	q.Set("result_type", "intersection|street_address")
	q.Set("key", g.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Unknown(), fmt.Errorf("location: create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Unknown(), fmt.Errorf("location: geocode: %w", err)
	}
	defer resp.Body.Close()

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Unknown(), &APIError{StatusCode: resp.StatusCode, Status: "INVALID_RESPONSE", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK || body.Status != "OK" || len(body.Results) == 0 {
		return Unknown(), &APIError{StatusCode: resp.StatusCode, Status: body.Status, Message: body.ErrorMessage}
	}

	res, ok := interpret(body.Results)
	if !ok {
		return Unknown(), ErrNotFound
	}
	g.logger.Debug("reverse geocoded", "phrase", res.Phrase)
	return res, nil
}

func interpret(results []geocodeResult) (Result, bool) {
	for _, r := range results {
		if in := intersectionOf(r); in != nil {
			return Result{
				Phrase:       fmt.Sprintf("At %s and %s.", in.Primary, in.Cross),
				Intersection: in,
			}, true
		}
	}
	for _, r := range results {
		if street := streetOf(r); street != "" {
			return Result{Phrase: fmt.Sprintf("You are on %s.", street), Street: street}, true
		}
	}
	return Result{}, false
}

func intersectionOf(r geocodeResult) *Intersection {
	if !hasType(r.Types, "intersection") {
		return nil
	}
	var routes []string
	for _, c := range r.AddressComponents {
		if hasType(c.Types, "route") {
			routes = append(routes, c.LongName)
		}
	}
	if len(routes) < 2 {
		return nil
	}
	return &Intersection{Primary: routes[0], Cross: routes[1]}
}

func streetOf(r geocodeResult) string {
	for _, c := range r.AddressComponents {
		if hasType(c.Types, "route") {
			return c.LongName
		}
	}
	return ""
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
