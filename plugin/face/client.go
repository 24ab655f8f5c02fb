package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Config holds the configuration for the remote extractor sidecar.
type Config struct {
	// BaseURL is the sidecar base URL (e.g., http://localhost:9900).
	BaseURL string
	// Timeout is the HTTP timeout per extraction request.
	Timeout time.Duration
	// RequestsPerSecond limits how fast the sidecar is called. Zero
	// disables limiting.
	RequestsPerSecond float64
	// Dimensions is the expected embedding dimensionality.
	Dimensions int
}

// DefaultConfig returns the default extractor client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           30 * time.Second,
		RequestsPerSecond: 5,
		Dimensions:        EmbeddingDim,
	}
}

// Client calls a face-embedding sidecar over HTTP. The sidecar runs the
// actual detection model; this client only maps its responses onto the
// extractor contract.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an extractor client for the given sidecar.
func NewClient(config *Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Dimensions <= 0 {
		config.Dimensions = EmbeddingDim
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
	}
}

func (c *Client) Dimensions() int {
	return c.config.Dimensions
}

// embedResponse is the sidecar's wire format.
type embedResponse struct {
	// Faces is how many faces the detector found.
	Faces int `json:"faces"`
	// Embedding is present when exactly one face was found.
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Extract sends the image to the sidecar and maps the detector outcome
// onto the typed extraction errors.
func (c *Client) Extract(ctx context.Context, image []byte) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/embed", c.config.BaseURL), bytes.NewReader(image))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build extractor request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "extractor request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read extractor response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("extractor returned status %d: %s", resp.StatusCode, body)
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode extractor response")
	}

	switch {
	case parsed.Faces == 0:
		return nil, ErrNoFaceDetected
	case parsed.Faces > 1:
		return nil, ErrAmbiguousFace
	}
	if parsed.Error != "" {
		return nil, errors.Errorf("extractor error: %s", parsed.Error)
	}
	if len(parsed.Embedding) != c.config.Dimensions {
		return nil, errors.Errorf("extractor returned %d dimensions, want %d", len(parsed.Embedding), c.config.Dimensions)
	}
	return parsed.Embedding, nil
}
