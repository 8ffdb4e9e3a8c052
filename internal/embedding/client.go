// Package embedding talks to the external image embedding service.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Embedder turns an image into a fixed-dimension vector
type Embedder interface {
	Name() string
	EmbedImage(ctx context.Context, filename string, image []byte) ([]float32, error)
}

// Config configures the HTTP embedding client
type Config struct {
	URL        string
	Dimensions int // 0 disables the dimension check
	Timeout    time.Duration
}

// Client posts images as multipart form data under the "items" field
// and expects a JSON array of vectors in response.
type Client struct {
	url        string
	dimensions int
	client     *http.Client
}

// NewClient creates a new embedding client
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("embedding service URL not provided")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the identifier used in logs
func (c *Client) Name() string { return "clip-http" }

// EmbedImage returns the embedding of a single image
func (c *Client) EmbedImage(ctx context.Context, filename string, image []byte) ([]float32, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("items", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("writing image to form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding service: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding service returned %s", resp.Status)
	}

	var vectors [][]float32
	if err := json.Unmarshal(payload, &vectors); err != nil {
		return nil, fmt.Errorf("unexpected embedding response shape: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	if c.dimensions > 0 && len(vectors[0]) != c.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vectors[0]), c.dimensions)
	}
	return vectors[0], nil
}
