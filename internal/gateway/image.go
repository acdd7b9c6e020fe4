// Package gateway – Hugging Face image client.
//
// The inference router returns raw image bytes for text-to-image models, so
// the client is a thin JSON-in, bytes-out HTTP wrapper.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHFBaseURL = "https://router.huggingface.co/hf-inference/models"
	defaultHFModel   = "black-forest-labs/FLUX.1-schnell"

	// maxImageBytes bounds how much of a response we will buffer.
	maxImageBytes = 32 << 20
)

// HFImageClient generates images via the Hugging Face inference router.
type HFImageClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewHFImageClient constructs a client. Empty baseURL and model fall back to
// the FLUX.1-schnell defaults; a non-positive timeout falls back to 2m,
// which diffusion cold starts routinely need.
func NewHFImageClient(apiKey, baseURL, model string, timeout time.Duration) *HFImageClient {
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	if model == "" {
		model = defaultHFModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HFImageClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Generate runs the model and returns the image bytes and their content
// type.
func (c *HFImageClient) Generate(ctx context.Context, prompt string, width, height int) ([]byte, string, error) {
	payload, err := json.Marshal(hfRequest{
		Inputs:     prompt,
		Parameters: hfParameters{Width: width, Height: height},
	})
	if err != nil {
		return nil, "", err
	}

	url := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("huggingface response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("huggingface status %d: %s", resp.StatusCode, errorDetail(body))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/json") {
		contentType = "image/png"
	}
	return body, contentType, nil
}

// errorDetail extracts the router's error message when the body is JSON,
// otherwise returns a clipped raw body.
func errorDetail(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
