// Package gateway wraps the external model providers behind the narrow
// interfaces the service layer consumes: Gemini for text and the
// Hugging Face inference router for images.
//
// This file implements the Gemini client. Responses are reduced to plain
// text; the streaming variant forwards each chunk to the caller as it
// arrives while accumulating the full output for persistence.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrNoOutput is returned when the model responds without any text parts,
// typically because the prompt tripped a safety filter.
var ErrNoOutput = errors.New("model returned no text")

// GeminiClient generates text via the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient dials the Gemini API. The caller owns Close.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate returns the complete output for a prompt.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	out := responseText(resp)
	if out == "" {
		return "", ErrNoOutput
	}
	return out, nil
}

// Stream generates output for a prompt, invoking emit for each chunk in
// order, and returns the concatenated output. A non-nil error from emit
// aborts the stream.
func (g *GeminiClient) Stream(ctx context.Context, prompt string, emit func(chunk string) error) (string, error) {
	iter := g.client.GenerativeModel(g.model).GenerateContentStream(ctx, genai.Text(prompt))

	var b strings.Builder
	for {
		resp, err := iter.Next()
		if err == iterator.Done || err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("gemini stream: %w", err)
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return "", err
		}
		b.WriteString(chunk)
	}
	if b.Len() == 0 {
		return "", ErrNoOutput
	}
	return b.String(), nil
}

// Close releases the underlying gRPC connection.
func (g *GeminiClient) Close() error { return g.client.Close() }

// responseText flattens the text parts of all candidates.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}
