package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pictophone/pictophone/internal/config"
	"github.com/pictophone/pictophone/internal/models"
)

// RequestError is a non-success response from the API. Message is the
// human-readable message extracted from the error envelope, or a generic
// fallback when the body carries none.
type RequestError struct {
	Op         string // "generate image" or "describe image"
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client issues image-generation and vision-description requests against an
// OpenAI-compatible API. Both operations are one-shot: no retry, no backoff.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New returns a new API client
func New(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// errorEnvelope is the JSON error body returned on non-2xx responses
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage generates a single image for the given prompt
func (c *Client) GenerateImage(ctx context.Context, prompt, credential string) (models.ImageRef, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  c.cfg.ImageModel,
		"prompt": prompt,
		"n":      1,
		"size":   c.cfg.ImageSize,
	})
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Data []models.ImageRef `json:"data"`
	}
	if err := c.post(ctx, "/images/generations", credential, requestBody, &response, "generate image", "failed to generate image"); err != nil {
		return models.ImageRef{}, err
	}

	if len(response.Data) == 0 {
		return models.ImageRef{}, fmt.Errorf("no image returned from API")
	}

	return response.Data[0], nil
}

// DescribeImage asks the vision model to describe the referenced image using
// the configured instruction, capped at the configured output token count.
func (c *Client) DescribeImage(ctx context.Context, ref models.ImageRef, credential string) (string, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model": c.cfg.VisionModel,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": c.cfg.DescribeInstruction,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": imageURLFor(ref),
						},
					},
				},
			},
		},
		"max_tokens": c.cfg.MaxDescriptionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/chat/completions", credential, requestBody, &response, "describe image", "failed to describe image"); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from API")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// post sends a bearer-authenticated JSON POST and decodes the response into
// out. Non-2xx responses become a *RequestError.
func (c *Client) post(ctx context.Context, path, credential string, body []byte, out interface{}, op, fallback string) error {
	url := strings.TrimSuffix(c.cfg.APIBaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp, fallback),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

// errorMessage extracts the message field from the JSON error envelope,
// falling back to a generic message when parsing yields none.
func errorMessage(resp *http.Response, fallback string) string {
	var envelope errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

// imageURLFor returns the reference in the form the chat endpoint accepts:
// the remote URL as-is, or a data URI for inline base64 payloads.
func imageURLFor(ref models.ImageRef) string {
	if ref.URL != "" {
		return ref.URL
	}
	return "data:image/png;base64," + ref.B64JSON
}
