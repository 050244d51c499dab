package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pictophone/pictophone/internal/config"
	"github.com/pictophone/pictophone/internal/images"
	"github.com/pictophone/pictophone/internal/models"
	"google.golang.org/api/option"
)

// Describer is a Gemini-backed describer. It uses its own GEMINI_API_KEY
// credential; the bearer credential passed per call is for the image API and
// is ignored here.
type Describer struct {
	cfg     *config.Config
	fetcher *images.Fetcher
}

// New returns a new Gemini describer
func New(cfg *config.Config) *Describer {
	return &Describer{
		cfg:     cfg,
		fetcher: images.NewFetcher(),
	}
}

// DescribeImage describes the referenced image using Gemini
func (d *Describer) DescribeImage(ctx context.Context, ref models.ImageRef, _ string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	// Gemini takes image bytes, not URLs, so resolve the reference first.
	data, err := d.fetcher.Fetch(ref)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image for describing: %w", err)
	}
	data, format, err := images.EnsureEmbeddable(data)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image for describing: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetMaxOutputTokens(int32(d.cfg.MaxDescriptionTokens))

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, data),
		genai.Text(d.cfg.DescribeInstruction),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return strings.TrimSpace(string(txt)), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
