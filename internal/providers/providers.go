package providers

import (
	"context"

	"github.com/pictophone/pictophone/internal/models"
)

// ImageGenerator generates a single image for a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, credential string) (models.ImageRef, error)
}

// Describer describes a generated image in child-like language.
type Describer interface {
	DescribeImage(ctx context.Context, ref models.ImageRef, credential string) (string, error)
}
