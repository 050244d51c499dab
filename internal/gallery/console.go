package gallery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pictophone/pictophone/internal/engine"
	"github.com/pictophone/pictophone/internal/images"
	"github.com/pictophone/pictophone/internal/models"
)

// Console is the CLI presentation layer: it keeps records in a Store, logs
// progress, and writes each image to the output directory as it arrives.
type Console struct {
	*Store
	OutputDir string
	fetcher   *images.Fetcher
}

// NewConsole creates a console view writing images under outputDir. An empty
// outputDir disables image files.
func NewConsole(outputDir string) *Console {
	return &Console{
		Store:     NewStore(),
		OutputDir: outputDir,
		fetcher:   images.NewFetcher(),
	}
}

// SetImage records the image and saves it to disk
func (c *Console) SetImage(h engine.RecordHandle, ref models.ImageRef) {
	c.Store.SetImage(h, ref)

	if c.OutputDir == "" {
		return
	}

	round := c.IndexOf(h)
	path, err := c.saveImage(round, ref)
	if err != nil {
		slog.Warn("Failed to save image", "round", round, "error", err)
		return
	}
	slog.Info("Saved image", "round", round, "path", path)
}

// SetDescription records and prints the description
func (c *Console) SetDescription(h engine.RecordHandle, text string) {
	c.Store.SetDescription(h, text)
	fmt.Printf("\nRound %d description:\n%s\n\n", c.IndexOf(h), text)
}

// UpdateProgress records and logs the progress message
func (c *Console) UpdateProgress(current, total int, message string) {
	c.Store.UpdateProgress(current, total, message)
	slog.Info(message, "progress", fmt.Sprintf("%d/%d", current, total))
}

// Elapsed records elapsed time; logged at debug to keep the output quiet
func (c *Console) Elapsed(d time.Duration) {
	c.Store.Elapsed(d)
	slog.Debug("Elapsed", "seconds", int(d.Seconds()))
}

// ShowError records and logs the error banner
func (c *Console) ShowError(message string) {
	c.Store.ShowError(message)
	slog.Error(message)
}

// saveImage fetches the image bytes and writes them under the output dir
func (c *Console) saveImage(round int, ref models.ImageRef) (string, error) {
	data, err := c.fetcher.Fetch(ref)
	if err != nil {
		return "", err
	}
	data, format, err := images.EnsureEmbeddable(data)
	if err != nil {
		return "", err
	}

	ext := "png"
	if format == "jpeg" {
		ext = "jpg"
	}

	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(c.OutputDir, fmt.Sprintf("round_%02d.%s", round, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return path, nil
}
