package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	// Register decoders for the formats the APIs are known to return.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/pictophone/pictophone/internal/models"
)

// Fetcher resolves image references into raw bytes. Generated image URLs are
// short-lived, so callers re-fetch at the point of use instead of assuming a
// cached copy persists.
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch returns the raw bytes for an image reference: inline base64 payloads
// are decoded locally, URLs (including data: URIs) are fetched over HTTP.
func (f *Fetcher) Fetch(ref models.ImageRef) ([]byte, error) {
	if ref.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(ref.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode inline image: %w", err)
		}
		return data, nil
	}

	if strings.HasPrefix(ref.URL, "data:") {
		return decodeDataURI(ref.URL)
	}

	if ref.URL == "" {
		return nil, fmt.Errorf("image reference is empty")
	}

	resp, err := f.HTTPClient.Get(ref.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// decodeDataURI decodes a base64 data: URI into raw bytes
func decodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	if !strings.Contains(uri[:idx], ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding")
	}
	data, err := base64.StdEncoding.DecodeString(uri[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}

// EnsureEmbeddable converts image bytes into a form a PDF can embed. Plain
// PNG and JPEG pass through untouched; anything else that the stdlib can
// decode, including interlaced PNGs, is re-encoded to plain PNG. Returns the
// bytes and the resulting format ("png" or "jpeg").
func EnsureEmbeddable(data []byte) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, "", fmt.Errorf("image has no dimensions")
	}

	switch {
	case format == "jpeg":
		return data, format, nil
	case format == "png" && !pngInterlaced(data):
		return data, format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to re-encode image as PNG: %w", err)
	}

	return buf.Bytes(), "png", nil
}

// pngInterlaced reports whether a PNG uses Adam7 interlacing. The stdlib
// decodes interlaced images but PDF embedding rejects them, so they must be
// re-encoded rather than passed through.
func pngInterlaced(data []byte) bool {
	// The interlace method is the last byte of the IHDR chunk data.
	return len(data) > 28 && data[28] != 0
}

// Dimensions returns the pixel width and height of an encoded image
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
