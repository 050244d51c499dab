package export

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/pictophone/pictophone/internal/models"
)

func TestWriteTranscript(t *testing.T) {
	records := []models.Record{
		{
			Index:       1,
			Image:       models.ImageRef{URL: "https://img.example/1.png", RevisedPrompt: "a fluffy cat"},
			Description: "a kitty cat",
			Status:      models.StatusOK,
		},
		{
			Index:            2,
			Image:            models.ImageRef{URL: "https://img.example/2.png"},
			DescriptionError: "vision model unavailable",
			Status:           models.StatusFailed,
		},
		{
			Index:    3,
			Image:    models.ImageRef{URL: "https://img.example/3.png"},
			Status:   models.StatusOK,
			Terminal: true,
		},
	}

	path := filepath.Join(t.TempDir(), "transcript.parquet")
	if err := WriteTranscript(records, path); err != nil {
		t.Fatalf("WriteTranscript returned error: %v", err)
	}

	rows, err := parquet.ReadFile[TranscriptRow](path)
	if err != nil {
		t.Fatalf("failed to read transcript back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	first := rows[0]
	if first.Round != 1 || first.ImageURL != "https://img.example/1.png" ||
		first.RevisedPrompt != "a fluffy cat" || first.Description != "a kitty cat" ||
		first.Status != "ok" {
		t.Errorf("first row = %+v", first)
	}

	second := rows[1]
	if second.Status != "failed" || second.DescriptionError != "vision model unavailable" {
		t.Errorf("second row = %+v", second)
	}

	third := rows[2]
	if !third.Terminal || third.Description != "" {
		t.Errorf("third row = %+v, want terminal with no description", third)
	}
}

func TestWriteTranscriptEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.parquet")
	if err := WriteTranscript(nil, path); err != nil {
		t.Fatalf("WriteTranscript returned error: %v", err)
	}

	rows, err := parquet.ReadFile[TranscriptRow](path)
	if err != nil {
		t.Fatalf("failed to read transcript back: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestWriteTranscriptBadPath(t *testing.T) {
	err := WriteTranscript(nil, filepath.Join(t.TempDir(), "missing", "transcript.parquet"))
	if err == nil {
		t.Error("expected error for uncreatable path")
	}
}
