package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/pictophone/pictophone/internal/models"
)

// TranscriptRow is one round of a run in the transcript artifact.
type TranscriptRow struct {
	Round            int32  `parquet:"round"`
	ImageURL         string `parquet:"image_url"`
	RevisedPrompt    string `parquet:"revised_prompt"`
	Description      string `parquet:"description"`
	Status           string `parquet:"status"`
	Terminal         bool   `parquet:"terminal"`
	ImageError       string `parquet:"image_error"`
	DescriptionError string `parquet:"description_error"`
}

// transcriptRow maps a record onto its transcript row
func transcriptRow(rec models.Record) TranscriptRow {
	return TranscriptRow{
		Round:            int32(rec.Index),
		ImageURL:         rec.Image.URL,
		RevisedPrompt:    rec.Image.RevisedPrompt,
		Description:      rec.Description,
		Status:           string(rec.Status),
		Terminal:         rec.Terminal,
		ImageError:       rec.ImageError,
		DescriptionError: rec.DescriptionError,
	}
}

// WriteTranscript writes one row per record to a Parquet file, useful for
// analyzing how far the prompt drifts over a run.
func WriteTranscript(records []models.Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[TranscriptRow](file)

	rows := make([]TranscriptRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, transcriptRow(rec))
	}

	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write transcript rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize transcript: %w", err)
	}
	return nil
}
