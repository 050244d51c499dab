package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pictophone/pictophone/internal/config"
	"github.com/pictophone/pictophone/internal/credentials"
	"github.com/pictophone/pictophone/internal/engine"
	"github.com/pictophone/pictophone/internal/export"
	"github.com/pictophone/pictophone/internal/gallery"
	"github.com/pictophone/pictophone/internal/gemini"
	"github.com/pictophone/pictophone/internal/models"
	"github.com/pictophone/pictophone/internal/openai"
	"github.com/pictophone/pictophone/internal/providers"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		prompt         string
		iterations     int
		apiKey         string
		describerName  string
		outDir         string
		exportPDF      bool
		transcriptPath string
		remember       bool
		forget         bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the generate-describe loop from the terminal",
		Long: `Runs the visual telephone loop: each round generates an image from the
current prompt and (except on the last round) describes it in child-like
language to produce the next prompt. Images are written to the output
directory as they arrive; press Ctrl+C to stop after the current call.`,
		Example: `  # Three rounds starting from a prompt
  pictophone run -p "a cat riding a bicycle" -n 3

  # Remember the API key for next time and export a PDF
  pictophone run -p "a rainy street" -n 5 --api-key sk-... --remember --pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			store, err := credentials.NewStore(cfg.StorageKey)
			if err != nil {
				return err
			}

			if forget {
				if err := store.Clear(); err != nil {
					return fmt.Errorf("failed to clear stored API key: %w", err)
				}
				slog.Info("Cleared stored API key")
			}

			credential, err := resolveCredential(apiKey, store)
			if err != nil {
				return err
			}

			client := openai.New(cfg)
			describer, err := describerFor(describerName, client, cfg)
			if err != nil {
				return err
			}

			view := gallery.NewConsole(outDir)
			runner := engine.New(client, describer, view)
			tok := engine.NewToken()

			// Ctrl+C requests a cooperative stop; the in-flight call always
			// finishes first, so the engine runs on a background context.
			runDone := make(chan struct{})
			go watchStop(cmd.Context(), tok, runDone)

			session, runErr := runner.Run(context.Background(), engine.Request{
				Prompt:     prompt,
				Iterations: iterations,
				Credential: credential,
			}, tok)
			close(runDone)

			var validationErr *engine.ValidationError
			if remember && !errors.As(runErr, &validationErr) {
				if err := store.Save(credential); err != nil {
					slog.Error("Failed to store API key", "error", err)
				} else {
					slog.Info("Stored API key for future runs")
				}
			}

			// Partial results are exported even when the run failed mid-way.
			records := view.Snapshot()
			if transcriptPath != "" && len(records) > 0 {
				if err := export.WriteTranscript(records, transcriptPath); err != nil {
					slog.Error("Failed to write transcript", "error", err)
				} else {
					slog.Info("Wrote transcript", "path", transcriptPath)
				}
			}
			if exportPDF && len(records) > 0 {
				if err := writePDF(records); err != nil {
					slog.Error("Failed to export PDF", "error", err)
				}
			}

			if runErr != nil {
				return runErr
			}
			if session.Outcome == engine.OutcomeStopped {
				slog.Info("Run stopped by user", "records", len(records))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Starting prompt (required)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 3, "Number of rounds (1-10)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (falls back to OPENAI_API_KEY, then the stored key)")
	cmd.Flags().StringVar(&describerName, "describer", "openai", "Vision provider for the describe step (openai or gemini)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "rounds", "Directory for per-round images (empty to disable)")
	cmd.Flags().BoolVar(&exportPDF, "pdf", false, "Export the gallery as a timestamped PDF")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Write a Parquet transcript of the run to this path")
	cmd.Flags().BoolVar(&remember, "remember", false, "Store the API key for future runs")
	cmd.Flags().BoolVar(&forget, "forget", false, "Remove any stored API key before running")

	return cmd
}

// watchStop trips the token when ctx is canceled, returning once either that
// happens or the run signals completion via done.
func watchStop(ctx context.Context, tok *engine.Token, done <-chan struct{}) {
	select {
	case <-ctx.Done():
		tok.Stop()
	case <-done:
	}
}

// resolveCredential picks the API key: flag, then environment, then store
func resolveCredential(flagValue string, store *credentials.Store) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("OPENAI_API_KEY"); env != "" {
		return env, nil
	}
	stored, err := store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load stored API key: %w", err)
	}
	return stored, nil
}

// describerFor returns the configured describe-step provider
func describerFor(name string, client *openai.Client, cfg *config.Config) (providers.Describer, error) {
	switch name {
	case "openai":
		return client, nil
	case "gemini":
		return gemini.New(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported describer: %s", name)
	}
}

// writePDF exports the records to a timestamped PDF in the working directory
func writePDF(records []models.Record) error {
	name := export.Filename(time.Now())

	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create PDF file: %w", err)
	}
	defer file.Close()

	result, err := export.NewExporter().Export(records, file)
	if err != nil {
		return err
	}
	slog.Info("Exported PDF", "path", name, "pages", result.Pages,
		"images", result.ImagesEmbedded, "skipped", result.ImagesSkipped)
	return nil
}
