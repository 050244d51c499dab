package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pictophone/pictophone/internal/providers"
)

// Iteration bounds for one run
const (
	MinIterations = 1
	MaxIterations = 10
)

// credentialPrefix is the recognized API key format
const credentialPrefix = "sk-"

// ValidationError is a bad prompt, iteration count, or credential, detected
// before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Request is the input to one run.
type Request struct {
	Prompt     string
	Iterations int
	Credential string
}

// Validate checks a request without issuing any network calls
func Validate(req Request) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return &ValidationError{Field: "prompt", Reason: "prompt must not be empty"}
	}
	if req.Iterations < MinIterations || req.Iterations > MaxIterations {
		return &ValidationError{
			Field:  "iterations",
			Reason: fmt.Sprintf("iterations must be between %d and %d", MinIterations, MaxIterations),
		}
	}
	if req.Credential == "" {
		return &ValidationError{Field: "credential", Reason: "API key must not be empty"}
	}
	if !strings.HasPrefix(req.Credential, credentialPrefix) {
		return &ValidationError{Field: "credential", Reason: `API key must start with "sk-"`}
	}
	return nil
}

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeStopped   Outcome = "stopped"
	OutcomeFailed    Outcome = "failed"
)

// Session is the explicit run-state for one run: created at the start,
// returned from Run, never shared between runs.
type Session struct {
	Generating bool
	StartedAt  time.Time
	Outcome    Outcome
	Err        error
}

// Runner drives the generate-describe-feed-back loop. The loop is strictly
// sequential: round i+1 never starts before round i's image step resolves.
type Runner struct {
	images    providers.ImageGenerator
	describer providers.Describer
	view      View
}

// New creates a new runner
func New(images providers.ImageGenerator, describer providers.Describer, view View) *Runner {
	return &Runner{
		images:    images,
		describer: describer,
		view:      view,
	}
}

// Run executes the loop for req.Iterations rounds. A stop request via tok is
// honored at the top of each round and before the describe sub-step; the
// current network call always runs to completion first. The returned error is
// non-nil only for validation failures and failed outcomes; a stopped run is
// a deliberate early exit, not a failure.
func (r *Runner) Run(ctx context.Context, req Request, tok *Token) (*Session, error) {
	if err := Validate(req); err != nil {
		r.view.ShowError(err.Error())
		return nil, err
	}

	session := &Session{
		Generating: true,
		StartedAt:  time.Now(),
	}

	// Elapsed-time readout, torn down on every exit path
	ticker := time.NewTicker(time.Second)
	tickerDone := make(chan struct{})
	go func() {
		for {
			select {
			case <-tickerDone:
				return
			case now := <-ticker.C:
				r.view.Elapsed(now.Sub(session.StartedAt))
			}
		}
	}()
	defer func() {
		ticker.Stop()
		close(tickerDone)
		session.Generating = false
	}()

	slog.Info("Starting run", "rounds", req.Iterations)

	prompt := req.Prompt
	for i := 1; i <= req.Iterations; i++ {
		if tok.Stopped() {
			slog.Info("Run stopped by user", "before_round", i)
			r.view.UpdateProgress(i-1, req.Iterations, "Stopped by user")
			session.Outcome = OutcomeStopped
			return session, nil
		}

		handle := r.view.CreateRecord(i)

		r.view.UpdateProgress(i, req.Iterations, fmt.Sprintf("Generating image %d of %d...", i, req.Iterations))
		ref, err := r.images.GenerateImage(ctx, prompt, req.Credential)
		if err != nil {
			slog.Error("Image generation failed", "round", i, "error", err)
			r.view.SetImageError(handle, err.Error())
			r.view.ShowError(err.Error())
			session.Outcome = OutcomeFailed
			session.Err = err
			return session, fmt.Errorf("image generation failed on round %d: %w", i, err)
		}
		r.view.SetImage(handle, ref)

		if i == req.Iterations {
			// No prompt is needed past the last image.
			r.view.SetTerminalMarker(handle)
			break
		}

		if tok.Stopped() {
			slog.Info("Run stopped by user", "after_image", i)
			r.view.UpdateProgress(i, req.Iterations, "Stopped by user")
			session.Outcome = OutcomeStopped
			return session, nil
		}

		r.view.UpdateProgress(i, req.Iterations, fmt.Sprintf("Describing image %d of %d...", i, req.Iterations))
		description, err := r.describer.DescribeImage(ctx, ref, req.Credential)
		if err != nil {
			slog.Error("Image description failed", "round", i, "error", err)
			r.view.SetDescriptionError(handle, err.Error())
			r.view.ShowError(err.Error())
			session.Outcome = OutcomeFailed
			session.Err = err
			return session, fmt.Errorf("image description failed on round %d: %w", i, err)
		}
		r.view.SetDescription(handle, description)

		// The description becomes the next round's prompt, verbatim.
		prompt = description
	}

	r.view.UpdateProgress(req.Iterations, req.Iterations, "All rounds complete")
	slog.Info("Run complete", "rounds", req.Iterations)
	session.Outcome = OutcomeCompleted
	return session, nil
}
