package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pictophone/pictophone/internal/engine"
	"github.com/pictophone/pictophone/internal/gallery"
	"github.com/pictophone/pictophone/internal/models"
)

// fakeGenerator returns a distinct image URL per call and can be scripted to
// fail on a given round or to trip a stop token after a round's image.
type fakeGenerator struct {
	calls   int
	prompts []string
	failAt  int // 1-based call number to fail on, 0 = never
	stopAt  int // trip tok after this call's image succeeds, 0 = never
	tok     *engine.Token
}

func (g *fakeGenerator) GenerateImage(ctx context.Context, prompt, credential string) (models.ImageRef, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.failAt != 0 && g.calls == g.failAt {
		return models.ImageRef{}, errors.New("image model unavailable")
	}
	if g.stopAt != 0 && g.calls == g.stopAt {
		g.tok.Stop()
	}
	return models.ImageRef{URL: fmt.Sprintf("https://img.example/%d.png", g.calls)}, nil
}

type fakeDescriber struct {
	calls  int
	failAt int
}

func (d *fakeDescriber) DescribeImage(ctx context.Context, ref models.ImageRef, credential string) (string, error) {
	d.calls++
	if d.failAt != 0 && d.calls == d.failAt {
		return "", errors.New("vision model unavailable")
	}
	return fmt.Sprintf("a drawing of thing number %d", d.calls), nil
}

func validRequest(iterations int) engine.Request {
	return engine.Request{
		Prompt:     "a cat riding a bicycle",
		Iterations: iterations,
		Credential: "sk-test-key",
	}
}

func TestRunAllRoundsComplete(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10} {
		t.Run(fmt.Sprintf("%d_rounds", n), func(t *testing.T) {
			gen := &fakeGenerator{}
			desc := &fakeDescriber{}
			view := gallery.NewStore()
			runner := engine.New(gen, desc, view)

			session, err := runner.Run(context.Background(), validRequest(n), engine.NewToken())
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if session.Outcome != engine.OutcomeCompleted {
				t.Fatalf("Outcome = %v, want completed", session.Outcome)
			}
			if session.Generating {
				t.Error("Generating flag not cleared after run")
			}

			records := view.Snapshot()
			if len(records) != n {
				t.Fatalf("got %d records, want %d", len(records), n)
			}
			for i, rec := range records {
				if rec.Index != i+1 {
					t.Errorf("record %d has index %d", i, rec.Index)
				}
				if rec.Image.IsZero() {
					t.Errorf("record %d has no image", i+1)
				}
				if rec.Status != models.StatusOK {
					t.Errorf("record %d status = %s, want ok", i+1, rec.Status)
				}
				if i < n-1 && rec.Description == "" {
					t.Errorf("record %d has no description", i+1)
				}
			}

			last := records[n-1]
			if !last.Terminal {
				t.Error("final record missing terminal marker")
			}
			if last.Description != "" {
				t.Errorf("final record has description %q, description step should be skipped", last.Description)
			}
			if desc.calls != n-1 {
				t.Errorf("describer called %d times, want %d", desc.calls, n-1)
			}
		})
	}
}

func TestRunFeedsDescriptionBackAsPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	desc := &fakeDescriber{}
	runner := engine.New(gen, desc, gallery.NewStore())

	if _, err := runner.Run(context.Background(), validRequest(3), engine.NewToken()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{
		"a cat riding a bicycle",
		"a drawing of thing number 1",
		"a drawing of thing number 2",
	}
	if len(gen.prompts) != len(want) {
		t.Fatalf("generator saw %d prompts, want %d", len(gen.prompts), len(want))
	}
	for i, prompt := range want {
		if gen.prompts[i] != prompt {
			t.Errorf("round %d prompt = %q, want %q (verbatim feed-back)", i+1, gen.prompts[i], prompt)
		}
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		req  engine.Request
		want string
	}{
		{"empty prompt", engine.Request{Prompt: "  ", Iterations: 3, Credential: "sk-x"}, "prompt"},
		{"zero iterations", engine.Request{Prompt: "p", Iterations: 0, Credential: "sk-x"}, "iterations"},
		{"eleven iterations", engine.Request{Prompt: "p", Iterations: 11, Credential: "sk-x"}, "iterations"},
		{"empty credential", engine.Request{Prompt: "p", Iterations: 3, Credential: ""}, "API key"},
		{"bad credential prefix", engine.Request{Prompt: "p", Iterations: 3, Credential: "pk-nope"}, "sk-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			view := gallery.NewStore()
			runner := engine.New(gen, &fakeDescriber{}, view)

			_, err := runner.Run(context.Background(), tt.req, engine.NewToken())
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *engine.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
			if gen.calls != 0 {
				t.Errorf("generator called %d times before validation, want 0", gen.calls)
			}
			if len(view.Snapshot()) != 0 {
				t.Error("records created despite validation failure")
			}
			if view.LastError() == "" {
				t.Error("validation failure not surfaced to the view")
			}
		})
	}
}

func TestRunGenerationFailureAbortsRun(t *testing.T) {
	gen := &fakeGenerator{failAt: 2}
	desc := &fakeDescriber{}
	view := gallery.NewStore()
	runner := engine.New(gen, desc, view)

	session, err := runner.Run(context.Background(), validRequest(4), engine.NewToken())
	if err == nil {
		t.Fatal("expected run error")
	}
	if session.Outcome != engine.OutcomeFailed {
		t.Fatalf("Outcome = %v, want failed", session.Outcome)
	}

	records := view.Snapshot()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (no round 3 after failure)", len(records))
	}
	failed := records[1]
	if failed.Status != models.StatusFailed || failed.ImageError == "" {
		t.Errorf("failed record = %+v, want failed status with image error", failed)
	}
	if desc.calls != 1 {
		t.Errorf("describer called %d times, want 1 (no describe after failed image)", desc.calls)
	}
	if view.LastError() == "" {
		t.Error("failure not surfaced to the view")
	}
}

func TestRunDescriptionFailureKeepsImage(t *testing.T) {
	gen := &fakeGenerator{}
	desc := &fakeDescriber{failAt: 1}
	view := gallery.NewStore()
	runner := engine.New(gen, desc, view)

	session, err := runner.Run(context.Background(), validRequest(3), engine.NewToken())
	if err == nil {
		t.Fatal("expected run error")
	}
	if session.Outcome != engine.OutcomeFailed {
		t.Fatalf("Outcome = %v, want failed", session.Outcome)
	}

	records := view.Snapshot()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Image.IsZero() {
		t.Error("image discarded after description failure, should be retained")
	}
	if rec.DescriptionError == "" || rec.Status != models.StatusFailed {
		t.Errorf("record = %+v, want failed status with description error", rec)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
}

func TestRunStopBetweenImageAndDescribe(t *testing.T) {
	tok := engine.NewToken()
	gen := &fakeGenerator{stopAt: 2, tok: tok}
	desc := &fakeDescriber{}
	view := gallery.NewStore()
	runner := engine.New(gen, desc, view)

	session, err := runner.Run(context.Background(), validRequest(5), tok)
	if err != nil {
		t.Fatalf("stop is not a failure, got error: %v", err)
	}
	if session.Outcome != engine.OutcomeStopped {
		t.Fatalf("Outcome = %v, want stopped", session.Outcome)
	}

	records := view.Snapshot()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (loop stops after round 2)", len(records))
	}
	if records[1].Image.IsZero() {
		t.Error("round 2 image missing, stop should honor the completed call")
	}
	if desc.calls != 1 {
		t.Errorf("describer called %d times, want 1 (stop checked before describe)", desc.calls)
	}
}

func TestRunStopBeforeFirstRound(t *testing.T) {
	tok := engine.NewToken()
	tok.Stop()
	gen := &fakeGenerator{}
	view := gallery.NewStore()
	runner := engine.New(gen, &fakeDescriber{}, view)

	session, err := runner.Run(context.Background(), validRequest(3), tok)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if session.Outcome != engine.OutcomeStopped {
		t.Fatalf("Outcome = %v, want stopped", session.Outcome)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times after pre-stop, want 0", gen.calls)
	}
	if len(view.Snapshot()) != 0 {
		t.Error("records created after pre-stop")
	}
}
