package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/pictophone/pictophone/internal/engine"
)

func TestWatchStopTripsTokenOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tok := engine.NewToken()
	done := make(chan struct{})

	finished := make(chan struct{})
	go func() {
		watchStop(ctx, tok, done)
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("watcher did not return after cancellation")
	}
	if !tok.Stopped() {
		t.Error("token not stopped after cancellation")
	}
}

func TestWatchStopReturnsWhenRunFinishes(t *testing.T) {
	tok := engine.NewToken()
	done := make(chan struct{})

	finished := make(chan struct{})
	go func() {
		watchStop(context.Background(), tok, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("watcher did not return after the run finished")
	}
	if tok.Stopped() {
		t.Error("token stopped without a cancellation")
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-abcdefghijkl", "sk-****ijkl"},
		{"sk-abc", "sk-****"},
		{"", "sk-****"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
