package engine

import "sync/atomic"

// Token is a cooperative cancellation flag. Stopping is advisory: the engine
// checks it only between steps and never interrupts an in-flight request.
type Token struct {
	stopped atomic.Bool
}

// NewToken creates a new cancellation token
func NewToken() *Token {
	return &Token{}
}

// Stop requests that the run stop at the next check point
func (t *Token) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether a stop has been requested
func (t *Token) Stopped() bool {
	return t.stopped.Load()
}
