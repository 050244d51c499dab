package gallery

import (
	"sort"
	"sync"
	"time"

	"github.com/pictophone/pictophone/internal/engine"
	"github.com/pictophone/pictophone/internal/models"
)

// RunState is one serve-mode run: its record store, its cancellation token,
// and its terminal outcome once the engine returns.
type RunState struct {
	ID        string
	Prompt    string
	Rounds    int
	CreatedAt time.Time
	Store     *Store
	Token     *engine.Token

	mu      sync.RWMutex
	outcome string
	errMsg  string
}

// NewRunState creates a run in the "running" state
func NewRunState(id, prompt string, rounds int) *RunState {
	return &RunState{
		ID:        id,
		Prompt:    prompt,
		Rounds:    rounds,
		CreatedAt: time.Now(),
		Store:     NewStore(),
		Token:     engine.NewToken(),
		outcome:   "running",
	}
}

// Finish records the terminal outcome of the run
func (r *RunState) Finish(outcome engine.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = string(outcome)
	if err != nil {
		r.errMsg = err.Error()
	}
}

// Summary returns the run for list responses
func (r *RunState) Summary() models.Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.Run{
		ID:        r.ID,
		Prompt:    r.Prompt,
		Rounds:    r.Rounds,
		Outcome:   r.outcome,
		Error:     r.errMsg,
		CreatedAt: r.CreatedAt,
	}
}

// Detail returns the run with its records and latest progress
func (r *RunState) Detail() models.RunDetail {
	return models.RunDetail{
		Run:      r.Summary(),
		Progress: r.Store.Progress(),
		Records:  r.Store.Snapshot(),
	}
}

// Registry holds serve-mode runs by ID.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*RunState
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		runs: make(map[string]*RunState),
	}
}

// Add registers a run
func (g *Registry) Add(state *RunState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs[state.ID] = state
}

// Get returns the run with the given ID
func (g *Registry) Get(id string) (*RunState, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	state, exists := g.runs[id]
	return state, exists
}

// All returns all runs, newest first
func (g *Registry) All() []*RunState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*RunState, 0, len(g.runs))
	for _, state := range g.runs {
		result = append(result, state)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Delete removes a run
func (g *Registry) Delete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.runs, id)
}
