package gallery

import (
	"sync"
	"time"

	"github.com/pictophone/pictophone/internal/engine"
	"github.com/pictophone/pictophone/internal/models"
)

// Store is an in-memory record store implementing engine.View. The engine
// writes from its own goroutine while serve-mode handlers read, so access is
// mutex-guarded.
type Store struct {
	mu       sync.RWMutex
	records  []models.Record
	progress models.Progress
	lastErr  string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// CreateRecord appends a pending record for the given round
func (s *Store) CreateRecord(index int) engine.RecordHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, models.Record{
		Index:  index,
		Status: models.StatusPending,
	})
	return engine.RecordHandle(len(s.records) - 1)
}

// SetImage records a successfully generated image
func (s *Store) SetImage(h engine.RecordHandle, ref models.ImageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(h); rec != nil {
		rec.Image = ref
		rec.Status = models.StatusOK
	}
}

// SetImageError marks the round's image step as failed
func (s *Store) SetImageError(h engine.RecordHandle, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(h); rec != nil {
		rec.ImageError = message
		rec.Status = models.StatusFailed
	}
}

// SetDescription records the child-like description for the round
func (s *Store) SetDescription(h engine.RecordHandle, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(h); rec != nil {
		rec.Description = text
	}
}

// SetDescriptionError marks the round's describe step as failed. The image
// itself is retained as already succeeded.
func (s *Store) SetDescriptionError(h engine.RecordHandle, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(h); rec != nil {
		rec.DescriptionError = message
		rec.Status = models.StatusFailed
	}
}

// SetTerminalMarker marks the record as the final round
func (s *Store) SetTerminalMarker(h engine.RecordHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(h); rec != nil {
		rec.Terminal = true
	}
}

// UpdateProgress records the latest progress message
func (s *Store) UpdateProgress(current, total int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Current = current
	s.progress.Total = total
	s.progress.Message = message
}

// Elapsed records wall-clock time since the run started
func (s *Store) Elapsed(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Elapsed = d
}

// ShowError records the latest top-level error message
func (s *Store) ShowError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = message
}

// ClearAll wipes all records and progress at once
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.progress = models.Progress{}
	s.lastErr = ""
}

// Snapshot returns a copy of the records in round order
func (s *Store) Snapshot() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Progress returns the latest progress
func (s *Store) Progress() models.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// LastError returns the most recent error message shown, if any
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// IndexOf returns the round index for a handle, or 0 for an unknown handle
func (s *Store) IndexOf(h engine.RecordHandle) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec := s.record(h); rec != nil {
		return rec.Index
	}
	return 0
}

// record returns the record for a handle. Callers hold the lock.
func (s *Store) record(h engine.RecordHandle) *models.Record {
	if int(h) < 0 || int(h) >= len(s.records) {
		return nil
	}
	return &s.records[h]
}
