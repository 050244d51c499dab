package engine

import (
	"time"

	"github.com/pictophone/pictophone/internal/models"
)

// RecordHandle identifies a record created by the view. Handles are only
// meaningful to the view that issued them.
type RecordHandle int

// View is the presentation layer as seen from the engine: a pure sink for
// per-round state transitions and progress updates.
type View interface {
	// CreateRecord creates the record for round index (1-based)
	CreateRecord(index int) RecordHandle
	SetImage(h RecordHandle, ref models.ImageRef)
	SetImageError(h RecordHandle, message string)
	SetDescription(h RecordHandle, text string)
	SetDescriptionError(h RecordHandle, message string)
	// SetTerminalMarker marks the record as the last round, whose
	// description step is skipped on purpose
	SetTerminalMarker(h RecordHandle)
	UpdateProgress(current, total int, message string)
	// Elapsed reports wall-clock time since the run started, once per second
	Elapsed(d time.Duration)
	ShowError(message string)
	ClearAll()
}
