package models

import "time"

// RecordStatus tracks the lifecycle of a single round.
type RecordStatus string

const (
	StatusPending RecordStatus = "pending"
	StatusOK      RecordStatus = "ok"
	StatusFailed  RecordStatus = "failed"
)

// ImageRef is a reference to a generated image. The API returns either a
// remote URL (which may be short-lived) or inline base64 data.
type ImageRef struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// IsZero reports whether no image has been recorded yet.
func (r ImageRef) IsZero() bool {
	return r.URL == "" && r.B64JSON == ""
}

// Record is the per-round state: the image, its child-like description, and
// where in the pending/ok/failed lifecycle each half is.
type Record struct {
	Index            int          `json:"index"` // 1-based
	Image            ImageRef     `json:"image"`
	ImageError       string       `json:"image_error,omitempty"`
	Description      string       `json:"description,omitempty"`
	DescriptionError string       `json:"description_error,omitempty"`
	Status           RecordStatus `json:"status"`
	Terminal         bool         `json:"terminal"` // last round; description skipped on purpose
}

// Progress is the latest engine progress reported to the presentation layer.
type Progress struct {
	Current int           `json:"current"`
	Total   int           `json:"total"`
	Message string        `json:"message"`
	Elapsed time.Duration `json:"elapsed"`
}

// Run describes one serve-mode run for API responses.
type Run struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Rounds    int       `json:"rounds"`
	Outcome   string    `json:"outcome"` // running, completed, stopped, failed
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunDetail is a Run plus its records and latest progress.
type RunDetail struct {
	Run      Run      `json:"run"`
	Progress Progress `json:"progress"`
	Records  []Record `json:"records"`
}

// StartRunRequest is the serve-mode request to kick off a run.
type StartRunRequest struct {
	Prompt     string `json:"prompt"`
	Iterations int    `json:"iterations"`
	APIKey     string `json:"api_key,omitempty"`
	Remember   bool   `json:"remember,omitempty"`
}
