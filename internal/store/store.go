package store

import "time"

// Report sources.
const (
	SourceSync   = "sync"
	SourceStress = "stress"
)

// Report is the latest progress of one tool, shaped for the status API.
//
// Sync reports fill Phase, Cursor, PreviousSize and BatchSize. Stress
// reports fill Requests, Succeeded and Failed.
type Report struct {
	// Source is SourceSync or SourceStress and keys the report in the store.
	Source string `json:"source"`

	// RunID identifies the process run that produced the report.
	RunID string `json:"run_id"`

	// Sequence is the sync iteration or the load round number.
	Sequence int `json:"sequence"`

	Phase        string `json:"phase,omitempty"`
	Cursor       *int   `json:"cursor,omitempty"`
	PreviousSize int    `json:"previous_size,omitempty"`
	BatchSize    int    `json:"batch_size,omitempty"`

	Requests  int `json:"requests,omitempty"`
	Succeeded int `json:"succeeded,omitempty"`
	Failed    int `json:"failed,omitempty"`

	// LatencyMs is the request latency for sync, the round duration for stress.
	LatencyMs int64 `json:"latency_ms"`

	RecordedAt time.Time `json:"recorded_at"`

	// Error holds the first failure message, if any.
	Error *string `json:"error"`
}

// Store defines the interface for storing and subscribing to reports.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores a report and notifies all subscribers.
	// Reports are keyed by Source; a newer report replaces the older one.
	Update(report Report)

	// GetAll returns a snapshot of all stored reports ordered by Source.
	GetAll() []Report

	// Subscribe returns a buffered channel that receives updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Report

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Report)
}
