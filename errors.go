package feedprobe

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/feedprobe/internal/poller"
)

var (
	// ErrEmptyBatch is returned when a cursor is needed but the current batch
	// has no posts to derive it from.
	ErrEmptyBatch = errors.New("batch is empty")

	// ErrInvalidTimestamp is returned when a post's "d" field is missing or
	// cannot be read as an integer.
	ErrInvalidTimestamp = errors.New("invalid post timestamp")

	// ErrMalformedResponse is returned when a response body is not the
	// expected JSON document.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge is returned when a response body exceeds 64MB.
	// Oversized bodies are rejected, never truncated.
	ErrResponseTooLarge = poller.ErrBodyTooLarge
)

// StatusError reports a response whose HTTP status was not 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// SizeCheckError reports a first delta batch that failed the size check
// against the batch it was derived from.
type SizeCheckError struct {
	Check    SizeCheck
	Previous int
	Delta    int
}

func (e *SizeCheckError) Error() string {
	op := "<="
	if e.Check == SizeCheckStrict {
		op = "<"
	}
	return fmt.Sprintf("first delta batch has %d posts, want %s %d", e.Delta, op, e.Previous)
}
