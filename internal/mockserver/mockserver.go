// Package mockserver implements an in-memory feed service with the index and
// incremental sync endpoints. It backs the package tests and the standalone
// mock server under example/cmd/mockserver.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const defaultWindow = 500

type post struct {
	ID   int    `json:"id"`
	D    int64  `json:"d"`
	Body string `json:"body"`
}

type rate struct {
	Rate    float64 `json:"rate"`
	Inexact bool    `json:"inexact"`
}

type batchResponse struct {
	Batch []post          `json:"batch"`
	Rates map[string]rate `json:"rates"`
}

// Feed is a thread-safe in-memory feed.
//
// The index endpoint returns the most recent window of posts. The sync
// endpoint returns the posts of that window whose timestamp modulo 1000 is
// at or after the requested cursor, so a delta batch is never larger than
// the window.
type Feed struct {
	mu          sync.Mutex
	posts       []post
	nextID      int
	window      int
	indexStatus int
	requests    []string
}

// NewFeed creates an empty feed serving at most window posts per batch.
// A window below one selects the default of 500.
func NewFeed(window int) *Feed {
	if window < 1 {
		window = defaultWindow
	}
	return &Feed{window: window, indexStatus: http.StatusOK}
}

// Append adds a post with timestamp d.
func (f *Feed) Append(d int64, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.posts = append(f.posts, post{ID: f.nextID, D: d, Body: body})
}

// SetIndexStatus makes the index endpoint answer with code and an error body
// instead of the batch. http.StatusOK restores normal behaviour.
func (f *Feed) SetIndexStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexStatus = code
}

// Requests returns the paths requested so far, in arrival order.
func (f *Feed) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Handler returns the feed's HTTP routes.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/hi", f.handleIndex)
	mux.HandleFunc("GET /api/v1/s/{timestamp}", f.handleSync)
	return mux
}

// Generate appends a post stamped with the current Unix milliseconds every
// interval until ctx is cancelled.
func (f *Feed) Generate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f.Append(now.UnixMilli(), fmt.Sprintf("post at %s", now.Format(time.RFC3339Nano)))
		}
	}
}

func (f *Feed) handleIndex(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path)
	status := f.indexStatus
	window := f.windowLocked()
	f.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	writeBatch(w, window)
}

func (f *Feed) handleSync(w http.ResponseWriter, r *http.Request) {
	cursor, err := strconv.Atoi(r.PathValue("timestamp"))
	if err != nil || cursor < 0 || cursor > 999 {
		http.Error(w, "timestamp must be an integer in [0, 999]", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path)
	window := f.windowLocked()
	f.mu.Unlock()

	delta := make([]post, 0, len(window))
	for _, p := range window {
		if p.D%1000 >= int64(cursor) {
			delta = append(delta, p)
		}
	}

	writeBatch(w, delta)
}

// windowLocked returns a copy of the latest window of posts.
// Caller must hold f.mu.
func (f *Feed) windowLocked() []post {
	start := 0
	if len(f.posts) > f.window {
		start = len(f.posts) - f.window
	}
	return append([]post(nil), f.posts[start:]...)
}

// rates estimates posts per second across batch, treating d as milliseconds.
func rates(batch []post) map[string]rate {
	if len(batch) < 2 {
		return map[string]rate{"posts": {Rate: float64(len(batch)), Inexact: true}}
	}
	span := time.Duration(batch[len(batch)-1].D-batch[0].D) * time.Millisecond
	if span <= 0 {
		return map[string]rate{"posts": {Rate: float64(len(batch)), Inexact: true}}
	}
	return map[string]rate{"posts": {Rate: float64(len(batch)-1) / span.Seconds()}}
}

func writeBatch(w http.ResponseWriter, batch []post) {
	if batch == nil {
		batch = []post{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(batchResponse{Batch: batch, Rates: rates(batch)}); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
