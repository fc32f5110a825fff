package feedprobe

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jpalmerr/feedprobe/internal/store"
)

// reportsOf returns the observer's latest reports ordered by source.
func reportsOf(o *Observer) []store.Report {
	return o.store.GetAll()
}

func TestNewObserver_InvalidPort(t *testing.T) {
	for _, port := range []int{-1, 65536} {
		if _, err := NewObserver(port, nil); err == nil {
			t.Errorf("NewObserver(%d) expected error, got nil", port)
		}
	}
}

func TestObserver_RecordStep(t *testing.T) {
	obs, err := NewObserver(0, discardLogger())
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	obs.RecordStep(SyncStep{Iteration: 0, Cursor: -1, Size: 500})

	reports := reportsOf(obs)
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if reports[0].Source != store.SourceSync || reports[0].Cursor != nil {
		t.Errorf("index report = %+v, want sync source without cursor", reports[0])
	}
	if reports[0].RecordedAt.IsZero() {
		t.Error("RecordedAt is zero")
	}

	obs.RecordStep(SyncStep{
		Iteration:    1,
		Phase:        PhaseAwaitingFirstDelta,
		Cursor:       234,
		PreviousSize: 500,
		Size:         12,
		Latency:      30 * time.Millisecond,
		FetchedAt:    time.Now(),
	})

	r := reportsOf(obs)[0]
	if r.Sequence != 1 || r.Phase != "awaiting_first_delta" || r.BatchSize != 12 || r.PreviousSize != 500 {
		t.Errorf("delta report = %+v", r)
	}
	if r.Cursor == nil || *r.Cursor != 234 {
		t.Errorf("Cursor = %v, want 234", r.Cursor)
	}
	if r.LatencyMs != 30 {
		t.Errorf("LatencyMs = %d, want 30", r.LatencyMs)
	}
	if r.RunID != obs.RunID() {
		t.Errorf("RunID = %q, want %q", r.RunID, obs.RunID())
	}
}

func TestObserver_RecordRound(t *testing.T) {
	obs, err := NewObserver(0, discardLogger())
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	obs.RecordRound(RoundReport{
		Round:     4,
		Requests:  10,
		Succeeded: 8,
		Failed:    2,
		Errors:    []string{"unexpected status 503", "timeout"},
		StartedAt: time.Now(),
		Duration:  time.Second,
	})

	reports := reportsOf(obs)
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if r.Source != store.SourceStress || r.Sequence != 4 || r.Succeeded != 8 || r.Failed != 2 {
		t.Errorf("round report = %+v", r)
	}
	if r.Error == nil || *r.Error != "unexpected status 503" {
		t.Errorf("Error = %v, want first failure message", r.Error)
	}
	if r.LatencyMs != 1000 {
		t.Errorf("LatencyMs = %d, want 1000", r.LatencyMs)
	}
}

func TestObserver_ServesStatus(t *testing.T) {
	obs, err := NewObserver(0, discardLogger())
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	if obs.Addr() != nil {
		t.Errorf("Addr() = %v before Start, want nil", obs.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := obs.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	obs.RecordStep(SyncStep{Iteration: 2, Phase: PhaseSteadyPolling, Cursor: 7, Size: 3})
	obs.RecordRound(RoundReport{Round: 1, Requests: 5, Succeeded: 5})

	resp, err := http.Get("http://" + obs.Addr().String() + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var reports []store.Report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].Source != store.SourceStress || reports[1].Source != store.SourceSync {
		t.Errorf("sources = %q, %q; want stress, sync", reports[0].Source, reports[1].Source)
	}
}
