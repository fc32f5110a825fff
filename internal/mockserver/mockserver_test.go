package mockserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) batchResponse {
	t.Helper()
	var resp batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestFeed_IndexReturnsWindow(t *testing.T) {
	feed := NewFeed(3)
	for d := int64(1); d <= 5; d++ {
		feed.Append(d*1000, "p")
	}

	rec := httptest.NewRecorder()
	feed.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hi", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	if len(resp.Batch) != 3 {
		t.Fatalf("len(batch) = %d, want 3", len(resp.Batch))
	}
	if resp.Batch[2].D != 5000 {
		t.Errorf("last d = %d, want 5000", resp.Batch[2].D)
	}
	if _, ok := resp.Rates["posts"]; !ok {
		t.Error("rates should include posts")
	}
}

func TestFeed_SyncFiltersByCursor(t *testing.T) {
	feed := NewFeed(0)
	for _, d := range []int64{1100, 1250, 1234, 2999, 3001} {
		feed.Append(d, "p")
	}

	rec := httptest.NewRecorder()
	feed.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/s/234", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	want := []int64{1250, 1234, 2999}
	if len(resp.Batch) != len(want) {
		t.Fatalf("len(batch) = %d, want %d", len(resp.Batch), len(want))
	}
	for i, d := range want {
		if resp.Batch[i].D != d {
			t.Errorf("batch[%d].d = %d, want %d", i, resp.Batch[i].D, d)
		}
	}
}

func TestFeed_SyncRejectsBadCursor(t *testing.T) {
	feed := NewFeed(0)

	for _, path := range []string{"/api/v1/s/abc", "/api/v1/s/1000", "/api/v1/s/-1"} {
		rec := httptest.NewRecorder()
		feed.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestFeed_SetIndexStatus(t *testing.T) {
	feed := NewFeed(0)
	feed.SetIndexStatus(http.StatusServiceUnavailable)

	rec := httptest.NewRecorder()
	feed.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hi", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	feed.SetIndexStatus(http.StatusOK)
	rec = httptest.NewRecorder()
	feed.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hi", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestFeed_RecordsRequests(t *testing.T) {
	feed := NewFeed(0)
	feed.Append(7, "p")

	h := feed.Handler()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/hi", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/s/7", nil))

	got := feed.Requests()
	if len(got) != 2 || got[0] != "/api/v1/hi" || got[1] != "/api/v1/s/7" {
		t.Errorf("Requests() = %v", got)
	}
}

func TestFeed_Generate(t *testing.T) {
	feed := NewFeed(0)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	feed.Generate(ctx, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	feed.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hi", nil))
	if resp := decode(t, rec); len(resp.Batch) == 0 {
		t.Error("Generate() should have appended posts")
	}
}
