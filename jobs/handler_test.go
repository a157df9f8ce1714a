package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
)

type fakeEnqueuer struct {
	lowStock int
	warmup   int
	err      error
}

func (f *fakeEnqueuer) EnqueueLowStockScan(ctx context.Context) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lowStock++
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) EnqueueStatsWarmup(ctx context.Context) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.warmup++
	return &asynq.TaskInfo{ID: "task-2", Queue: QueueDefault}, nil
}

func newJobsRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestTriggerRoutesEnqueueTasks(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(nil, enq, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := newJobsRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lowstock", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("lowstock status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["taskId"] != "task-1" || body["queue"] != QueueDefault {
		t.Fatalf("unexpected body %v", body)
	}
	if enq.lowStock != 1 {
		t.Fatalf("lowStock enqueued %d times, want 1", enq.lowStock)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/warmup", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("warmup status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if enq.warmup != 1 {
		t.Fatalf("warmup enqueued %d times, want 1", enq.warmup)
	}
}

func TestTriggerRoutesUseGuard(t *testing.T) {
	enq := &fakeEnqueuer{}
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
	h := NewHandler(nil, enq, deny, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := newJobsRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lowstock", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if enq.lowStock != 0 {
		t.Fatalf("guard did not block the enqueue")
	}

	// The guard wraps only the trigger routes.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTriggerWithoutEnqueuerUnavailable(t *testing.T) {
	h := NewHandler(nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := newJobsRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/warmup", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestTriggerEnqueueFailure(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	h := NewHandler(nil, enq, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := newJobsRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lowstock", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
