package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeSweepEnqueuer struct {
	payload DedupSweepPayload
	err     error
}

func (f *fakeSweepEnqueuer) EnqueueDedupSweep(ctx context.Context, payload DedupSweepPayload) (*asynq.TaskInfo, error) {
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(t *testing.T, enqueuer SweepEnqueuer) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, enqueuer, logger).MountRoutes)
	return r
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	router := newJobsRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}

func TestEnqueueDedupSweep(t *testing.T) {
	enqueuer := &fakeSweepEnqueuer{}
	router := newJobsRouter(t, enqueuer)

	rr := httptest.NewRecorder()
	body := strings.NewReader(`{"year":2026,"month":1}`)
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/dedup-sweep", body))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Contains(t, rr.Body.String(), "task-1")
	require.Equal(t, DedupSweepPayload{Year: 2026, Month: 1}, enqueuer.payload)
}

func TestEnqueueDedupSweepEmptyBodyDefaultsPeriod(t *testing.T) {
	enqueuer := &fakeSweepEnqueuer{}
	router := newJobsRouter(t, enqueuer)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/dedup-sweep", nil))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, DedupSweepPayload{}, enqueuer.payload)
}

func TestEnqueueDedupSweepMalformedBody(t *testing.T) {
	router := newJobsRouter(t, &fakeSweepEnqueuer{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/dedup-sweep", strings.NewReader("{")))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEnqueueDedupSweepQueueUnavailable(t *testing.T) {
	enqueuer := &fakeSweepEnqueuer{err: errors.New("redis down")}
	router := newJobsRouter(t, enqueuer)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/dedup-sweep", strings.NewReader(`{"year":2026,"month":1}`)))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestEnqueueDedupSweepWithoutClient(t *testing.T) {
	router := newJobsRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/dedup-sweep", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
