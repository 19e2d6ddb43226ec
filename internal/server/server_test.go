package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/orchestrator"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

type fakeOrchestrator struct {
	mu           sync.Mutex
	enqueued     []string
	reprocessErr error
	reprocessJob *job.Job
	deleteJob    *job.Job
}

func (f *fakeOrchestrator) Advance(ctx context.Context, id string) (*job.Job, error) {
	return nil, nil
}

func (f *fakeOrchestrator) Enqueue(ctx context.Context, id string) (*job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, id)
	return &job.Job{ID: id, Status: job.StatusCompleted}, nil
}

func (f *fakeOrchestrator) Reprocess(ctx context.Context, id string) (*job.Job, error) {
	if f.reprocessErr != nil {
		return nil, f.reprocessErr
	}
	return f.reprocessJob, nil
}

func (f *fakeOrchestrator) DeleteArtifacts(ctx context.Context, id string, kind orchestrator.ArtifactKind) (*job.Job, error) {
	return f.deleteJob, nil
}

func (f *fakeOrchestrator) RecoverOrphans(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeOrchestrator) IngestLocal(ctx context.Context, path string) (*job.Job, error) {
	return nil, nil
}

func (f *fakeOrchestrator) enqueuedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.enqueued...)
}

type fakePoller struct{ status source.Status }

func (f *fakePoller) Start(ctx context.Context) error           { return nil }
func (f *fakePoller) SyncOnce(ctx context.Context) (int, error) { return 0, nil }
func (f *fakePoller) SourceStatus() source.Status               { return f.status }

func newTestServer(t *testing.T, orch *fakeOrchestrator) (*httptest.Server, store.Store) {
	t.Helper()
	db, err := store.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	st := store.NewStore(db, 50)
	require.NoError(t, st.InitialMigration(context.Background()))

	cfg := &config.Config{Server: config.ServerConfig{Address: ":0"}}
	srv := New(cfg, st, orch, &fakePoller{status: source.Status{OK: true, RecordingCount: 3}}, logger.New("error"))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		st.Close()
	})
	return ts, st
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &fakeOrchestrator{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListJobs(t *testing.T) {
	ts, st := newTestServer(t, &fakeOrchestrator{})
	_, err := st.Jobs().Create(context.Background(), job.Job{ID: "r1", Filename: "a.mp3", Status: job.StatusNew})
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jobs []job.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "r1", jobs[0].ID)
}

func TestGetJobNotFound(t *testing.T) {
	ts, _ := newTestServer(t, &fakeOrchestrator{})

	resp, err := http.Get(ts.URL + "/api/jobs/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessKicksPipeline(t *testing.T) {
	orch := &fakeOrchestrator{}
	ts, st := newTestServer(t, orch)
	_, err := st.Jobs().Create(context.Background(), job.Job{ID: "r2", Status: job.StatusNew})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/jobs/r2/process", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return len(orch.enqueuedIDs()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestProcessConflicts(t *testing.T) {
	ts, st := newTestServer(t, &fakeOrchestrator{})
	_, err := st.Jobs().Create(context.Background(), job.Job{ID: "running", Status: job.StatusTranscribing})
	require.NoError(t, err)
	_, err = st.Jobs().Create(context.Background(), job.Job{ID: "done", Status: job.StatusCompleted})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/jobs/running/process", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/jobs/done/process", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReprocess(t *testing.T) {
	orch := &fakeOrchestrator{reprocessJob: &job.Job{ID: "r3", Status: job.StatusTranscribed}}
	ts, _ := newTestServer(t, orch)

	resp, err := http.Post(ts.URL+"/api/jobs/r3/reprocess", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var j job.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&j))
	assert.Equal(t, job.StatusTranscribed, j.Status)
}

func TestReprocessRejected(t *testing.T) {
	orch := &fakeOrchestrator{reprocessErr: job.ErrNotReprocessable}
	ts, _ := newTestServer(t, orch)

	resp, err := http.Post(ts.URL+"/api/jobs/r4/reprocess", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReprocessBusy(t *testing.T) {
	orch := &fakeOrchestrator{reprocessErr: job.ErrBusy}
	ts, _ := newTestServer(t, orch)

	resp, err := http.Post(ts.URL+"/api/jobs/r5/reprocess", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteArtifactsValidatesKind(t *testing.T) {
	orch := &fakeOrchestrator{deleteJob: &job.Job{ID: "r6", Status: job.StatusNew}}
	ts, _ := newTestServer(t, orch)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/jobs/r6/artifacts?kind=bogus", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/jobs/r6/artifacts?kind=audio", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	ts, st := newTestServer(t, &fakeOrchestrator{})
	require.NoError(t, st.History().Append(context.Background(), store.HistoryEntry{
		RecordingID: "r7", Filename: "a.mp3", Status: job.StatusCompleted, Message: "Document published",
	}))

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []store.HistoryEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "r7", entries[0].RecordingID)
}

func TestPurgeHistory(t *testing.T) {
	ts, st := newTestServer(t, &fakeOrchestrator{})
	require.NoError(t, st.History().Append(context.Background(), store.HistoryEntry{
		RecordingID: "r8", Status: job.StatusFailed,
	}))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/history", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	entries, err := st.History().List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSourceStatus(t *testing.T) {
	ts, _ := newTestServer(t, &fakeOrchestrator{})

	resp, err := http.Get(ts.URL + "/api/source/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status source.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.OK)
	assert.Equal(t, 3, status.RecordingCount)
}
