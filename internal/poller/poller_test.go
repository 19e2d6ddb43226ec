package poller

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/orchestrator"
	"github.com/nguyentantai21042004/scribeflow/internal/source"
	"github.com/nguyentantai21042004/scribeflow/internal/store"
)

type fakeSource struct {
	recordings []source.Recording
	err        error
}

func (f *fakeSource) List(ctx context.Context) ([]source.Recording, error) {
	return f.recordings, f.err
}

func (f *fakeSource) Download(ctx context.Context, id, destPath string, maxBytes int64) (int64, error) {
	return 0, nil
}

func (f *fakeSource) TestConnection(ctx context.Context) source.Status { return source.Status{} }

type fakeOrchestrator struct {
	mu       sync.Mutex
	enqueued []string
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
	return nil, nil
}

func (f *fakeOrchestrator) DeleteArtifacts(ctx context.Context, id string, kind orchestrator.ArtifactKind) (*job.Job, error) {
	return nil, nil
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

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := store.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	st := store.NewStore(db, 50)
	require.NoError(t, st.InitialMigration(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSyncOnceRegistersNewRecordings(t *testing.T) {
	st := newTestStore(t)
	orch := &fakeOrchestrator{}
	src := &fakeSource{recordings: []source.Recording{
		{ID: "r1", Filename: "monday.mp3"},
		{ID: "r2", Filename: "tuesday.mp3"},
	}}
	p := New(src, st, orch, 60, logger.New("error"))

	n, err := p.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	j, err := st.Jobs().Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, job.StatusNew, j.Status)
	assert.Equal(t, job.SourceRemote, j.Source)
	assert.Equal(t, "monday.mp3", j.Filename)

	// A second pass over the same list registers nothing.
	n, err = p.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	status := p.SourceStatus()
	assert.True(t, status.OK)
	assert.Equal(t, 2, status.RecordingCount)

	// Each new job is enqueued exactly once.
	require.Eventually(t, func() bool {
		return len(orch.enqueuedIDs()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"r1", "r2"}, orch.enqueuedIDs())
}

func TestSyncOnceReportsSourceDown(t *testing.T) {
	st := newTestStore(t)
	p := New(&fakeSource{err: errors.New("401 unauthorized")}, st, &fakeOrchestrator{}, 60, logger.New("error"))

	_, err := p.SyncOnce(context.Background())
	require.Error(t, err)

	status := p.SourceStatus()
	assert.False(t, status.OK)
	assert.Contains(t, status.Message, "401")
}
