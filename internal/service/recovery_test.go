package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-batch-service/internal/batch"
	"article-batch-service/internal/entity"
	"article-batch-service/internal/service"
	"article-batch-service/internal/storage"
	"article-batch-service/internal/worker"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type countingGenerator struct {
	calls atomic.Int32
}

func (g *countingGenerator) Generate(_ context.Context, topic string, _ entity.GenerationParams, report worker.ProgressFunc) (json.RawMessage, error) {
	g.calls.Add(1)
	report(100)
	return json.RawMessage(`{"topic":"` + topic + `"}`), nil
}

type env struct {
	mem   *storage.Memory
	store *storage.Store
	gen   *countingGenerator
	orch  *worker.Orchestrator
	svc   *service.BatchService
}

func newEnv() *env {
	mem := storage.NewMemory()
	st := storage.NewStore(mem, storage.NewKeys("test"))
	gen := &countingGenerator{}
	orch := worker.NewOrchestrator(gen, st, nil, worker.WithClock(clock))
	return &env{mem: mem, store: st, gen: gen, orch: orch, svc: service.NewBatchService(orch)}
}

func (e *env) loader() *service.RecoveryLoader {
	return service.NewRecoveryLoader(e.store, e.orch, 0, clock)
}

func onePendingJob(persistedAt time.Time) entity.BatchSnapshot {
	return entity.BatchSnapshot{
		BatchID:         "batch-1",
		CreatedAt:       persistedAt.Add(-time.Minute),
		Jobs:            []entity.Job{{ID: "job-1", Topic: "Roofing", Status: entity.StatusPending}},
		Progress:        entity.BatchProgress{Total: 1, IsActive: true, EstimatedSecondsRemaining: 30},
		IsRunning:       true,
		LastPersistedAt: persistedAt,
	}
}

func (e *env) persist(t *testing.T, snap entity.BatchSnapshot, withRequest bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.SaveSnapshot(ctx, snap))
	if withRequest {
		require.NoError(t, e.store.SaveRequest(ctx, entity.BatchRequest{
			Topics: []string{"Roofing"},
			Count:  1,
			Params: entity.GenerationParams{Location: "Austin", Tone: "friendly"},
		}))
	}
}

func (e *env) assertPurged(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, ok, _ := e.mem.Get(ctx, e.store.Keys().Snapshot)
	assert.False(t, ok, "snapshot key")
	_, ok, _ = e.mem.Get(ctx, e.store.Keys().Request)
	assert.False(t, ok, "request key")
}

func TestRecover_NothingStored(t *testing.T) {
	e := newEnv()
	plan, err := e.loader().Recover(context.Background())
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.True(t, e.orch.Snapshot().IsEmpty())
}

func TestRecover_StaleSnapshotIsPurged(t *testing.T) {
	e := newEnv()
	e.persist(t, onePendingJob(now.Add(-3*time.Hour)), true)

	plan, err := e.loader().Recover(context.Background())
	require.NoError(t, err)
	assert.Nil(t, plan)
	e.assertPurged(t)
	assert.True(t, e.orch.Snapshot().IsEmpty())
	assert.Equal(t, batch.OutcomeIdle, e.svc.Current().Outcome)
	assert.Zero(t, e.gen.calls.Load())
}

func TestRecover_FreshSnapshotResumesExactlyOnce(t *testing.T) {
	e := newEnv()
	e.persist(t, onePendingJob(now.Add(-30*time.Minute)), true)

	plan, err := e.loader().Recover(context.Background())
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.Jobs, 1)
	assert.Equal(t, "job-1", plan.Jobs[0].ID)
	assert.Equal(t, "Austin", plan.Request.Params.Location)

	loaded := e.orch.Snapshot()
	assert.False(t, loaded.IsRunning)
	assert.True(t, now.Add(-30*time.Minute).Equal(loaded.LastPersistedAt), "load does not rewrite the snapshot")

	h, err := e.svc.ResumePlan(context.Background(), plan)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))

	snap := e.orch.Snapshot()
	assert.Equal(t, int32(1), e.gen.calls.Load())
	assert.Equal(t, entity.StatusCompleted, snap.Jobs[0].Status)
	assert.Equal(t, batch.OutcomeCompleted, batch.Summarize(snap))
}

func TestRecover_ThresholdIsConfigurable(t *testing.T) {
	e := newEnv()
	e.persist(t, onePendingJob(now.Add(-30*time.Minute)), true)

	plan, err := service.NewRecoveryLoader(e.store, e.orch, 10*time.Minute, clock).Recover(context.Background())
	require.NoError(t, err)
	assert.Nil(t, plan)
	e.assertPurged(t)
}

func TestRecover_CorruptRecordsArePurged(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot", func(t *testing.T) {
		e := newEnv()
		require.NoError(t, e.mem.Set(ctx, e.store.Keys().Snapshot, `{"jobs":[`))
		require.NoError(t, e.mem.Set(ctx, e.store.Keys().Request, `{"topics":["A"],"count":1}`))

		plan, err := e.loader().Recover(ctx)
		require.NoError(t, err)
		assert.Nil(t, plan)
		e.assertPurged(t)
	})

	t.Run("request", func(t *testing.T) {
		e := newEnv()
		e.persist(t, onePendingJob(now.Add(-time.Minute)), false)
		require.NoError(t, e.mem.Set(ctx, e.store.Keys().Request, `not json`))

		plan, err := e.loader().Recover(ctx)
		require.NoError(t, err)
		assert.Nil(t, plan)
		e.assertPurged(t)
	})

	t.Run("missing request", func(t *testing.T) {
		e := newEnv()
		e.persist(t, onePendingJob(now.Add(-time.Minute)), false)

		plan, err := e.loader().Recover(ctx)
		require.NoError(t, err)
		assert.Nil(t, plan)
		e.assertPurged(t)
	})
}

func TestRecover_FinishedBatchIsLoadedForDisplay(t *testing.T) {
	e := newEnv()
	snap := onePendingJob(now.Add(-time.Minute))
	snap.Jobs[0].Status = entity.StatusCompleted
	snap.Jobs[0].Progress = 100
	e.persist(t, snap, false)

	plan, err := e.loader().Recover(context.Background())
	require.NoError(t, err)
	assert.Nil(t, plan)

	view := e.svc.Current()
	assert.Equal(t, batch.OutcomeCompleted, view.Outcome)
	assert.Equal(t, "batch-1", view.Snapshot.BatchID)
	assert.False(t, view.Snapshot.IsRunning)

	_, ok, _ := e.mem.Get(context.Background(), e.store.Keys().Snapshot)
	assert.True(t, ok)
}

type brokenSource struct {
	purgeErr error
	purged   int
}

func (s *brokenSource) LoadSnapshot(context.Context) (entity.BatchSnapshot, bool, error) {
	return entity.BatchSnapshot{}, false, &storage.PersistenceError{Op: "read", Key: "k", Err: errors.New("connection reset")}
}

func (s *brokenSource) LoadRequest(context.Context) (entity.BatchRequest, bool, error) {
	return entity.BatchRequest{}, false, nil
}

func (s *brokenSource) Purge(context.Context) error {
	s.purged++
	return s.purgeErr
}

type noLoad struct{}

func (noLoad) Load(entity.BatchSnapshot, *entity.BatchRequest) error {
	return errors.New("must not be called")
}

func TestRecover_ReadFailure(t *testing.T) {
	src := &brokenSource{}
	plan, err := service.NewRecoveryLoader(src, noLoad{}, 0, clock).Recover(context.Background())
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Equal(t, 1, src.purged)

	boom := errors.New("still down")
	src = &brokenSource{purgeErr: boom}
	_, err = service.NewRecoveryLoader(src, noLoad{}, 0, clock).Recover(context.Background())
	assert.ErrorIs(t, err, boom)
}
