package service_test

import (
	"context"
	"errors"
	"testing"

	"article-batch-service/internal/batch"
	"article-batch-service/internal/entity"
	"article-batch-service/internal/service"
	"article-batch-service/internal/worker"
)

type fakeRunner struct {
	snap   entity.BatchSnapshot
	req    entity.BatchRequest
	hasReq bool

	started     []entity.BatchRequest
	resumedJobs []entity.Job
	resumedReq  entity.BatchRequest
	resumeCalls int
	calls       []string
	err         error
}

func (r *fakeRunner) StartBatch(ctx context.Context, req entity.BatchRequest) (*worker.Handle, error) {
	r.started = append(r.started, req)
	if r.err != nil {
		return nil, r.err
	}
	return &worker.Handle{BatchID: "b"}, nil
}

func (r *fakeRunner) Resume(ctx context.Context, jobs []entity.Job, req entity.BatchRequest) (*worker.Handle, error) {
	r.resumeCalls++
	r.resumedJobs = jobs
	r.resumedReq = req
	return &worker.Handle{BatchID: r.snap.BatchID}, r.err
}

func (r *fakeRunner) Pause() error       { r.calls = append(r.calls, "pause"); return r.err }
func (r *fakeRunner) Cancel() error      { r.calls = append(r.calls, "cancel"); return r.err }
func (r *fakeRunner) Reset() error       { r.calls = append(r.calls, "reset"); return r.err }
func (r *fakeRunner) RetryFailed() error { r.calls = append(r.calls, "retry_failed"); return r.err }

func (r *fakeRunner) Snapshot() entity.BatchSnapshot { return r.snap }

func (r *fakeRunner) Request() (entity.BatchRequest, bool) { return r.req, r.hasReq }

func pausedSnapshot() entity.BatchSnapshot {
	return entity.BatchSnapshot{
		BatchID: "b-7",
		Jobs: []entity.Job{
			{ID: "1", Topic: "A", Status: entity.StatusCompleted},
			{ID: "2", Topic: "B", Status: entity.StatusPending},
			{ID: "3", Topic: "C", Status: entity.StatusProcessing},
		},
		Progress: entity.BatchProgress{Total: 3, Completed: 1, Current: 1},
	}
}

func TestBatchService_StartBatch_PassesRequestThrough(t *testing.T) {
	runner := &fakeRunner{}
	svc := service.NewBatchService(runner)

	_, err := svc.StartBatch(context.Background(), service.StartBatchRequest{
		Topics: []string{"Plumbing"},
		Count:  3,
		Params: entity.GenerationParams{Tone: "formal", Quality: entity.QualityFlags{IncludeFAQ: true}},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(runner.started) != 1 {
		t.Fatalf("expected 1 start, got %d", len(runner.started))
	}
	got := runner.started[0]
	if got.Count != 3 || got.Params.Tone != "formal" || !got.Params.Quality.IncludeFAQ {
		t.Fatalf("unexpected request %#v", got)
	}
	if !got.CreatedAt.IsZero() {
		t.Fatalf("creation time is stamped by the orchestrator, got %v", got.CreatedAt)
	}
}

func TestBatchService_ResumeCurrent_UsesUnfinishedJobs(t *testing.T) {
	runner := &fakeRunner{snap: pausedSnapshot()}
	svc := service.NewBatchService(runner)

	if _, err := svc.ResumeCurrent(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(runner.resumedJobs) != 2 || runner.resumedJobs[0].ID != "2" || runner.resumedJobs[1].ID != "3" {
		t.Fatalf("expected jobs 2 and 3, got %#v", runner.resumedJobs)
	}
	if len(runner.resumedReq.Topics) != 0 {
		t.Fatalf("expected stored request to be used, got %#v", runner.resumedReq)
	}
}

func TestBatchService_ResumeCurrent_NothingToDo(t *testing.T) {
	var sErr *batch.StateError

	svc := service.NewBatchService(&fakeRunner{})
	if _, err := svc.ResumeCurrent(context.Background()); !errors.As(err, &sErr) {
		t.Fatalf("expected StateError for empty batch, got %v", err)
	}

	done := pausedSnapshot()
	done.Jobs = done.Jobs[:1]
	runner := &fakeRunner{snap: done}
	svc = service.NewBatchService(runner)
	if _, err := svc.ResumeCurrent(context.Background()); !errors.As(err, &sErr) {
		t.Fatalf("expected StateError for finished batch, got %v", err)
	}
	if runner.resumeCalls != 0 {
		t.Fatalf("expected no resume, got %d", runner.resumeCalls)
	}
}

func TestBatchService_ResumePlan(t *testing.T) {
	runner := &fakeRunner{snap: pausedSnapshot()}
	svc := service.NewBatchService(runner)
	plan := &service.ResumePlan{
		Snapshot: runner.snap,
		Request:  entity.BatchRequest{Topics: []string{"A", "B", "C"}, Count: 1},
		Jobs:     runner.snap.Unfinished(),
	}

	h, err := svc.ResumePlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if h.BatchID != "b-7" {
		t.Fatalf("expected handle of b-7, got %q", h.BatchID)
	}
	if len(runner.resumedReq.Topics) != 3 {
		t.Fatalf("expected plan request, got %#v", runner.resumedReq)
	}
}

func TestBatchService_Current(t *testing.T) {
	runner := &fakeRunner{snap: pausedSnapshot(), req: entity.BatchRequest{Topics: []string{"A"}}, hasReq: true}
	view := service.NewBatchService(runner).Current()

	if view.Outcome != batch.OutcomePaused {
		t.Fatalf("expected paused, got %s", view.Outcome)
	}
	if view.Counts[entity.StatusPending] != 1 || view.Counts[entity.StatusProcessing] != 1 {
		t.Fatalf("unexpected counts %#v", view.Counts)
	}
	if view.Request == nil {
		t.Fatalf("expected request in view")
	}

	view = service.NewBatchService(&fakeRunner{hasReq: true}).Current()
	if view.Outcome != batch.OutcomeIdle || view.Request != nil {
		t.Fatalf("expected idle view without request, got %#v", view)
	}
}

func TestBatchService_ControlsDelegate(t *testing.T) {
	runner := &fakeRunner{}
	svc := service.NewBatchService(runner)

	_ = svc.Pause()
	_ = svc.Cancel()
	_ = svc.RetryFailed()
	_ = svc.Reset()

	want := []string{"pause", "cancel", "retry_failed", "reset"}
	if len(runner.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, runner.calls)
	}
	for i := range want {
		if runner.calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, runner.calls)
		}
	}

	runner.err = errors.New("boom")
	if err := svc.Pause(); err == nil {
		t.Fatalf("expected error to propagate")
	}
}
