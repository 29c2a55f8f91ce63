package service

import (
	"context"

	"article-batch-service/internal/batch"
	"article-batch-service/internal/entity"
	"article-batch-service/internal/worker"
)

// Порт оркестратора (реализация: worker.Orchestrator)
type BatchRunner interface {
	StartBatch(ctx context.Context, req entity.BatchRequest) (*worker.Handle, error)
	Resume(ctx context.Context, jobs []entity.Job, req entity.BatchRequest) (*worker.Handle, error)
	Pause() error
	Cancel() error
	Reset() error
	RetryFailed() error
	Snapshot() entity.BatchSnapshot
	Request() (entity.BatchRequest, bool)
}

// BatchService is what transports talk to.
type BatchService struct {
	runner BatchRunner
}

func NewBatchService(runner BatchRunner) *BatchService {
	return &BatchService{runner: runner}
}

type StartBatchRequest struct {
	Topics []string
	Count  int
	Params entity.GenerationParams
}

// BatchView is the current batch as shown to users.
type BatchView struct {
	Snapshot entity.BatchSnapshot
	Outcome  batch.Outcome
	Counts   map[entity.JobStatus]int
	Request  *entity.BatchRequest
}

func (s *BatchService) StartBatch(ctx context.Context, req StartBatchRequest) (*worker.Handle, error) {
	return s.runner.StartBatch(ctx, entity.BatchRequest{
		Topics: req.Topics,
		Count:  req.Count,
		Params: req.Params,
	})
}

func (s *BatchService) Current() BatchView {
	snap := s.runner.Snapshot()
	view := BatchView{
		Snapshot: snap,
		Outcome:  batch.Summarize(snap),
		Counts:   batch.Counts(snap.Jobs),
	}
	if req, ok := s.runner.Request(); ok && !snap.IsEmpty() {
		view.Request = &req
	}
	return view
}

func (s *BatchService) Pause() error {
	return s.runner.Pause()
}

// ResumeCurrent continues the unfinished jobs of the current batch with
// its stored generation parameters.
func (s *BatchService) ResumeCurrent(ctx context.Context) (*worker.Handle, error) {
	snap := s.runner.Snapshot()
	if snap.IsEmpty() {
		return nil, &batch.StateError{Op: "resume", Reason: "no batch"}
	}
	jobs := snap.Unfinished()
	if len(jobs) == 0 {
		return nil, &batch.StateError{Op: "resume", Reason: "batch has no unfinished jobs"}
	}
	return s.runner.Resume(ctx, jobs, entity.BatchRequest{})
}

// ResumePlan continues a batch found by RecoveryLoader.
func (s *BatchService) ResumePlan(ctx context.Context, plan *ResumePlan) (*worker.Handle, error) {
	return s.runner.Resume(ctx, plan.Jobs, plan.Request)
}

func (s *BatchService) Cancel() error {
	return s.runner.Cancel()
}

func (s *BatchService) Reset() error {
	return s.runner.Reset()
}

func (s *BatchService) RetryFailed() error {
	return s.runner.RetryFailed()
}
