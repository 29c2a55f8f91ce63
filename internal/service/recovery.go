package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"article-batch-service/internal/entity"
	"article-batch-service/internal/storage"
)

// DefaultStaleAfter is the maximum age of a snapshot that is still resumed.
const DefaultStaleAfter = 2 * time.Hour

// Порт хранилища снапшотов (реализация: storage.Store)
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (entity.BatchSnapshot, bool, error)
	LoadRequest(ctx context.Context) (entity.BatchRequest, bool, error)
	Purge(ctx context.Context) error
}

// SnapshotLoader receives the recovered batch (implementation: worker.Orchestrator).
type SnapshotLoader interface {
	Load(snap entity.BatchSnapshot, req *entity.BatchRequest) error
}

// ResumePlan is a recovered batch that still has unfinished jobs.
type ResumePlan struct {
	Snapshot entity.BatchSnapshot
	Request  entity.BatchRequest
	Jobs     []entity.Job
}

type RecoveryLoader struct {
	src        SnapshotSource
	target     SnapshotLoader
	staleAfter time.Duration
	now        func() time.Time
}

func NewRecoveryLoader(src SnapshotSource, target SnapshotLoader, staleAfter time.Duration, now func() time.Time) *RecoveryLoader {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if now == nil {
		now = time.Now
	}
	return &RecoveryLoader{src: src, target: target, staleAfter: staleAfter, now: now}
}

// Recover runs once at startup. It returns nil when there is nothing to
// resume. Unreadable and stale records are purged. A finished batch is
// loaded for display only.
func (l *RecoveryLoader) Recover(ctx context.Context) (*ResumePlan, error) {
	log := zap.S().Named("recovery")

	snap, ok, err := l.src.LoadSnapshot(ctx)
	if err != nil {
		log.Warnw("discarding unreadable snapshot", "error", err, "corrupt", errors.Is(err, storage.ErrCorrupt))
		return nil, l.purge(ctx)
	}
	if !ok || snap.IsEmpty() {
		return nil, nil
	}

	age := l.now().Sub(snap.LastPersistedAt)
	if snap.LastPersistedAt.IsZero() || age > l.staleAfter {
		log.Infow("discarding stale snapshot",
			"batch_id", snap.BatchID,
			"last_persisted_at", snap.LastPersistedAt,
			"age", age.Round(time.Second).String(),
		)
		return nil, l.purge(ctx)
	}

	req, hasReq, err := l.src.LoadRequest(ctx)
	if err != nil {
		log.Warnw("discarding batch with unreadable request", "batch_id", snap.BatchID, "error", err)
		return nil, l.purge(ctx)
	}

	unfinished := snap.Unfinished()
	if len(unfinished) > 0 && !hasReq {
		log.Warnw("discarding unfinished batch without request", "batch_id", snap.BatchID)
		return nil, l.purge(ctx)
	}

	var reqPtr *entity.BatchRequest
	if hasReq {
		reqPtr = &req
	}
	if err := l.target.Load(snap, reqPtr); err != nil {
		return nil, fmt.Errorf("load recovered snapshot: %w", err)
	}

	if len(unfinished) == 0 {
		log.Infow("recovered finished batch", "batch_id", snap.BatchID)
		return nil, nil
	}

	log.Infow("recovered unfinished batch",
		"batch_id", snap.BatchID,
		"unfinished", len(unfinished),
		"total", len(snap.Jobs),
	)
	return &ResumePlan{Snapshot: snap, Request: req, Jobs: unfinished}, nil
}

func (l *RecoveryLoader) purge(ctx context.Context) error {
	if err := l.src.Purge(ctx); err != nil {
		return fmt.Errorf("purge batch records: %w", err)
	}
	return nil
}
