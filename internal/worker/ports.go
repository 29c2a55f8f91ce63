package worker

import (
	"context"
	"encoding/json"

	"article-batch-service/internal/entity"
)

// ProgressFunc lets a generator report completion percent of the job it is working on.
type ProgressFunc func(percent int)

// Generator produces one article. It is slow and opaque; the returned
// payload is stored as-is on the job.
type Generator interface {
	Generate(ctx context.Context, topic string, params entity.GenerationParams, report ProgressFunc) (json.RawMessage, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, topic string, params entity.GenerationParams, report ProgressFunc) (json.RawMessage, error)

func (f GeneratorFunc) Generate(ctx context.Context, topic string, params entity.GenerationParams, report ProgressFunc) (json.RawMessage, error) {
	return f(ctx, topic, params, report)
}

// ProgressSink receives run loop events synchronously, in order.
// Implementations must not block for long.
type ProgressSink interface {
	OnStart(jobID string)
	OnProgress(jobID string, percent int)
	OnComplete(jobID string, payload json.RawMessage)
	OnError(jobID string, message string)
}

// SnapshotStore is the persistence the orchestrator writes through
// (implementation: storage.Store).
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap entity.BatchSnapshot) error
	SaveRequest(ctx context.Context, req entity.BatchRequest) error
	Purge(ctx context.Context) error
}

type NopSink struct{}

func (NopSink) OnStart(string)                     {}
func (NopSink) OnProgress(string, int)             {}
func (NopSink) OnComplete(string, json.RawMessage) {}
func (NopSink) OnError(string, string)             {}

// MultiSink fans events out to every sink in order.
type MultiSink []ProgressSink

func (m MultiSink) OnStart(id string) {
	for _, s := range m {
		s.OnStart(id)
	}
}

func (m MultiSink) OnProgress(id string, pct int) {
	for _, s := range m {
		s.OnProgress(id, pct)
	}
}

func (m MultiSink) OnComplete(id string, payload json.RawMessage) {
	for _, s := range m {
		s.OnComplete(id, payload)
	}
}

func (m MultiSink) OnError(id string, msg string) {
	for _, s := range m {
		s.OnError(id, msg)
	}
}
