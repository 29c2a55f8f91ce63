package batch

import (
	"encoding/json"

	"article-batch-service/internal/entity"
)

// Action is a transition request for Apply.
type Action interface {
	name() string
}

type (
	Start struct {
		BatchID string
		Request entity.BatchRequest
		Jobs    []entity.Job
	}
	ItemStarted struct {
		ID string
	}
	ItemProgress struct {
		ID      string
		Percent int
	}
	ItemCompleted struct {
		ID     string
		Result json.RawMessage
	}
	ItemFailed struct {
		ID      string
		Message string
	}
	Pause  struct{}
	Resume struct{}
	Cancel struct{}
	Reset  struct{}
	Load   struct {
		Snapshot entity.BatchSnapshot
	}
	// RetryFailed moves failed jobs back to pending. It is never applied
	// implicitly: resuming a batch leaves failed jobs failed.
	RetryFailed struct{}
)

func (Start) name() string         { return "start" }
func (ItemStarted) name() string   { return "item_started" }
func (ItemProgress) name() string  { return "item_progress" }
func (ItemCompleted) name() string { return "item_completed" }
func (ItemFailed) name() string    { return "item_failed" }
func (Pause) name() string         { return "pause" }
func (Resume) name() string        { return "resume" }
func (Cancel) name() string        { return "cancel" }
func (Reset) name() string         { return "reset" }
func (Load) name() string          { return "load" }
func (RetryFailed) name() string   { return "retry_failed" }

// Name returns the action's wire name, used in logs and events.
func Name(a Action) string {
	return a.name()
}
