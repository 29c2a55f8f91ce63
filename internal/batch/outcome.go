package batch

import "article-batch-service/internal/entity"

type Outcome string

const (
	OutcomeIdle               Outcome = "idle"
	OutcomeRunning            Outcome = "running"
	OutcomePaused             Outcome = "paused"
	OutcomeCompleted          Outcome = "completed"
	OutcomePartiallyCompleted Outcome = "partially_completed"
	OutcomeFailed             Outcome = "failed"
)

// Summarize reports a snapshot the way a user sees it. A batch that ends
// with some failed jobs is partially completed, not failed.
func Summarize(s entity.BatchSnapshot) Outcome {
	p := s.Progress
	switch {
	case s.IsEmpty():
		return OutcomeIdle
	case p.Current < p.Total && s.IsRunning:
		return OutcomeRunning
	case p.Current < p.Total:
		return OutcomePaused
	case p.Failed == 0:
		return OutcomeCompleted
	case p.Completed == 0:
		return OutcomeFailed
	default:
		return OutcomePartiallyCompleted
	}
}
