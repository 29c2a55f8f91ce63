package batch

import (
	"fmt"

	"article-batch-service/internal/entity"
)

// Apply returns the snapshot that results from applying a to s.
// It performs no I/O and never mutates s; on error the returned snapshot
// is s itself.
func Apply(s entity.BatchSnapshot, a Action) (entity.BatchSnapshot, error) {
	switch act := a.(type) {
	case Start:
		return applyStart(s, act)
	case ItemStarted:
		return applyItem(s, a, act.ID, func(j *entity.Job) error {
			if j.Status != entity.StatusPending {
				return fmt.Errorf("job %s is %s, want %s", j.ID, j.Status, entity.StatusPending)
			}
			j.Status = entity.StatusProcessing
			j.Progress = 0
			return nil
		})
	case ItemProgress:
		return applyItem(s, a, act.ID, func(j *entity.Job) error {
			j.Progress = clampPercent(act.Percent)
			return nil
		})
	case ItemCompleted:
		return applyItem(s, a, act.ID, func(j *entity.Job) error {
			j.Status = entity.StatusCompleted
			j.Progress = 100
			j.Result = act.Result
			j.Error = nil
			return nil
		})
	case ItemFailed:
		return applyItem(s, a, act.ID, func(j *entity.Job) error {
			msg := act.Message
			j.Status = entity.StatusFailed
			j.Error = &msg
			j.Result = nil
			j.RetryCount++
			return nil
		})
	case Pause:
		next := clone(s)
		next.IsRunning = false
		next.Progress = Recompute(next.Jobs, false)
		return next, nil
	case Resume:
		next := clone(s)
		return settle(next, true), nil
	case Cancel:
		next := clone(s)
		for i := range next.Jobs {
			if next.Jobs[i].Status == entity.StatusProcessing {
				next.Jobs[i].Status = entity.StatusPending
				next.Jobs[i].Progress = 0
			}
		}
		next.IsRunning = false
		next.Progress = Recompute(next.Jobs, false)
		return next, nil
	case Reset:
		return entity.BatchSnapshot{}, nil
	case Load:
		// A loaded snapshot has no run loop bound to it until Resume.
		next := clone(act.Snapshot)
		return settle(next, false), nil
	case RetryFailed:
		if s.Progress.IsActive {
			return s, &StateError{Op: a.name(), Reason: "batch is active"}
		}
		next := clone(s)
		for i := range next.Jobs {
			if next.Jobs[i].Status == entity.StatusFailed {
				next.Jobs[i].Status = entity.StatusPending
				next.Jobs[i].Error = nil
				next.Jobs[i].Progress = 0
			}
		}
		return settle(next, false), nil
	case nil:
		return s, &StateError{Op: "unknown", Reason: "nil action"}
	default:
		return s, &StateError{Op: a.name(), Reason: "unsupported action"}
	}
}

func applyStart(s entity.BatchSnapshot, act Start) (entity.BatchSnapshot, error) {
	if s.Progress.IsActive {
		return s, &StateError{Op: act.name(), Reason: fmt.Sprintf("batch %s is still active", s.BatchID)}
	}
	if len(act.Jobs) == 0 {
		return s, &StateError{Op: act.name(), Reason: "no jobs to run"}
	}

	jobs := make([]entity.Job, len(act.Jobs))
	seen := make(map[string]struct{}, len(act.Jobs))
	for i, j := range act.Jobs {
		if _, dup := seen[j.ID]; dup {
			return s, &StateError{Op: act.name(), Reason: fmt.Sprintf("duplicate job id %s", j.ID)}
		}
		seen[j.ID] = struct{}{}

		j.Status = entity.StatusPending
		j.Progress = 0
		j.Error = nil
		j.Result = nil
		jobs[i] = j
	}

	next := entity.BatchSnapshot{
		BatchID:   act.BatchID,
		CreatedAt: act.Request.CreatedAt,
		Jobs:      jobs,
		IsRunning: true,
	}
	next.Progress = Recompute(jobs, true)
	return next, nil
}

func applyItem(s entity.BatchSnapshot, a Action, id string, mutate func(*entity.Job) error) (entity.BatchSnapshot, error) {
	idx := indexOf(s.Jobs, id)
	if idx < 0 {
		return s, &StateError{Op: a.name(), Reason: fmt.Sprintf("job %s not found", id)}
	}

	next := clone(s)
	if err := mutate(&next.Jobs[idx]); err != nil {
		return s, &StateError{Op: a.name(), Reason: err.Error()}
	}
	return settle(next, next.IsRunning), nil
}

// settle recomputes derived progress. A batch with nothing left to do is
// never running.
func settle(s entity.BatchSnapshot, running bool) entity.BatchSnapshot {
	p := Recompute(s.Jobs, running)
	if p.Current >= p.Total {
		running = false
		p.IsActive = false
	}
	s.IsRunning = running
	s.Progress = p
	return s
}

func clone(s entity.BatchSnapshot) entity.BatchSnapshot {
	out := s
	if s.Jobs != nil {
		out.Jobs = make([]entity.Job, len(s.Jobs))
		copy(out.Jobs, s.Jobs)
	}
	return out
}

func indexOf(jobs []entity.Job, id string) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
