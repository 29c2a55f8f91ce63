package batch

import "article-batch-service/internal/entity"

// FallbackSecondsPerJob is the assumed duration of one generation call.
// Per-job latency is not measured.
const FallbackSecondsPerJob = 30

// EstimateSeconds returns the remaining time for a batch. It is never
// negative and never grows while completed+failed grows for a fixed total.
func EstimateSeconds(total, completed, failed int) int {
	remaining := total - completed - failed
	if remaining <= 0 {
		return 0
	}
	return remaining * FallbackSecondsPerJob
}

// Recompute derives BatchProgress from the job list.
func Recompute(jobs []entity.Job, isRunning bool) entity.BatchProgress {
	p := entity.BatchProgress{Total: len(jobs)}
	for _, j := range jobs {
		switch j.Status {
		case entity.StatusCompleted:
			p.Completed++
		case entity.StatusFailed:
			p.Failed++
		}
	}
	p.Current = p.Completed + p.Failed
	p.IsActive = isRunning && p.Current < p.Total
	p.EstimatedSecondsRemaining = EstimateSeconds(p.Total, p.Completed, p.Failed)
	return p
}

// Counts returns the number of jobs per status.
func Counts(jobs []entity.Job) map[entity.JobStatus]int {
	out := map[entity.JobStatus]int{
		entity.StatusPending:    0,
		entity.StatusProcessing: 0,
		entity.StatusCompleted:  0,
		entity.StatusFailed:     0,
	}
	for _, j := range jobs {
		out[j.Status]++
	}
	return out
}
