package batch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"article-batch-service/internal/entity"
)

// DefaultMaxJobs caps topics × count when no explicit limit is configured.
const DefaultMaxJobs = 500

// jobNamespace scopes the name-based job and batch UUIDs.
var jobNamespace = uuid.MustParse("6f1c7f0e-1a63-4a55-9d53-0b7f43a8c2d1")

// Validate checks a batch request. maxJobs <= 0 means DefaultMaxJobs.
func Validate(req entity.BatchRequest, maxJobs int) error {
	if len(req.Topics) == 0 {
		return &ValidationError{Field: "topics", Reason: "at least one topic is required"}
	}
	for i, t := range req.Topics {
		if strings.TrimSpace(t) == "" {
			return &ValidationError{Field: fmt.Sprintf("topics[%d]", i), Reason: "topic is empty"}
		}
	}
	if req.Count <= 0 {
		return &ValidationError{Field: "count", Reason: "must be positive"}
	}
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	// compare by division, the product may overflow int
	if req.Count > maxJobs/len(req.Topics) {
		return &ValidationError{Field: "count", Reason: fmt.Sprintf("%d topics x %d exceeds limit of %d jobs", len(req.Topics), req.Count, maxJobs)}
	}
	return nil
}

// Materialize expands a request into jobs: topic order, then repeat index.
// The same request always yields the same job IDs.
func Materialize(req entity.BatchRequest) []entity.Job {
	jobs := make([]entity.Job, 0, len(req.Topics)*req.Count)
	index := 0
	for _, raw := range req.Topics {
		topic := strings.TrimSpace(raw)
		for r := 0; r < req.Count; r++ {
			jobs = append(jobs, entity.Job{
				ID:     JobID(topic, index, req.CreatedAt.UnixMilli()),
				Topic:  topic,
				Index:  index,
				Status: entity.StatusPending,
			})
			index++
		}
	}
	return jobs
}

// JobID derives a stable job ID from topic, sequence index and batch
// creation time (unix millis).
func JobID(topic string, index int, createdAtMillis int64) string {
	name := topic + "|" + strconv.Itoa(index) + "|" + strconv.FormatInt(createdAtMillis, 10)
	return uuid.NewSHA1(jobNamespace, []byte(name)).String()
}

// BatchID derives a stable batch ID from the request.
func BatchID(req entity.BatchRequest) string {
	name := "batch|" + strconv.FormatInt(req.CreatedAt.UnixMilli(), 10) + "|" +
		strconv.Itoa(req.Count) + "|" + strings.Join(req.Topics, "\x1f")
	return uuid.NewSHA1(jobNamespace, []byte(name)).String()
}
