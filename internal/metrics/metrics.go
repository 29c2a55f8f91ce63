package metrics

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	subsystem = "article_batch"

	jobsFinishedTotal     = "jobs_finished_total"
	jobDurationSeconds    = "job_duration_seconds"
	jobsRemaining         = "batch_jobs_remaining"
	persistenceErrorTotal = "persistence_errors_total"

	statusLabel = "status"
)

var jobsFinishedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      jobsFinishedTotal,
		Help:      "number of jobs that reached a terminal status",
	},
	[]string{statusLabel},
)

var jobDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      jobDurationSeconds,
		Help:      "duration of one generator call",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	},
	[]string{statusLabel},
)

var persistenceErrorsMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      persistenceErrorTotal,
		Help:      "number of failed snapshot or request writes",
	},
)

func init() {
	prometheus.MustRegister(jobsFinishedTotalMetric)
	prometheus.MustRegister(jobDurationMetric)
	prometheus.MustRegister(persistenceErrorsMetric)
}

// IncreasePersistenceErrors fits worker.WithPersistErrorHook.
func IncreasePersistenceErrors(error) {
	persistenceErrorsMetric.Inc()
}

// RegisterRemaining exposes the number of unfinished jobs of the current batch.
func RegisterRemaining(reg prometheus.Registerer, remaining func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      jobsRemaining,
			Help:      "jobs of the current batch that are pending or processing",
		},
		func() float64 { return float64(remaining()) },
	))
}

// Sink turns run loop events into job metrics.
type Sink struct {
	mu      sync.Mutex
	started map[string]time.Time
	now     func() time.Time
}

func NewSink() *Sink {
	return &Sink{started: map[string]time.Time{}, now: time.Now}
}

func (s *Sink) OnStart(jobID string) {
	s.mu.Lock()
	s.started[jobID] = s.now()
	s.mu.Unlock()
}

func (s *Sink) OnProgress(string, int) {}

func (s *Sink) OnComplete(jobID string, _ json.RawMessage) {
	s.finish(jobID, "completed")
}

func (s *Sink) OnError(jobID string, _ string) {
	s.finish(jobID, "failed")
}

func (s *Sink) finish(jobID, status string) {
	labels := prometheus.Labels{statusLabel: status}
	jobsFinishedTotalMetric.With(labels).Inc()

	s.mu.Lock()
	start, ok := s.started[jobID]
	delete(s.started, jobID)
	s.mu.Unlock()
	if ok {
		jobDurationMetric.With(labels).Observe(s.now().Sub(start).Seconds())
	}
}
