package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"article-batch-service/internal/batch"
	"article-batch-service/internal/entity"
)

const (
	DefaultJobTimeout = 5 * time.Minute
	persistTimeout    = 10 * time.Second
)

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithMaxJobs caps topics × count of a single batch.
func WithMaxJobs(n int) Option {
	return func(o *Orchestrator) { o.maxJobs = n }
}

// WithJobTimeout bounds one generator call. A timeout fails the job. Zero disables the bound.
func WithJobTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.jobTimeout = d }
}

// WithPersistErrorHook is called for every failed snapshot write.
func WithPersistErrorHook(fn func(error)) Option {
	return func(o *Orchestrator) { o.onPersistError = fn }
}

// Orchestrator drives one batch at a time through the generator, one job
// at a time, and writes the snapshot through the store after every
// transition. The snapshot is replaced wholesale on each transition.
type Orchestrator struct {
	gen   Generator
	store SnapshotStore
	sink  ProgressSink

	now            func() time.Time
	maxJobs        int
	jobTimeout     time.Duration
	onPersistError func(error)

	// base outlives pause and cancel: an in-flight generator call is only
	// interrupted by Close.
	base   context.Context
	cancel context.CancelFunc

	// ctrl serializes StartBatch and Resume, which may wait for a
	// draining loop. Pause, Cancel and Reset never wait on it.
	ctrl sync.Mutex

	mu     sync.Mutex
	snap   entity.BatchSnapshot
	req    entity.BatchRequest
	hasReq bool
	run    *run
	epoch  uint64
	seq    uint64
	queue  []write

	// wmu orders store writes. It is never acquired while mu is held.
	wmu sync.Mutex
}

// write is one store operation queued under mu and performed by flush.
type write struct {
	purge bool
	req   *entity.BatchRequest
	snap  entity.BatchSnapshot
}

func NewOrchestrator(gen Generator, store SnapshotStore, sink ProgressSink, opts ...Option) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	base, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		gen:        gen,
		store:      store,
		sink:       sink,
		now:        time.Now,
		maxJobs:    batch.DefaultMaxJobs,
		jobTimeout: DefaultJobTimeout,
		base:       base,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func logger() *zap.SugaredLogger {
	return zap.S().Named("orchestrator")
}

// StartBatch materializes the request into jobs, persists the request and
// the initial snapshot, and starts the run loop.
func (o *Orchestrator) StartBatch(ctx context.Context, req entity.BatchRequest) (*Handle, error) {
	if err := batch.Validate(req, o.maxJobs); err != nil {
		return nil, err
	}

	o.ctrl.Lock()
	defer o.ctrl.Unlock()

	o.mu.Lock()
	if o.snap.Progress.IsActive {
		id := o.snap.BatchID
		o.mu.Unlock()
		return nil, &batch.StateError{Op: "start", Reason: fmt.Sprintf("batch %s is still active", id)}
	}
	prev, seq := o.run, o.seq
	o.mu.Unlock()

	// An in-flight job of a superseded batch must finish before the next
	// batch may call the generator.
	if err := prev.wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for previous run loop: %w", err)
	}

	req = normalizeRequest(req, o.now)
	jobs := batch.Materialize(req)

	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq != seq {
		return nil, &batch.StateError{Op: "start", Reason: "superseded by pause, cancel or reset"}
	}
	next, err := batch.Apply(o.snap, batch.Start{BatchID: batch.BatchID(req), Request: req, Jobs: jobs})
	if err != nil {
		return nil, err
	}

	o.req, o.hasReq = req, true
	o.saveRequestLocked(req)
	o.commitLocked(next)

	logger().Infow("batch started",
		"batch_id", next.BatchID,
		"topics", len(req.Topics),
		"count", req.Count,
		"jobs", len(next.Jobs),
	)
	return o.spawnLocked(jobIDs(next.Jobs), req), nil
}

// Resume re-enters the run loop over jobs (every job of the current
// snapshot if jobs is empty). Jobs left processing by an earlier loop or
// process are moved back to pending first; failed jobs stay failed.
// An empty req falls back to the request of the current batch.
func (o *Orchestrator) Resume(ctx context.Context, jobs []entity.Job, req entity.BatchRequest) (*Handle, error) {
	o.ctrl.Lock()
	defer o.ctrl.Unlock()

	o.mu.Lock()
	if o.snap.IsEmpty() {
		o.mu.Unlock()
		return nil, &batch.StateError{Op: "resume", Reason: "no batch to resume"}
	}
	if o.run != nil && !o.run.stopped() && !o.run.finished() {
		o.mu.Unlock()
		return nil, &batch.StateError{Op: "resume", Reason: "batch is already running"}
	}
	if len(req.Topics) == 0 {
		if !o.hasReq {
			o.mu.Unlock()
			return nil, &batch.ValidationError{Field: "request", Reason: "generation parameters of the batch are unknown"}
		}
		req = o.req
	}
	prev, seq := o.run, o.seq
	o.mu.Unlock()

	if err := prev.wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for previous run loop: %w", err)
	}

	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq != seq {
		return nil, &batch.StateError{Op: "resume", Reason: "superseded by pause, cancel or reset"}
	}

	o.req, o.hasReq = req, true
	o.saveRequestLocked(req)
	// No loop owns the snapshot at this point.
	if err := o.applyLocked(batch.Cancel{}, batch.Resume{}); err != nil {
		return nil, err
	}

	ids := selectIDs(o.snap.Jobs, jobs)
	logger().Infow("batch resumed",
		"batch_id", o.snap.BatchID,
		"jobs", len(ids),
		"remaining", o.snap.Progress.Total-o.snap.Progress.Current,
	)
	return o.spawnLocked(ids, req), nil
}

// Pause lets the in-flight job finish and starts no further job.
func (o *Orchestrator) Pause() error {
	return o.stop(batch.Pause{})
}

// Cancel stops the loop at the next job boundary and moves processing
// jobs back to pending.
func (o *Orchestrator) Cancel() error {
	return o.stop(batch.Cancel{})
}

func (o *Orchestrator) stop(a batch.Action) error {
	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snap.IsEmpty() {
		return &batch.StateError{Op: batch.Name(a), Reason: "no batch"}
	}
	o.seq++
	if o.run != nil {
		o.run.signalStop()
	}
	if err := o.applyLocked(a); err != nil {
		return err
	}
	logger().Infow("batch stopped", "batch_id", o.snap.BatchID, "action", batch.Name(a))
	return nil
}

// Reset stops the loop, drops results it may still deliver, and discards
// the batch together with its persisted records.
func (o *Orchestrator) Reset() error {
	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	o.epoch++
	if o.run != nil {
		o.run.signalStop()
	}
	id := o.snap.BatchID
	o.req, o.hasReq = entity.BatchRequest{}, false
	if err := o.applyLocked(batch.Reset{}); err != nil {
		return err
	}
	logger().Infow("batch reset", "batch_id", id)
	return nil
}

// RetryFailed moves failed jobs of an inactive batch back to pending.
// It does not start a loop; call Resume afterwards.
func (o *Orchestrator) RetryFailed() error {
	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snap.IsEmpty() {
		return &batch.StateError{Op: "retry_failed", Reason: "no batch"}
	}
	return o.applyLocked(batch.RetryFailed{})
}

// Load replaces the current snapshot, e.g. with one recovered at startup.
// The loaded snapshot is not written back, so its persisted timestamp keeps aging.
func (o *Orchestrator) Load(snap entity.BatchSnapshot, req *entity.BatchRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run != nil && !o.run.finished() {
		return &batch.StateError{Op: "load", Reason: "a run loop is still active"}
	}
	next, err := batch.Apply(o.snap, batch.Load{Snapshot: snap})
	if err != nil {
		return err
	}
	o.snap = next
	if req != nil {
		o.req, o.hasReq = *req, true
	}
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (o *Orchestrator) Snapshot() entity.BatchSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.snap
	out.Jobs = append([]entity.Job(nil), o.snap.Jobs...)
	return out
}

// Request returns the request of the current batch, if known.
func (o *Orchestrator) Request() (entity.BatchRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.req, o.hasReq
}

// Close interrupts the in-flight generator call and waits for the loop
// to exit. The interrupted job stays processing in the persisted
// snapshot and is picked up again by the next Resume.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.cancel()
	o.mu.Lock()
	r := o.run
	o.mu.Unlock()
	return r.wait(ctx)
}

func (o *Orchestrator) spawnLocked(ids []string, req entity.BatchRequest) *Handle {
	o.epoch++
	r := newRun(o.epoch)
	o.run = r
	go o.loop(r, o.snap.BatchID, ids, req.Params)
	return &Handle{BatchID: o.snap.BatchID, JobIDs: ids, done: r.done}
}

func (o *Orchestrator) loop(r *run, batchID string, ids []string, params entity.GenerationParams) {
	defer close(r.done)
	log := logger().With("batch_id", batchID)

	for _, id := range ids {
		job, ok, abort := o.begin(r, id)
		if abort {
			log.Infow("run loop stopped at job boundary", "next_job_id", id)
			return
		}
		if !ok {
			continue
		}
		o.sink.OnStart(id)

		start := time.Now()
		payload, err := o.generate(r, job, params)
		if o.base.Err() != nil {
			log.Warnw("run loop interrupted by shutdown", "job_id", id)
			return
		}

		if err != nil {
			msg := err.Error()
			if o.finish(r, batch.ItemFailed{ID: id, Message: msg}) {
				o.sink.OnError(id, msg)
			}
			log.Warnw("job finished",
				"job_id", id, "topic", job.Topic, "status", entity.StatusFailed,
				"duration_ms", time.Since(start).Milliseconds(), "error", msg,
			)
			continue
		}

		if o.finish(r, batch.ItemCompleted{ID: id, Result: payload}) {
			o.sink.OnComplete(id, payload)
		}
		log.Infow("job finished",
			"job_id", id, "topic", job.Topic, "status", entity.StatusCompleted,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != r.epoch || r.stopped() {
		return
	}
	// The loop was given a subset of the batch; whatever is left waits
	// for another Resume.
	if o.snap.IsRunning {
		_ = o.applyLocked(batch.Pause{})
	}
	log.Infow("run loop finished",
		"outcome", batch.Summarize(o.snap),
		"completed", o.snap.Progress.Completed,
		"failed", o.snap.Progress.Failed,
		"total", o.snap.Progress.Total,
	)
}

// begin marks the job processing. abort is true when the loop must exit:
// it was stopped or its batch was reset.
func (o *Orchestrator) begin(r *run, id string) (job entity.Job, ok, abort bool) {
	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != r.epoch || r.stopped() {
		return entity.Job{}, false, true
	}
	for _, j := range o.snap.Jobs {
		if j.ID == id {
			job, ok = j, true
			break
		}
	}
	if !ok || job.Status != entity.StatusPending {
		return entity.Job{}, false, false
	}
	if err := o.applyLocked(batch.ItemStarted{ID: id}); err != nil {
		logger().Errorw("start job", "job_id", id, "error", err)
		return entity.Job{}, false, false
	}
	return job, true, false
}

func (o *Orchestrator) generate(r *run, job entity.Job, params entity.GenerationParams) (payload json.RawMessage, err error) {
	ctx := o.base
	if o.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.jobTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("generator panic: %v", p)
		}
	}()
	return o.gen.Generate(ctx, job.Topic, params, func(pct int) {
		o.progress(r, job.ID, pct)
	})
}

func (o *Orchestrator) progress(r *run, id string, pct int) {
	o.mu.Lock()
	if o.epoch != r.epoch {
		o.mu.Unlock()
		return
	}
	processing := false
	for _, j := range o.snap.Jobs {
		if j.ID == id {
			processing = j.Status == entity.StatusProcessing
			break
		}
	}
	if !processing {
		o.mu.Unlock()
		return
	}
	err := o.applyLocked(batch.ItemProgress{ID: id, Percent: pct})
	o.mu.Unlock()
	o.flush()
	if err == nil {
		o.sink.OnProgress(id, pct)
	}
}

// finish applies a job result unless the batch was reset meanwhile.
func (o *Orchestrator) finish(r *run, a batch.Action) bool {
	defer o.flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != r.epoch {
		return false
	}
	if err := o.applyLocked(a); err != nil {
		logger().Errorw("apply job result", "action", batch.Name(a), "error", err)
		return false
	}
	return true
}

// applyLocked applies actions in order and queues one snapshot write.
// Nothing is committed if any action is rejected.
func (o *Orchestrator) applyLocked(actions ...batch.Action) error {
	next := o.snap
	for _, a := range actions {
		var err error
		if next, err = batch.Apply(next, a); err != nil {
			return err
		}
	}
	o.commitLocked(next)
	return nil
}

func (o *Orchestrator) commitLocked(next entity.BatchSnapshot) {
	o.snap = next
	if next.IsEmpty() {
		o.queue = append(o.queue, write{purge: true})
		return
	}
	o.queue = append(o.queue, write{snap: next})
}

func (o *Orchestrator) saveRequestLocked(req entity.BatchRequest) {
	o.queue = append(o.queue, write{req: &req})
}

// flush performs queued writes in commit order. Store I/O runs without
// mu, so readers of the snapshot never wait for a slow store. When flush
// returns, every write queued before the call has been attempted.
func (o *Orchestrator) flush() {
	o.wmu.Lock()
	defer o.wmu.Unlock()
	for {
		o.mu.Lock()
		pending := o.queue
		o.queue = nil
		o.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, w := range pending {
			o.persist(w)
		}
	}
}

// persist runs one write. LastPersistedAt of the live snapshot only moves
// when a snapshot write succeeds.
func (o *Orchestrator) persist(w write) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var op string
	var err error
	switch {
	case w.purge:
		op, err = "purge", o.store.Purge(ctx)
	case w.req != nil:
		op, err = "save_request", o.store.SaveRequest(ctx, *w.req)
	default:
		w.snap.LastPersistedAt = o.now().UTC()
		op, err = "save_snapshot", o.store.SaveSnapshot(ctx, w.snap)
		if err == nil {
			o.mu.Lock()
			if o.snap.BatchID == w.snap.BatchID {
				o.snap.LastPersistedAt = w.snap.LastPersistedAt
			}
			o.mu.Unlock()
		}
	}
	if err != nil {
		logger().Errorw("persist batch", "op", op, "batch_id", w.snap.BatchID, "error", err)
		if o.onPersistError != nil {
			o.onPersistError(err)
		}
	}
}

func normalizeRequest(req entity.BatchRequest, now func() time.Time) entity.BatchRequest {
	topics := make([]string, len(req.Topics))
	for i, t := range req.Topics {
		topics[i] = strings.TrimSpace(t)
	}
	req.Topics = topics
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now().UTC()
	}
	return req
}

func jobIDs(jobs []entity.Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}

// selectIDs returns the IDs of wanted in batch order; all IDs if wanted is empty.
func selectIDs(all []entity.Job, wanted []entity.Job) []string {
	if len(wanted) == 0 {
		return jobIDs(all)
	}
	set := make(map[string]struct{}, len(wanted))
	for _, j := range wanted {
		set[j.ID] = struct{}{}
	}
	ids := make([]string, 0, len(wanted))
	for _, j := range all {
		if _, ok := set[j.ID]; ok {
			ids = append(ids, j.ID)
		}
	}
	return ids
}
