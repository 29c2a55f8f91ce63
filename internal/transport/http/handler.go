package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"article-batch-service/internal/batch"
	"article-batch-service/internal/entity"
	"article-batch-service/internal/service"
)

const heartbeatInterval = 15 * time.Second

type Handler struct {
	batchSvc *service.BatchService
	events   *Broadcaster
}

func NewHandler(batchSvc *service.BatchService, events *Broadcaster) *Handler {
	return &Handler{batchSvc: batchSvc, events: events}
}

type startBatchDTO struct {
	Topics []string                `json:"topics"`
	Count  int                     `json:"count"`
	Params entity.GenerationParams `json:"params"`
}

type jobResp struct {
	ID         string           `json:"id"`
	Topic      string           `json:"topic"`
	Index      int              `json:"index"`
	Status     entity.JobStatus `json:"status"`
	Progress   int              `json:"progress"`
	RetryCount int              `json:"retryCount"`
	Error      *string          `json:"error,omitempty"`
}

type batchResp struct {
	BatchID         string                   `json:"batchId,omitempty"`
	Outcome         batch.Outcome            `json:"outcome"`
	IsRunning       bool                     `json:"isRunning"`
	Progress        entity.BatchProgress     `json:"progress"`
	Counts          map[entity.JobStatus]int `json:"counts"`
	CreatedAt       string                   `json:"createdAt,omitempty"`
	LastPersistedAt string                   `json:"lastPersistedAt,omitempty"`
	Request         *entity.BatchRequest     `json:"request,omitempty"`
	Jobs            []jobResp                `json:"jobs"`
}

func toBatchResp(v service.BatchView) batchResp {
	s := v.Snapshot
	resp := batchResp{
		BatchID:   s.BatchID,
		Outcome:   v.Outcome,
		IsRunning: s.IsRunning,
		Progress:  s.Progress,
		Counts:    v.Counts,
		Request:   v.Request,
		Jobs:      make([]jobResp, 0, len(s.Jobs)),
	}
	if !s.CreatedAt.IsZero() {
		resp.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	if !s.LastPersistedAt.IsZero() {
		resp.LastPersistedAt = s.LastPersistedAt.Format(time.RFC3339)
	}
	for _, j := range s.Jobs {
		resp.Jobs = append(resp.Jobs, jobResp{
			ID:         j.ID,
			Topic:      j.Topic,
			Index:      j.Index,
			Status:     j.Status,
			Progress:   j.Progress,
			RetryCount: j.RetryCount,
			Error:      j.Error,
		})
	}
	return resp
}

// Health godoc
// @Summary Liveness check
// @Tags system
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// StartBatch godoc
// @Summary Start a batch
// @Description Materializes topics × count jobs and starts generating them one at a time.
// @Tags batches
// @Accept json
// @Produce json
// @Param request body startBatchDTO true "batch request"
// @Success 202 {object} batchResp
// @Failure 400 {object} apiError
// @Failure 409 {object} apiError
// @Router /batches [post]
func (h *Handler) StartBatch(w http.ResponseWriter, r *http.Request) {
	var dto startBatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := h.batchSvc.StartBatch(r.Context(), service.StartBatchRequest{
		Topics: dto.Topics,
		Count:  dto.Count,
		Params: dto.Params,
	}); err != nil {
		writeServiceErr(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toBatchResp(h.batchSvc.Current()))
}

// GetCurrent godoc
// @Summary Get the current batch
// @Tags batches
// @Produce json
// @Success 200 {object} batchResp
// @Router /batches/current [get]
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toBatchResp(h.batchSvc.Current()))
}

// Pause godoc
// @Summary Pause the current batch
// @Description The job in flight finishes; no further job is started.
// @Tags batches
// @Produce json
// @Success 200 {object} batchResp
// @Failure 409 {object} apiError
// @Router /batches/current/pause [post]
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.batchSvc.Pause)
}

// Cancel godoc
// @Summary Cancel the current batch
// @Description Stops at the next job boundary and moves processing jobs back to pending.
// @Tags batches
// @Produce json
// @Success 200 {object} batchResp
// @Failure 409 {object} apiError
// @Router /batches/current/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.batchSvc.Cancel)
}

// RetryFailed godoc
// @Summary Move failed jobs back to pending
// @Description Only allowed while the batch is not active. Follow with resume.
// @Tags batches
// @Produce json
// @Success 200 {object} batchResp
// @Failure 409 {object} apiError
// @Router /batches/current/retry-failed [post]
func (h *Handler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.batchSvc.RetryFailed)
}

// Resume godoc
// @Summary Resume the current batch
// @Description Continues pending and interrupted jobs with the stored generation parameters. Failed jobs stay failed.
// @Tags batches
// @Produce json
// @Success 202 {object} batchResp
// @Failure 409 {object} apiError
// @Router /batches/current/resume [post]
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	if _, err := h.batchSvc.ResumeCurrent(r.Context()); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toBatchResp(h.batchSvc.Current()))
}

// Reset godoc
// @Summary Discard the current batch
// @Description Stops the batch and removes its persisted records. Results still in flight are dropped.
// @Tags batches
// @Success 204
// @Router /batches/current [delete]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.batchSvc.Reset(); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetJobResult godoc
// @Summary Get the generated article of a job
// @Tags batches
// @Produce json
// @Param id path string true "job id (uuid)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /batches/current/jobs/{id}/result [get]
func (h *Handler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	for _, j := range h.batchSvc.Current().Snapshot.Jobs {
		if j.ID != id.String() {
			continue
		}
		if j.Status != entity.StatusCompleted {
			writeErr(w, http.StatusConflict, "job not completed")
			return
		}
		// отдаем raw json без лишнего \n
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(j.Result)
		return
	}
	writeErr(w, http.StatusNotFound, "job not found")
}

// Events godoc
// @Summary Stream run loop events
// @Description Server-sent events. The first event is the current batch, then one event per job transition.
// @Tags batches
// @Produce text/event-stream
// @Success 200
// @Router /batches/current/events [get]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "batch", toBatchResp(h.batchSvc.Current())); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case e := <-events:
			if err := writeEvent(w, e.Type, e); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func (h *Handler) control(w http.ResponseWriter, op func() error) {
	if err := op(); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchResp(h.batchSvc.Current()))
}
