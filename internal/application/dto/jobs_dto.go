package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// EnqueueJobRequest body para POST /api/jobs.
type EnqueueJobRequest struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	MaxAttempts int             `json:"max_attempts,omitempty"`
}

// JobResponse tarea de la cola en respuestas.
type JobResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	AvailableAt time.Time       `json:"available_at"`
	LockedAt    *time.Time      `json:"locked_at,omitempty"`
	LockedBy    string          `json:"locked_by,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FromJob mapea la entidad a su DTO.
func FromJob(j *entity.JobQueueEntry) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Type:        j.Type,
		Status:      string(j.Status),
		Payload:     json.RawMessage(j.Payload),
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		ScheduledAt: j.ScheduledAt,
		AvailableAt: j.AvailableAt,
		LockedAt:    j.LockedAt,
		LockedBy:    j.LockedBy,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// JobHealthResponse resumen operativo de la cola.
type JobHealthResponse struct {
	Queued              int    `json:"queued"`
	Processing          int    `json:"processing"`
	Failed              int    `json:"failed"`
	Completed           int    `json:"completed"`
	OldestQueuedSeconds float64 `json:"oldest_queued_seconds"`
}

// FromJobHealth mapea el resumen de salud.
func FromJobHealth(h *entity.JobHealth) JobHealthResponse {
	return JobHealthResponse{
		Queued:              h.Queued,
		Processing:          h.Processing,
		Failed:              h.Failed,
		Completed:           h.Completed,
		OldestQueuedSeconds: h.OldestQueuedAge.Seconds(),
	}
}
