package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// Queue cola genérica de tareas asíncronas con reclamo por arriendo
// (claim por update condicional), reintentos con backoff y recuperación de
// huérfanas. Sustituye deliberadamente a un broker de mensajes: un solo
// datastore, pocos workers.
type Queue struct {
	repo        repository.JobRepository
	backoffBase time.Duration
	log         *logger.Logger
}

// NewQueue construye la cola. backoffBase es la base del retraso
// exponencial entre reintentos.
func NewQueue(repo repository.JobRepository, backoffBase time.Duration, log *logger.Logger) *Queue {
	if backoffBase <= 0 {
		backoffBase = 30 * time.Second
	}
	return &Queue{repo: repo, backoffBase: backoffBase, log: log}
}

// EnqueueOptions opciones de encolado.
type EnqueueOptions struct {
	ScheduledAt *time.Time
	AvailableAt *time.Time
	MaxAttempts int
}

// Enqueue crea una tarea queued. Sin AvailableAt la tarea es elegible de
// inmediato.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload []byte, opts EnqueueOptions) (*entity.JobQueueEntry, error) {
	if jobType == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = entity.DefaultMaxAttempts
	}
	availableAt := now
	if opts.AvailableAt != nil {
		availableAt = *opts.AvailableAt
	} else if opts.ScheduledAt != nil {
		availableAt = *opts.ScheduledAt
	}

	job := &entity.JobQueueEntry{
		ID:          uuid.New().String(),
		Type:        jobType,
		Status:      entity.JobQueued,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		ScheduledAt: opts.ScheduledAt,
		AvailableAt: availableAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := q.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Claim toma atómicamente una tarea elegible para el worker; nil si no hay.
// El update condicional único es lo que permite a N workers sondear
// concurrentemente sin doble reclamo.
func (q *Queue) Claim(ctx context.Context, workerID string) (*entity.JobQueueEntry, error) {
	return q.repo.Claim(ctx, workerID, time.Now())
}

// Complete marca la tarea completed.
func (q *Queue) Complete(ctx context.Context, job *entity.JobQueueEntry) error {
	job.Status = entity.JobCompleted
	job.Error = ""
	job.UpdatedAt = time.Now()
	return q.repo.Update(ctx, job)
}

// Fail incrementa intentos. Bajo el máximo vuelve a queued con available_at
// retrasado por backoff; al llegar al máximo queda failed (terminal, solo
// Retry explícito la revive).
func (q *Queue) Fail(ctx context.Context, job *entity.JobQueueEntry, jobErr error) error {
	now := time.Now()
	job.Attempts++
	job.Error = jobErr.Error()
	job.UpdatedAt = now
	job.LockedAt = nil
	job.LockedBy = ""
	if job.Attempts < job.MaxAttempts {
		job.Status = entity.JobQueued
		job.AvailableAt = now.Add(entity.BackoffDelay(q.backoffBase, job.Attempts))
	} else {
		job.Status = entity.JobFailed
	}
	return q.repo.Update(ctx, job)
}

// Retry reencola explícitamente una tarea failed, reseteando intentos.
func (q *Queue) Retry(ctx context.Context, id string) (*entity.JobQueueEntry, error) {
	job, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrNotFound
	}
	if job.Status != entity.JobFailed {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	job.Status = entity.JobQueued
	job.Attempts = 0
	job.Error = ""
	job.AvailableAt = now
	job.UpdatedAt = now
	if err := q.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// SweepOrphans marca failed las tareas processing con arriendo vencido
// (worker caído a mitad de proceso), sin tocar attempts: quedan visibles
// para intervención manual en vez de atascadas para siempre.
func (q *Queue) SweepOrphans(ctx context.Context, timeout time.Duration) ([]*entity.JobQueueEntry, error) {
	before := time.Now().Add(-timeout)
	orphans, err := q.repo.MarkOrphaned(ctx, before, "huérfana: arriendo vencido sin completar")
	if err != nil {
		return nil, err
	}
	for _, j := range orphans {
		q.log.Warn().Str("job_id", j.ID).Str("type", j.Type).Msg("tarea huérfana marcada failed")
	}
	return orphans, nil
}

// GetByID devuelve una tarea.
func (q *Queue) GetByID(ctx context.Context, id string) (*entity.JobQueueEntry, error) {
	job, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

// List lista tareas, opcionalmente por estado.
func (q *Queue) List(ctx context.Context, status entity.JobStatus, limit, offset int) ([]*entity.JobQueueEntry, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return q.repo.List(ctx, status, limit, offset)
}

// Health devuelve conteos por estado y la edad de la queued más antigua.
func (q *Queue) Health(ctx context.Context) (*entity.JobHealth, error) {
	return q.repo.Health(ctx, time.Now())
}
