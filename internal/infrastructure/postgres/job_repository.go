package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// JobRepo implementación de la cola de tareas sobre PostgreSQL (usable con
// pool o tx).
type JobRepo struct {
	q Querier
}

// NewJobRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJobRepository(q Querier) *JobRepo {
	return &JobRepo{q: q}
}

const jobColumns = `id, type, status, payload, attempts, max_attempts,
	scheduled_at, available_at, locked_at, locked_by, error, created_at, updated_at`

// Create inserta la tarea.
func (r *JobRepo) Create(ctx context.Context, j *entity.JobQueueEntry) error {
	query := `
		INSERT INTO job_queue (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		j.ID, j.Type, string(j.Status), j.Payload, j.Attempts, j.MaxAttempts,
		j.ScheduledAt, j.AvailableAt, j.LockedAt, nullable(j.LockedBy), nullable(j.Error),
		j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID devuelve una tarea; nil si no existe.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*entity.JobQueueEntry, error) {
	return scanJob(r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_queue WHERE id = $1`, id))
}

// Claim toma atómicamente una tarea elegible: un solo UPDATE condicional
// con subconsulta FOR UPDATE SKIP LOCKED. N workers concurrentes no pueden
// reclamar la misma fila; nil sin error si no hay elegibles.
func (r *JobRepo) Claim(ctx context.Context, workerID string, now time.Time) (*entity.JobQueueEntry, error) {
	query := `
		UPDATE job_queue
		SET status = 'processing', locked_at = $2, locked_by = $3, updated_at = $2
		WHERE id = (
			SELECT id FROM job_queue
			WHERE status = 'queued' AND available_at <= $1
			ORDER BY available_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns
	job, err := scanJob(r.q.QueryRow(ctx, query, now, now, workerID))
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// Update persiste estado, intentos, error y disponibilidad.
func (r *JobRepo) Update(ctx context.Context, j *entity.JobQueueEntry) error {
	query := `
		UPDATE job_queue
		SET status = $2, attempts = $3, available_at = $4,
		    locked_at = $5, locked_by = $6, error = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		j.ID, string(j.Status), j.Attempts, j.AvailableAt,
		j.LockedAt, nullable(j.LockedBy), nullable(j.Error), j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista tareas, opcionalmente por estado, recientes primero.
func (r *JobRepo) List(ctx context.Context, status entity.JobStatus, limit, offset int) ([]*entity.JobQueueEntry, error) {
	query := `SELECT ` + jobColumns + ` FROM job_queue`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	var out []*entity.JobQueueEntry
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// MarkOrphaned marca failed las processing con arriendo anterior a before,
// sin tocar attempts, y devuelve las afectadas.
func (r *JobRepo) MarkOrphaned(ctx context.Context, before time.Time, syntheticErr string) ([]*entity.JobQueueEntry, error) {
	query := `
		UPDATE job_queue
		SET status = 'failed', error = $2, updated_at = now()
		WHERE status = 'processing' AND locked_at < $1
		RETURNING ` + jobColumns
	rows, err := r.q.Query(ctx, query, before, syntheticErr)
	if err != nil {
		return nil, fmt.Errorf("mark orphaned jobs: %w", err)
	}
	defer rows.Close()
	var out []*entity.JobQueueEntry
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Health devuelve conteos por estado y la edad de la queued más antigua.
func (r *JobRepo) Health(ctx context.Context, now time.Time) (*entity.JobHealth, error) {
	h := &entity.JobHealth{}
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM job_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job health counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan job health: %w", err)
		}
		switch entity.JobStatus(status) {
		case entity.JobQueued:
			h.Queued = n
		case entity.JobProcessing:
			h.Processing = n
		case entity.JobFailed:
			h.Failed = n
		case entity.JobCompleted:
			h.Completed = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest *time.Time
	err = r.q.QueryRow(ctx, `SELECT MIN(available_at) FROM job_queue WHERE status = 'queued'`).Scan(&oldest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("oldest queued job: %w", err)
	}
	if oldest != nil && oldest.Before(now) {
		h.OldestQueuedAge = now.Sub(*oldest)
	}
	return h, nil
}

func scanJob(row pgx.Row) (*entity.JobQueueEntry, error) {
	var j entity.JobQueueEntry
	var status string
	var lockedBy, jobErr *string
	err := row.Scan(
		&j.ID, &j.Type, &status, &j.Payload, &j.Attempts, &j.MaxAttempts,
		&j.ScheduledAt, &j.AvailableAt, &j.LockedAt, &lockedBy, &jobErr,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.Status = entity.JobStatus(status)
	j.LockedBy = fromNullable(lockedBy)
	j.Error = fromNullable(jobErr)
	return &j, nil
}
