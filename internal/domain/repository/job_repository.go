package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// JobRepository define el puerto de persistencia de la cola de tareas.
// Las filas solo las muta la cola vía claim/complete/fail; nunca se borran.
type JobRepository interface {
	Create(ctx context.Context, job *entity.JobQueueEntry) error
	GetByID(ctx context.Context, id string) (*entity.JobQueueEntry, error)
	// Claim toma atómicamente una tarea queued con available_at <= now y la
	// marca processing con locked_at/locked_by. Una sola operación
	// condicional: N workers concurrentes no pueden reclamar la misma fila.
	// nil sin error si no hay tareas elegibles.
	Claim(ctx context.Context, workerID string, now time.Time) (*entity.JobQueueEntry, error)
	// Update persiste estado, intentos, error y available_at.
	Update(ctx context.Context, job *entity.JobQueueEntry) error
	List(ctx context.Context, status entity.JobStatus, limit, offset int) ([]*entity.JobQueueEntry, error)
	// MarkOrphaned marca failed las tareas processing con locked_at anterior
	// a before (worker caído a mitad de proceso) sin tocar attempts.
	// Devuelve las tareas afectadas.
	MarkOrphaned(ctx context.Context, before time.Time, syntheticErr string) ([]*entity.JobQueueEntry, error)
	Health(ctx context.Context, now time.Time) (*entity.JobHealth, error)
}
