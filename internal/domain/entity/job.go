package entity

import "time"

// JobStatus estado de una tarea en la cola.
type JobStatus string

// Estados de una tarea. failed es terminal: solo un retry explícito la
// devuelve a queued.
const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobFailed     JobStatus = "failed"
	JobCompleted  JobStatus = "completed"
)

// Tipos de tarea que el worker sabe procesar.
const (
	JobTypeReconcileProduct = "reconcile_product"
	JobTypeReconcileAll     = "reconcile_all"
	JobTypeLowStockScan     = "low_stock_scan"
)

// DefaultMaxAttempts intentos por defecto antes de marcar una tarea failed.
const DefaultMaxAttempts = 5

// JobQueueEntry es una tarea asíncrona persistida. Las filas nunca se
// borran: las tareas failed quedan para auditoría y reintento manual.
// Un worker solo tiene un arriendo (lease) acotado en el tiempo sobre la
// tarea, nunca propiedad permanente; el barrido de huérfanas lo revoca.
type JobQueueEntry struct {
	ID          string
	Type        string
	Status      JobStatus
	Payload     []byte // JSON opaco para la cola
	Attempts    int
	MaxAttempts int
	ScheduledAt *time.Time
	AvailableAt time.Time
	LockedAt    *time.Time
	LockedBy    string
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BackoffDelay calcula el retraso exponencial para el próximo intento:
// base · 2^(attempts-1), con tope de una hora.
func BackoffDelay(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= time.Hour {
			return time.Hour
		}
	}
	if d > time.Hour {
		return time.Hour
	}
	return d
}

// JobHealth resumen operativo de la cola: conteos por estado y edad de la
// tarea queued más antigua.
type JobHealth struct {
	Queued          int
	Processing      int
	Failed          int
	Completed       int
	OldestQueuedAge time.Duration
}
