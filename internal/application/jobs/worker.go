package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// HandlerFunc procesa el payload de una tarea. Un error marca el intento
// como fallido (la cola decide reintento o terminal).
type HandlerFunc func(ctx context.Context, payload []byte) error

// Worker sondea la cola con un ticker y despacha a handlers registrados por
// tipo. Sin cancelación a mitad de vuelo: una tarea reclamada se completa o
// falla; el barrido de huérfanas es el único mecanismo de rescate.
type Worker struct {
	id           string
	queue        *Queue
	handlers     map[string]HandlerFunc
	pollInterval time.Duration
	sweepEvery   time.Duration
	orphanAfter  time.Duration
	log          *logger.Logger
}

// WorkerConfig parámetros del worker.
type WorkerConfig struct {
	PollInterval  time.Duration // entre sondeos sin trabajo
	SweepInterval time.Duration // entre barridos de huérfanas
	OrphanTimeout time.Duration // edad del arriendo para considerar huérfana
}

// NewWorker construye un worker con id propio (visible en locked_by).
func NewWorker(queue *Queue, cfg WorkerConfig, log *logger.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.OrphanTimeout <= 0 {
		cfg.OrphanTimeout = time.Hour
	}
	return &Worker{
		id:           "worker-" + uuid.New().String()[:8],
		queue:        queue,
		handlers:     make(map[string]HandlerFunc),
		pollInterval: cfg.PollInterval,
		sweepEvery:   cfg.SweepInterval,
		orphanAfter:  cfg.OrphanTimeout,
		log:          log,
	}
}

// Register asocia un handler a un tipo de tarea.
func (w *Worker) Register(jobType string, h HandlerFunc) {
	w.handlers[jobType] = h
}

// Run sondea hasta que el contexto se cancele. Mientras haya trabajo
// encadena reclamos sin esperar el ticker.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Str("worker_id", w.id).Msg("worker iniciado")
	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(w.sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Str("worker_id", w.id).Msg("worker detenido")
			return
		case <-sweep.C:
			if _, err := w.queue.SweepOrphans(ctx, w.orphanAfter); err != nil {
				w.log.Error().Err(err).Msg("barrido de huérfanas")
			}
		case <-poll.C:
			for w.processOne(ctx) {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// processOne reclama y procesa una tarea; false si la cola estaba vacía.
func (w *Worker) processOne(ctx context.Context) bool {
	job, err := w.queue.Claim(ctx, w.id)
	if err != nil {
		w.log.Error().Err(err).Msg("claim de tarea")
		return false
	}
	if job == nil {
		return false
	}

	h, ok := w.handlers[job.Type]
	if !ok {
		_ = w.queue.Fail(ctx, job, fmt.Errorf("sin handler para el tipo %q", job.Type))
		return true
	}

	start := time.Now()
	if err := h(ctx, job.Payload); err != nil {
		w.log.Warn().Err(err).Str("job_id", job.ID).Str("type", job.Type).Msg("tarea falló")
		if ferr := w.queue.Fail(ctx, job, err); ferr != nil {
			w.log.Error().Err(ferr).Str("job_id", job.ID).Msg("marcar tarea fallida")
		}
		return true
	}
	if err := w.queue.Complete(ctx, job); err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID).Msg("marcar tarea completada")
		return true
	}
	w.log.Info().
		Str("job_id", job.ID).
		Str("type", job.Type).
		Dur("took", time.Since(start)).
		Msg("tarea completada")
	return true
}
