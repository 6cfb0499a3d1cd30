package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventory/internal/application/jobs"
	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

func newQueue(t *testing.T, backoffBase time.Duration) (*jobs.Queue, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return jobs.NewQueue(memory.NewJobRepo(store), backoffBase, logger.Nop()), store
}

func enqueue(t *testing.T, q *jobs.Queue, jobType string) *entity.JobQueueEntry {
	t.Helper()
	job, err := q.Enqueue(context.Background(), jobType, []byte(`{}`), jobs.EnqueueOptions{})
	require.NoError(t, err)
	return job
}

func TestQueue_EncolarYReclamar(t *testing.T) {
	q, _ := newQueue(t, time.Second)
	ctx := context.Background()

	job := enqueue(t, q, "reconcile_product")
	assert.Equal(t, entity.JobQueued, job.Status)
	assert.Equal(t, entity.DefaultMaxAttempts, job.MaxAttempts)

	claimed, err := q.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, entity.JobProcessing, claimed.Status)
	assert.Equal(t, "worker-1", claimed.LockedBy)
	require.NotNil(t, claimed.LockedAt)

	// Con la cola vacía no hay nada que reclamar.
	again, err := q.Claim(ctx, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, again)
}

// Dos workers nunca reclaman la misma tarea.
func TestQueue_ReclamoConcurrenteExactamenteUnaVez(t *testing.T) {
	q, _ := newQueue(t, time.Second)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		enqueue(t, q, "reconcile_product")
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < n*2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := q.Claim(ctx, "worker")
			require.NoError(t, err)
			if job == nil {
				return
			}
			mu.Lock()
			seen[job.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "tarea %s reclamada más de una vez", id)
	}
}

// Fail bajo el máximo devuelve la tarea a queued con backoff exponencial.
func TestQueue_FalloReencolaConBackoff(t *testing.T) {
	q, _ := newQueue(t, 30*time.Second)
	ctx := context.Background()

	enqueue(t, q, "reconcile_product")
	job, err := q.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, job)

	before := time.Now()
	require.NoError(t, q.Fail(ctx, job, errors.New("deadline excedido")))
	assert.Equal(t, entity.JobQueued, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "deadline excedido", job.Error)
	assert.Nil(t, job.LockedAt)
	assert.Empty(t, job.LockedBy)

	delay := job.AvailableAt.Sub(before)
	assert.GreaterOrEqual(t, delay, 29*time.Second, "primer reintento a base segundos")
	assert.LessOrEqual(t, delay, 31*time.Second)

	// No vuelve a ser reclamable hasta que venza el backoff.
	again, err := q.Claim(ctx, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, again)
}

// Al agotar los intentos la tarea queda failed, terminal salvo Retry.
func TestQueue_AgotaIntentosYQuedaFailed(t *testing.T) {
	q, _ := newQueue(t, time.Nanosecond)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "reconcile_product", []byte(`{}`), jobs.EnqueueOptions{MaxAttempts: 2})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		claimed, err := q.Claim(ctx, "worker-1")
		require.NoError(t, err)
		require.NotNil(t, claimed, "intento %d", i+1)
		require.NoError(t, q.Fail(ctx, claimed, errors.New("sigue fallando")))
		job = claimed
	}

	assert.Equal(t, entity.JobFailed, job.Status)
	assert.Equal(t, 2, job.Attempts)

	claimed, err := q.Claim(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, claimed, "failed no es reclamable")

	// Retry la revive desde cero.
	job, err = q.Retry(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobQueued, job.Status)
	assert.Zero(t, job.Attempts)
	assert.Empty(t, job.Error)
}

func TestQueue_RetrySoloDesdeFailed(t *testing.T) {
	q, _ := newQueue(t, time.Second)
	ctx := context.Background()

	job := enqueue(t, q, "reconcile_product")
	_, err := q.Retry(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = q.Retry(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// El barrido marca failed los arriendos vencidos sin tocar attempts: la
// tarea no falló, el worker desapareció.
func TestQueue_BarridoDeHuerfanas(t *testing.T) {
	q, store := newQueue(t, time.Second)
	ctx := context.Background()

	enqueue(t, q, "reconcile_product")
	job, err := q.Claim(ctx, "worker-muerto")
	require.NoError(t, err)
	require.NotNil(t, job)

	// Envejecer el arriendo a mano para simular el worker caído.
	stale := time.Now().Add(-10 * time.Minute)
	job.LockedAt = &stale
	require.NoError(t, memory.NewJobRepo(store).Update(ctx, job))

	orphans, err := q.SweepOrphans(ctx, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, entity.JobFailed, orphans[0].Status)
	assert.Equal(t, "huérfana: arriendo vencido sin completar", orphans[0].Error)
	assert.Zero(t, orphans[0].Attempts)

	// Segundo barrido sin arriendos vencidos no marca nada.
	orphans, err = q.SweepOrphans(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestQueue_Health(t *testing.T) {
	q, _ := newQueue(t, time.Second)
	ctx := context.Background()

	enqueue(t, q, "reconcile_product")
	enqueue(t, q, "reconcile_all")
	job, err := q.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, job))
	job, err = q.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, job)

	enqueue(t, q, "reconcile_product")
	h, err := q.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Queued)
	assert.Equal(t, 1, h.Processing)
	assert.Equal(t, 1, h.Completed)
	assert.Zero(t, h.Failed)
	assert.GreaterOrEqual(t, h.OldestQueuedAge, time.Duration(0))
}

func TestQueue_Validaciones(t *testing.T) {
	q, _ := newQueue(t, time.Second)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "", []byte(`{}`), jobs.EnqueueOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Encolar para el futuro difiere la disponibilidad.
	future := time.Now().Add(time.Hour)
	job, err := q.Enqueue(ctx, "reconcile_product", []byte(`{}`), jobs.EnqueueOptions{AvailableAt: &future})
	require.NoError(t, err)
	assert.Equal(t, entity.JobQueued, job.Status)

	claimed, err := q.Claim(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, claimed, "la tarea diferida aún no está disponible")
}
