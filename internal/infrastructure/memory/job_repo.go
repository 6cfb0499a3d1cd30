package memory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// JobRepo implementa repository.JobRepository en memoria. Claim es atómico
// bajo el mutex del almacén: N goroutines concurrentes reclaman cada tarea
// exactamente una vez.
type JobRepo struct {
	store *Store
}

var _ repository.JobRepository = (*JobRepo)(nil)

// NewJobRepo crea el repositorio de la cola atado al almacén.
func NewJobRepo(store *Store) *JobRepo {
	return &JobRepo{store: store}
}

func cloneJob(j *entity.JobQueueEntry) *entity.JobQueueEntry {
	c := *j
	c.Payload = append([]byte(nil), j.Payload...)
	return &c
}

func (r *JobRepo) Create(ctx context.Context, job *entity.JobQueueEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.jobs[job.ID] = cloneJob(job)
	r.store.jobOrder = append(r.store.jobOrder, job.ID)
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id string) (*entity.JobQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	j, ok := r.store.jobs[id]
	if !ok {
		return nil, nil
	}
	return cloneJob(j), nil
}

func (r *JobRepo) Claim(ctx context.Context, workerID string, now time.Time) (*entity.JobQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var best *entity.JobQueueEntry
	for _, j := range r.store.jobs {
		if j.Status != entity.JobQueued || j.AvailableAt.After(now) {
			continue
		}
		if best == nil || j.AvailableAt.Before(best.AvailableAt) {
			best = j
		}
	}
	if best == nil {
		return nil, nil
	}
	claimed := cloneJob(best)
	claimed.Status = entity.JobProcessing
	lockedAt := now
	claimed.LockedAt = &lockedAt
	claimed.LockedBy = workerID
	claimed.UpdatedAt = now
	r.store.jobs[claimed.ID] = cloneJob(claimed)
	return claimed, nil
}

func (r *JobRepo) Update(ctx context.Context, job *entity.JobQueueEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *JobRepo) List(ctx context.Context, status entity.JobStatus, limit, offset int) ([]*entity.JobQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*entity.JobQueueEntry
	for i := len(r.store.jobOrder) - 1; i >= 0; i-- {
		j := r.store.jobs[r.store.jobOrder[i]]
		if status != "" && j.Status != status {
			continue
		}
		matched = append(matched, cloneJob(j))
	}
	return paginate(matched, limit, offset), nil
}

func (r *JobRepo) MarkOrphaned(ctx context.Context, before time.Time, syntheticErr string) ([]*entity.JobQueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.JobQueueEntry
	for _, id := range r.store.jobOrder {
		j := r.store.jobs[id]
		if j.Status != entity.JobProcessing || j.LockedAt == nil || !j.LockedAt.Before(before) {
			continue
		}
		// attempts queda intacto: la tarea no falló, el worker desapareció.
		orphan := cloneJob(j)
		orphan.Status = entity.JobFailed
		orphan.Error = syntheticErr
		orphan.UpdatedAt = time.Now()
		r.store.jobs[id] = cloneJob(orphan)
		out = append(out, orphan)
	}
	return out, nil
}

func (r *JobRepo) Health(ctx context.Context, now time.Time) (*entity.JobHealth, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	h := &entity.JobHealth{}
	var oldest *time.Time
	for _, j := range r.store.jobs {
		switch j.Status {
		case entity.JobQueued:
			h.Queued++
			if oldest == nil || j.AvailableAt.Before(*oldest) {
				t := j.AvailableAt
				oldest = &t
			}
		case entity.JobProcessing:
			h.Processing++
		case entity.JobFailed:
			h.Failed++
		case entity.JobCompleted:
			h.Completed++
		}
	}
	if oldest != nil && oldest.Before(now) {
		h.OldestQueuedAge = now.Sub(*oldest)
	}
	return h, nil
}
