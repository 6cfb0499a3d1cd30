package memory

import (
	"context"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// CycleCountRepo implementa repository.CycleCountRepository en memoria.
type CycleCountRepo struct {
	store *Store
	inTx  bool
}

var _ repository.CycleCountRepository = (*CycleCountRepo)(nil)

// NewCycleCountRepo crea el repositorio de conteos atado al almacén.
func NewCycleCountRepo(store *Store) *CycleCountRepo {
	return &CycleCountRepo{store: store}
}

func cloneCount(c *entity.CycleCount, items []entity.CycleCountItem) *entity.CycleCount {
	out := *c
	out.Items = append([]entity.CycleCountItem(nil), items...)
	return &out
}

func (r *CycleCountRepo) Create(ctx context.Context, c *entity.CycleCount) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	head := *c
	head.Items = nil
	r.store.counts[c.ID] = &head
	r.store.countOrder = append(r.store.countOrder, c.ID)
	return nil
}

func (r *CycleCountRepo) GetByID(ctx context.Context, id string) (*entity.CycleCount, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	c, ok := r.store.counts[id]
	if !ok {
		return nil, nil
	}
	return cloneCount(c, r.store.countItems[id]), nil
}

func (r *CycleCountRepo) GetForUpdate(ctx context.Context, id string) (*entity.CycleCount, error) {
	return r.GetByID(ctx, id)
}

func (r *CycleCountRepo) UpdateStatus(ctx context.Context, c *entity.CycleCount) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	if _, ok := r.store.counts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	head := *c
	head.Items = nil
	r.store.counts[c.ID] = &head
	return nil
}

func (r *CycleCountRepo) CreateItems(ctx context.Context, countID string, items []entity.CycleCountItem) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	if _, ok := r.store.counts[countID]; !ok {
		return domain.ErrNotFound
	}
	r.store.countItems[countID] = append(r.store.countItems[countID], items...)
	return nil
}

func (r *CycleCountRepo) GetItem(ctx context.Context, countID, itemID string) (*entity.CycleCountItem, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	for _, it := range r.store.countItems[countID] {
		if it.ID == itemID {
			c := it
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CycleCountRepo) UpdateItem(ctx context.Context, item *entity.CycleCountItem) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	items := r.store.countItems[item.CycleCountID]
	for i, it := range items {
		if it.ID == item.ID {
			updated := append([]entity.CycleCountItem(nil), items...)
			// expected_qty es un snapshot: la actualización no lo toca.
			updated[i].CountedQty = item.CountedQty
			updated[i].CountedBy = item.CountedBy
			updated[i].Reason = item.Reason
			r.store.countItems[item.CycleCountID] = updated
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *CycleCountRepo) List(ctx context.Context, branchID string, status entity.CycleCountStatus, limit, offset int) ([]*entity.CycleCount, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var matched []*entity.CycleCount
	for i := len(r.store.countOrder) - 1; i >= 0; i-- {
		c := r.store.counts[r.store.countOrder[i]]
		if branchID != "" && c.BranchID != branchID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		head := *c
		matched = append(matched, &head)
	}
	return paginate(matched, limit, offset), nil
}
