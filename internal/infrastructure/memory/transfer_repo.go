package memory

import (
	"context"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// TransferRepo implementa repository.TransferRepository en memoria.
type TransferRepo struct {
	store *Store
	inTx  bool
}

var _ repository.TransferRepository = (*TransferRepo)(nil)

// NewTransferRepo crea el repositorio de traslados atado al almacén.
func NewTransferRepo(store *Store) *TransferRepo {
	return &TransferRepo{store: store}
}

func cloneTransfer(t *entity.StockTransfer) *entity.StockTransfer {
	c := *t
	return &c
}

func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	if _, ok := r.store.transferKeys[t.IdempotencyKey]; ok {
		return domain.ErrDuplicate
	}
	r.store.transferKeys[t.IdempotencyKey] = t.ID
	r.store.transfers[t.ID] = cloneTransfer(t)
	r.store.transferOrder = append(r.store.transferOrder, t.ID)
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	t, ok := r.store.transfers[id]
	if !ok {
		return nil, nil
	}
	return cloneTransfer(t), nil
}

func (r *TransferRepo) GetByKey(ctx context.Context, idempotencyKey string) (*entity.StockTransfer, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	id, ok := r.store.transferKeys[idempotencyKey]
	if !ok {
		return nil, nil
	}
	return cloneTransfer(r.store.transfers[id]), nil
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	if _, ok := r.store.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *TransferRepo) List(ctx context.Context, status entity.TransferStatus, limit, offset int) ([]*entity.StockTransfer, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var matched []*entity.StockTransfer
	for i := len(r.store.transferOrder) - 1; i >= 0; i-- {
		t := r.store.transfers[r.store.transferOrder[i]]
		if status != "" && t.Status != status {
			continue
		}
		matched = append(matched, cloneTransfer(t))
	}
	return paginate(matched, limit, offset), nil
}
