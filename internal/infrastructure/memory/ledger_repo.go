package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// LedgerRepo implementa repository.LedgerRepository en memoria.
type LedgerRepo struct {
	store *Store
	inTx  bool
}

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// NewLedgerRepo crea el repositorio del libro atado al almacén.
func NewLedgerRepo(store *Store) *LedgerRepo {
	return &LedgerRepo{store: store}
}

func cloneEntry(e *entity.LedgerEntry) *entity.LedgerEntry {
	c := *e
	return &c
}

func (r *LedgerRepo) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	if entry.IdempotencyKey != "" {
		k := ledgerKey(entry.Type, entry.IdempotencyKey)
		if _, ok := r.store.ledgerKeys[k]; ok {
			return domain.ErrDuplicate
		}
		r.store.ledgerKeys[k] = entry.ID
	}
	r.store.ledger[entry.ID] = cloneEntry(entry)
	r.store.ledgerOrder = append(r.store.ledgerOrder, entry.ID)
	return nil
}

func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	e, ok := r.store.ledger[id]
	if !ok {
		return nil, nil
	}
	return cloneEntry(e), nil
}

func (r *LedgerRepo) GetByTypeAndKey(ctx context.Context, movType entity.MovementType, key string) (*entity.LedgerEntry, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	id, ok := r.store.ledgerKeys[ledgerKey(movType, key)]
	if !ok {
		return nil, nil
	}
	return cloneEntry(r.store.ledger[id]), nil
}

func (r *LedgerRepo) SumForKey(ctx context.Context, productID, branchID string) (decimal.Decimal, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	sum := decimal.Zero
	for _, e := range r.store.ledger {
		if e.ProductID == productID && e.BranchID == branchID {
			sum = sum.Add(e.QuantityChange)
		}
	}
	return sum, nil
}

func (r *LedgerRepo) SumForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	sum := decimal.Zero
	for _, e := range r.store.ledger {
		if e.ProductID == productID {
			sum = sum.Add(e.QuantityChange)
		}
	}
	return sum, nil
}

// ListByProduct devuelve las entradas más recientes primero, como el adaptador
// de postgres.
func (r *LedgerRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.LedgerEntry, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var matched []*entity.LedgerEntry
	for i := len(r.store.ledgerOrder) - 1; i >= 0; i-- {
		e := r.store.ledger[r.store.ledgerOrder[i]]
		if e.ProductID == productID {
			matched = append(matched, cloneEntry(e))
		}
	}
	return paginate(matched, limit, offset), nil
}

func (r *LedgerRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	n := 0
	for _, e := range r.store.ledger {
		if e.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (r *LedgerRepo) ListByReference(ctx context.Context, refType, refID string) ([]*entity.LedgerEntry, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var out []*entity.LedgerEntry
	for _, id := range r.store.ledgerOrder {
		e := r.store.ledger[id]
		if e.ReferenceType == refType && e.ReferenceID == refID {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
