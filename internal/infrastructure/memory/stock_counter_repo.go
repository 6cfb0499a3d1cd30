package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// StockCounterRepo implementa repository.StockCounterRepository en memoria.
type StockCounterRepo struct {
	store *Store
	inTx  bool
}

var _ repository.StockCounterRepository = (*StockCounterRepo)(nil)

// NewStockCounterRepo crea el repositorio de contadores atado al almacén.
func NewStockCounterRepo(store *Store) *StockCounterRepo {
	return &StockCounterRepo{store: store}
}

func cloneCounter(c *entity.StockCounter) *entity.StockCounter {
	out := *c
	return &out
}

func (r *StockCounterRepo) getLocked(productID, branchID string) *entity.StockCounter {
	if c, ok := r.store.counters[counterKey(productID, branchID)]; ok {
		return cloneCounter(c)
	}
	return &entity.StockCounter{
		ProductID: productID,
		BranchID:  branchID,
		Quantity:  decimal.Zero,
	}
}

func (r *StockCounterRepo) Get(ctx context.Context, productID, branchID string) (*entity.StockCounter, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()
	return r.getLocked(productID, branchID), nil
}

// GetForUpdate es equivalente a Get: el mutex de la transacción ya
// serializa todo acceso.
func (r *StockCounterRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockCounter, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()
	return r.getLocked(productID, branchID), nil
}

func (r *StockCounterRepo) Upsert(ctx context.Context, counter *entity.StockCounter) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	r.store.counters[counterKey(counter.ProductID, counter.BranchID)] = cloneCounter(counter)
	return nil
}

func (r *StockCounterRepo) ListKeys(ctx context.Context) ([]*entity.StockCounter, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	out := make([]*entity.StockCounter, 0, len(r.store.counters))
	for _, c := range r.store.counters {
		out = append(out, cloneCounter(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].BranchID < out[j].BranchID
	})
	return out, nil
}

func (r *StockCounterRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockCounter, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var out []*entity.StockCounter
	for _, c := range r.store.counters {
		if c.ProductID == productID {
			out = append(out, cloneCounter(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchID < out[j].BranchID })
	return out, nil
}

func (r *StockCounterRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.StockCounter, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var out []*entity.StockCounter
	for _, c := range r.store.counters {
		if c.BranchID == branchID {
			out = append(out, cloneCounter(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *StockCounterRepo) ListAtOrBelowMin(ctx context.Context) ([]*entity.StockAlert, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var out []*entity.StockAlert
	for _, c := range r.store.counters {
		p, ok := r.store.products[c.ProductID]
		if !ok || c.Quantity.GreaterThan(p.MinStock) {
			continue
		}
		out = append(out, &entity.StockAlert{
			ProductID: c.ProductID,
			SKU:       p.SKU,
			Name:      p.Name,
			BranchID:  c.BranchID,
			Quantity:  c.Quantity,
			MinStock:  p.MinStock,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity.LessThan(out[j].Quantity) })
	return out, nil
}

// DiscrepancyRepo implementa repository.DiscrepancyRepository en memoria.
type DiscrepancyRepo struct {
	store *Store
	inTx  bool
}

var _ repository.DiscrepancyRepository = (*DiscrepancyRepo)(nil)

// NewDiscrepancyRepo crea el repositorio de discrepancias atado al almacén.
func NewDiscrepancyRepo(store *Store) *DiscrepancyRepo {
	return &DiscrepancyRepo{store: store}
}

func (r *DiscrepancyRepo) Create(ctx context.Context, d *entity.StockDiscrepancy) error {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	c := *d
	r.store.discrepancies[d.ID] = &c
	r.store.discOrder = append(r.store.discOrder, d.ID)
	return nil
}

func (r *DiscrepancyRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockDiscrepancy, error) {
	unlock := r.store.lock(r.inTx)
	defer unlock()

	var matched []*entity.StockDiscrepancy
	for i := len(r.store.discOrder) - 1; i >= 0; i-- {
		d := r.store.discrepancies[r.store.discOrder[i]]
		if d.ProductID == productID {
			c := *d
			matched = append(matched, &c)
		}
	}
	return paginate(matched, limit, offset), nil
}
