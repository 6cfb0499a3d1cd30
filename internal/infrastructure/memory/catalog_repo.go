package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// ProductRepo implementa repository.ProductRepository en memoria.
type ProductRepo struct {
	store *Store
}

var _ repository.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo crea el repositorio de productos atado al almacén.
func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *p
	r.store.products[p.ID] = &c
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]*entity.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

// BranchRepo implementa repository.BranchRepository en memoria.
type BranchRepo struct {
	store *Store
}

var _ repository.BranchRepository = (*BranchRepo)(nil)

// NewBranchRepo crea el repositorio de sucursales atado al almacén.
func NewBranchRepo(store *Store) *BranchRepo {
	return &BranchRepo{store: store}
}

func (r *BranchRepo) Create(ctx context.Context, b *entity.Branch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *b
	r.store.branches[b.ID] = &c
	return nil
}

func (r *BranchRepo) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.branches[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *BranchRepo) List(ctx context.Context) ([]*entity.Branch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]*entity.Branch, 0, len(r.store.branches))
	for _, b := range r.store.branches {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
