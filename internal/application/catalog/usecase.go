// Package catalog expone el mínimo de productos y sucursales que el núcleo
// de inventario necesita para operar; el catálogo completo es del sistema
// externo de POS.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// UseCase operaciones mínimas de catálogo.
type UseCase struct {
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(productRepo repository.ProductRepository, branchRepo repository.BranchRepository) *UseCase {
	return &UseCase{productRepo: productRepo, branchRepo: branchRepo}
}

// CreateProductInput datos para registrar un producto.
type CreateProductInput struct {
	SKU      string
	Name     string
	MinStock decimal.Decimal
	Cost     decimal.Decimal
}

// CreateProduct registra un producto en el catálogo local.
func (uc *UseCase) CreateProduct(ctx context.Context, in CreateProductInput) (*entity.Product, error) {
	if in.SKU == "" || in.Name == "" || in.MinStock.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	p := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       in.SKU,
		Name:      in.Name,
		MinStock:  in.MinStock,
		Cost:      in.Cost,
		CreatedAt: time.Now(),
	}
	if err := uc.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct devuelve un producto por ID.
func (uc *UseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// ListProducts lista el catálogo local paginado.
func (uc *UseCase) ListProducts(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return uc.productRepo.List(ctx, limit, offset)
}

// CreateBranch registra una sucursal.
func (uc *UseCase) CreateBranch(ctx context.Context, code, name string) (*entity.Branch, error) {
	if code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	b := &entity.Branch{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := uc.branchRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBranches lista todas las sucursales.
func (uc *UseCase) ListBranches(ctx context.Context) ([]*entity.Branch, error) {
	return uc.branchRepo.List(ctx)
}
