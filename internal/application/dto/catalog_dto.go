package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	MinStock decimal.Decimal `json:"min_stock"`
	Cost     decimal.Decimal `json:"cost"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	MinStock  decimal.Decimal `json:"min_stock"`
	Cost      decimal.Decimal `json:"cost"`
	CreatedAt time.Time       `json:"created_at"`
}

// FromProduct mapea la entidad a su DTO.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		MinStock:  p.MinStock,
		Cost:      p.Cost,
		CreatedAt: p.CreatedAt,
	}
}

// CreateBranchRequest body para POST /api/branches.
type CreateBranchRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BranchResponse sucursal en respuestas.
type BranchResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// FromBranch mapea la entidad a su DTO.
func FromBranch(b *entity.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Code:      b.Code,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
	}
}
