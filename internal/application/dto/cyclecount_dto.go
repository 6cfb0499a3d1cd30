package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// CreateCycleCountRequest body para POST /api/cycle-counts.
type CreateCycleCountRequest struct {
	BranchID     string          `json:"branch_id"`
	Type         string          `json:"type"` // cyclic | general
	TolerancePct decimal.Decimal `json:"tolerance_pct"`
}

// PreloadCycleCountRequest body para POST /api/cycle-counts/{id}/preload.
// Sin ProductIDs se precargan todos los productos con contador en la
// sucursal (conteo general).
type PreloadCycleCountRequest struct {
	ProductIDs []string `json:"product_ids,omitempty"`
}

// SetItemCountRequest body para PUT /api/cycle-counts/{id}/items/{itemId}.
type SetItemCountRequest struct {
	CountedQty decimal.Decimal `json:"counted_qty"`
	Reason     string          `json:"reason,omitempty"`
}

// CycleCountItemResponse ítem de conteo en respuestas.
type CycleCountItemResponse struct {
	ID          string           `json:"id"`
	ProductID   string           `json:"product_id"`
	ExpectedQty decimal.Decimal  `json:"expected_qty"`
	CountedQty  *decimal.Decimal `json:"counted_qty,omitempty"`
	Variance    decimal.Decimal  `json:"variance"`
	CountedBy   string           `json:"counted_by,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

// CycleCountResponse conteo físico en respuestas.
type CycleCountResponse struct {
	ID           string                   `json:"id"`
	BranchID     string                   `json:"branch_id"`
	Type         string                   `json:"type"`
	Status       string                   `json:"status"`
	TolerancePct decimal.Decimal          `json:"tolerance_pct"`
	CreatedBy    string                   `json:"created_by,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	StartedAt    *time.Time               `json:"started_at,omitempty"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	Items        []CycleCountItemResponse `json:"items,omitempty"`
}

// FromCycleCount mapea la entidad (con ítems si los trae) a su DTO.
func FromCycleCount(c *entity.CycleCount) CycleCountResponse {
	out := CycleCountResponse{
		ID:           c.ID,
		BranchID:     c.BranchID,
		Type:         c.Type,
		Status:       string(c.Status),
		TolerancePct: c.TolerancePct,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		StartedAt:    c.StartedAt,
		CompletedAt:  c.CompletedAt,
	}
	for i := range c.Items {
		it := &c.Items[i]
		out.Items = append(out.Items, CycleCountItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ExpectedQty: it.ExpectedQty,
			CountedQty:  it.CountedQty,
			Variance:    it.Variance(),
			CountedBy:   it.CountedBy,
			Reason:      it.Reason,
		})
	}
	return out
}

// CycleCountListResponse listado de conteos.
type CycleCountListResponse struct {
	CycleCounts []CycleCountResponse `json:"cycle_counts"`
	Page        PageResponse         `json:"page"`
}
