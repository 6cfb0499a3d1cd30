package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// UpdateStockRequest body para POST /api/inventory/stock.
// Quantity es magnitud positiva para in/out y valor con signo para
// adjustment.
type UpdateStockRequest struct {
	ProductID      string           `json:"product_id"`
	BranchID       string           `json:"branch_id,omitempty"`
	Type           string           `json:"type"` // in | out | adjustment
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	Reference      string           `json:"reference,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// BulkUpdateStockRequest body para POST /api/inventory/stock/bulk.
type BulkUpdateStockRequest struct {
	BatchKey string               `json:"batch_key"`
	Updates  []UpdateStockRequest `json:"updates"`
}

// LedgerEntryResponse entrada del libro en respuestas.
type LedgerEntryResponse struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	BranchID       string           `json:"branch_id,omitempty"`
	Type           string           `json:"type"`
	QuantityChange decimal.Decimal  `json:"quantity_change"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType  string           `json:"reference_type,omitempty"`
	ReferenceID    string           `json:"reference_id,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CreatedBy      string           `json:"created_by,omitempty"`
}

// FromLedgerEntry mapea la entidad a su DTO.
func FromLedgerEntry(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		ProductID:      e.ProductID,
		BranchID:       e.BranchID,
		Type:           string(e.Type),
		QuantityChange: e.QuantityChange,
		UnitCost:       e.UnitCost,
		ReferenceType:  e.ReferenceType,
		ReferenceID:    e.ReferenceID,
		Reason:         e.Reason,
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      e.CreatedAt,
		CreatedBy:      e.CreatedBy,
	}
}

// StockMovementResponse resultado de una mutación de stock.
type StockMovementResponse struct {
	Entry        LedgerEntryResponse `json:"entry"`
	Balance      decimal.Decimal     `json:"balance"`
	Deduplicated bool                `json:"deduplicated"`
	Warning      string              `json:"warning,omitempty"`
}

// FromAppendResult mapea el resultado del caso de uso.
func FromAppendResult(r *inventory.AppendResult) StockMovementResponse {
	return StockMovementResponse{
		Entry:        FromLedgerEntry(r.Entry),
		Balance:      r.Balance,
		Deduplicated: r.Deduplicated,
		Warning:      r.Warning,
	}
}

// BalanceResponse balance de un producto: contador rápido y proyección
// derivada del libro.
type BalanceResponse struct {
	ProductID string          `json:"product_id"`
	BranchID  string          `json:"branch_id,omitempty"`
	Counter   decimal.Decimal `json:"counter"`
	Projected decimal.Decimal `json:"projected"`
}

// StockHistoryResponse página del historial de movimientos.
type StockHistoryResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	Total   int                   `json:"total"`
	Page    int                   `json:"page"`
	Limit   int                   `json:"limit"`
}

// StockAlertResponse alerta de stock bajo, agotado o negativo.
type StockAlertResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	BranchID  string          `json:"branch_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	MinStock  decimal.Decimal `json:"min_stock"`
	Severity  string          `json:"severity"`
}

// FromStockAlert mapea la alerta a su DTO.
func FromStockAlert(a *entity.StockAlert) StockAlertResponse {
	return StockAlertResponse{
		ProductID: a.ProductID,
		SKU:       a.SKU,
		Name:      a.Name,
		BranchID:  a.BranchID,
		Quantity:  a.Quantity,
		MinStock:  a.MinStock,
		Severity:  a.Severity,
	}
}

// ReconcileDiffResponse deriva detectada y sanada por la reconciliación.
type ReconcileDiffResponse struct {
	ProductID         string          `json:"product_id"`
	BranchID          string          `json:"branch_id,omitempty"`
	CounterQty        decimal.Decimal `json:"counter_qty"`
	LedgerQty         decimal.Decimal `json:"ledger_qty"`
	Delta             decimal.Decimal `json:"delta"`
	Drift             bool            `json:"drift"`
	CorrectiveEntryID string          `json:"corrective_entry_id,omitempty"`
}

// FromReconcileDiff mapea el resultado de reconciliación.
func FromReconcileDiff(d *inventory.ReconcileDiff) ReconcileDiffResponse {
	return ReconcileDiffResponse{
		ProductID:         d.ProductID,
		BranchID:          d.BranchID,
		CounterQty:        d.CounterQty,
		LedgerQty:         d.LedgerQty,
		Delta:             d.Delta,
		Drift:             d.Drift,
		CorrectiveEntryID: d.CorrectiveEntryID,
	}
}
