package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// RequestTransferRequest body para POST /api/transfers.
type RequestTransferRequest struct {
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromBranchID   string          `json:"from_branch_id"`
	ToBranchID     string          `json:"to_branch_id"`
	Reference      string          `json:"reference,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// TransferResponse traslado en respuestas.
type TransferResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromBranchID   string          `json:"from_branch_id"`
	ToBranchID     string          `json:"to_branch_id"`
	Status         string          `json:"status"`
	RequestedBy    string          `json:"requested_by,omitempty"`
	ShippedBy      string          `json:"shipped_by,omitempty"`
	ReceivedBy     string          `json:"received_by,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	Reference      string          `json:"reference,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	ReceivedAt     *time.Time      `json:"received_at,omitempty"`
	CanceledAt     *time.Time      `json:"canceled_at,omitempty"`
}

// FromTransfer mapea la entidad a su DTO.
func FromTransfer(t *entity.StockTransfer) TransferResponse {
	return TransferResponse{
		ID:             t.ID,
		ProductID:      t.ProductID,
		Quantity:       t.Quantity,
		FromBranchID:   t.FromBranchID,
		ToBranchID:     t.ToBranchID,
		Status:         string(t.Status),
		RequestedBy:    t.RequestedBy,
		ShippedBy:      t.ShippedBy,
		ReceivedBy:     t.ReceivedBy,
		IdempotencyKey: t.IdempotencyKey,
		Reference:      t.Reference,
		CreatedAt:      t.CreatedAt,
		ShippedAt:      t.ShippedAt,
		ReceivedAt:     t.ReceivedAt,
		CanceledAt:     t.CanceledAt,
	}
}

// TransferListResponse listado de traslados.
type TransferListResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	Page      PageResponse       `json:"page"`
}
