package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estado del traslado entre sucursales.
type TransferStatus string

// Estados del ciclo de vida de un traslado.
const (
	TransferRequested TransferStatus = "requested"
	TransferShipped   TransferStatus = "shipped"
	TransferReceived  TransferStatus = "received"
	TransferCanceled  TransferStatus = "canceled"
)

// CanTransitionTo valida la máquina de estados en un solo lugar:
// requested→shipped, shipped→received, requested→canceled y
// shipped→canceled (este último con pierna compensatoria en origen).
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	switch s {
	case TransferRequested:
		return next == TransferShipped || next == TransferCanceled
	case TransferShipped:
		return next == TransferReceived || next == TransferCanceled
	}
	return false
}

// StockTransfer coordina un movimiento de stock en dos piernas entre
// sucursales. Todo efecto sobre cantidades se delega al libro; el traslado
// solo es dueño de su máquina de estados.
type StockTransfer struct {
	ID             string
	ProductID      string
	Quantity       decimal.Decimal // > 0
	FromBranchID   string
	ToBranchID     string // != FromBranchID
	Status         TransferStatus
	RequestedBy    string
	ShippedBy      string
	ReceivedBy     string
	IdempotencyKey string
	Reference      string
	CreatedAt      time.Time
	ShippedAt      *time.Time
	ReceivedAt     *time.Time
	CanceledAt     *time.Time
}

// Claves de idempotencia derivadas por pierna. Cada pierna usa su propia
// clave bajo la restricción única (tipo de movimiento, clave); receive y la
// compensación post-envío comparten tipo transfer_in, por eso el sufijo.
func (t *StockTransfer) ShipKey() string    { return t.IdempotencyKey + "/ship" }
func (t *StockTransfer) ReceiveKey() string { return t.IdempotencyKey + "/receive" }
func (t *StockTransfer) CancelKey() string  { return t.IdempotencyKey + "/cancel" }
