package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

// Tipos de movimiento soportados por el libro (ledger).
const (
	MovementIn              MovementType = "in"                     // entrada
	MovementOut             MovementType = "out"                    // salida
	MovementAdjustment      MovementType = "adjustment"             // ajuste manual o de reconciliación
	MovementTransferOut     MovementType = "transfer_out"           // salida por traslado entre sucursales
	MovementTransferIn      MovementType = "transfer_in"            // entrada por traslado entre sucursales
	MovementCycleCountAdjust MovementType = "cycle_count_adjustment" // ajuste por conteo físico
)

// Valid indica si el tipo de movimiento es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment,
		MovementTransferOut, MovementTransferIn, MovementCycleCountAdjust:
		return true
	}
	return false
}

// Tipos de referencia que vinculan una entrada del libro con su origen.
const (
	ReferenceTransfer       = "transfer"
	ReferenceCycleCount     = "cycle_count"
	ReferenceReconciliation = "reconciliation"
	ReferenceSale           = "sale"
)

// LedgerEntry es una entrada inmutable del libro de inventario: un cambio de
// cantidad con signo para un producto (opcionalmente por sucursal).
// Las entradas nunca se actualizan ni se borran; toda corrección es una
// entrada nueva.
type LedgerEntry struct {
	ID             string
	ProductID      string
	BranchID       string // vacío = movimiento sin sucursal
	Type           MovementType
	QuantityChange decimal.Decimal // positivo aumenta stock
	UnitCost       *decimal.Decimal
	ReferenceType  string
	ReferenceID    string
	Reason         string
	IdempotencyKey string // vacío = sin deduplicación; único por (Type, clave)
	CreatedAt      time.Time
	CreatedBy      string
}

// CounterKey clave del contador denormalizado afectado por la entrada.
func (e *LedgerEntry) CounterKey() (productID, branchID string) {
	return e.ProductID, e.BranchID
}
