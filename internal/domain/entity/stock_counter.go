package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockCounter es el contador denormalizado de stock por (producto, sucursal).
// Es una caché de lectura: la verdad es siempre la suma del libro. En reposo
// (sin mutaciones en vuelo) Quantity debe igualar esa suma; la deriva se
// detecta y se sana vía reconciliación, nunca se confía en ella en silencio.
type StockCounter struct {
	ProductID string
	BranchID  string // vacío = contador sin sucursal
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// StockDiscrepancy registra, para auditoría, una deriva detectada entre el
// contador y el balance derivado del libro, junto con la entrada correctiva.
type StockDiscrepancy struct {
	ID              string
	ProductID       string
	BranchID        string
	CounterQty      decimal.Decimal // valor del contador al detectar
	LedgerQty       decimal.Decimal // suma del libro al detectar
	Delta           decimal.Decimal // CounterQty - LedgerQty
	CorrectiveEntry string          // ID de la entrada adjustment emitida
	DetectedAt      time.Time
}
