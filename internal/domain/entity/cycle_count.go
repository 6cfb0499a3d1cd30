package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleCountStatus estado del conteo físico.
type CycleCountStatus string

// Estados del ciclo de vida de un conteo físico.
const (
	CycleCountPending    CycleCountStatus = "pending"
	CycleCountInProgress CycleCountStatus = "in_progress"
	CycleCountCompleted  CycleCountStatus = "completed"
	CycleCountCanceled   CycleCountStatus = "canceled"
)

// CanTransitionTo valida la máquina de estados del conteo:
// pending→in_progress→completed, con canceled alcanzable desde
// pending o in_progress.
func (s CycleCountStatus) CanTransitionTo(next CycleCountStatus) bool {
	switch s {
	case CycleCountPending:
		return next == CycleCountInProgress || next == CycleCountCanceled
	case CycleCountInProgress:
		return next == CycleCountCompleted || next == CycleCountCanceled
	}
	return false
}

// Tipos de conteo físico.
const (
	CycleCountTypeCyclic  = "cyclic"  // cíclico, subconjunto de productos
	CycleCountTypeGeneral = "general" // general, toda la sucursal
)

// CycleCount es una auditoría física de inventario en una sucursal. Las
// cantidades esperadas se congelan al precargar (snapshot); los movimientos
// del libro durante un conteo abierto no las alteran retroactivamente.
type CycleCount struct {
	ID           string
	BranchID     string
	Type         string // cyclic | general
	Status       CycleCountStatus
	TolerancePct decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Items        []CycleCountItem
}

// CycleCountItem ítem de conteo para un producto.
type CycleCountItem struct {
	ID           string
	CycleCountID string
	ProductID    string
	ExpectedQty  decimal.Decimal  // snapshot al precargar
	CountedQty   *decimal.Decimal // nil hasta que se cuenta
	CountedBy    string
	Reason       string
}

// Variance devuelve contado - esperado. Convención de signo única en todo el
// sistema: varianza positiva (se contó de más) acredita stock.
func (i *CycleCountItem) Variance() decimal.Decimal {
	if i.CountedQty == nil {
		return decimal.Zero
	}
	return i.CountedQty.Sub(i.ExpectedQty)
}

// OverTolerance indica si la varianza supera estrictamente la tolerancia
// porcentual. En el límite exacto no hay ajuste; esperado cero con varianza
// distinta de cero siempre supera.
func (i *CycleCountItem) OverTolerance(tolerancePct decimal.Decimal) bool {
	v := i.Variance()
	if v.IsZero() {
		return false
	}
	if i.ExpectedQty.IsZero() {
		return true
	}
	pct := v.Abs().Div(i.ExpectedQty.Abs()).Mul(decimal.NewFromInt(100))
	return pct.GreaterThan(tolerancePct)
}
