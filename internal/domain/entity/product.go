package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product datos mínimos del producto que el núcleo de inventario necesita
// (el catálogo completo vive en el sistema externo).
type Product struct {
	ID        string
	SKU       string
	Name      string
	MinStock  decimal.Decimal // punto de reorden para alertas
	Cost      decimal.Decimal
	CreatedAt time.Time
}

// Niveles de severidad para alertas de stock.
const (
	AlertLowStock   = "low_stock"    // cantidad <= MinStock
	AlertOutOfStock = "out_of_stock" // cantidad <= 0
	AlertNegative   = "negative"     // cantidad < 0, en investigación
)

// StockAlert alerta derivada del contador frente al punto de reorden.
type StockAlert struct {
	ProductID string
	SKU       string
	Name      string
	BranchID  string
	Quantity  decimal.Decimal
	MinStock  decimal.Decimal
	Severity  string
}
