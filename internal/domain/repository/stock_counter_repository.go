package repository

import (
	"context"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// StockCounterRepository define el puerto para el contador denormalizado de
// stock. Solo lo mutan el append del libro y la reconciliación; ningún otro
// componente escribe estas filas.
type StockCounterRepository interface {
	// Get devuelve el contador; si no existe retorna uno en cero.
	Get(ctx context.Context, productID, branchID string) (*entity.StockCounter, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) dentro de la tx.
	GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockCounter, error)
	Upsert(ctx context.Context, counter *entity.StockCounter) error
	// ListKeys devuelve todos los pares (producto, sucursal) con contador.
	ListKeys(ctx context.Context) ([]*entity.StockCounter, error)
	// ListByProduct devuelve los contadores de un producto en cada sucursal.
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockCounter, error)
	// ListByBranch devuelve los contadores de una sucursal (para precargar
	// conteos físicos generales).
	ListByBranch(ctx context.Context, branchID string) ([]*entity.StockCounter, error)
	// ListAtOrBelowMin devuelve filas con cantidad <= min_stock del producto
	// (sin clasificar severidad; eso es del caso de uso).
	ListAtOrBelowMin(ctx context.Context) ([]*entity.StockAlert, error)
}

// DiscrepancyRepository persiste el registro de auditoría de derivas.
type DiscrepancyRepository interface {
	Create(ctx context.Context, d *entity.StockDiscrepancy) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockDiscrepancy, error)
}
