package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// LedgerRepository define el puerto de persistencia del libro de inventario.
// Solo inserta y consulta: las entradas son inmutables por diseño.
type LedgerRepository interface {
	// Create inserta una entrada. Si la clave de idempotencia ya existe para
	// el mismo tipo de movimiento debe devolver domain.ErrDuplicate.
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	// GetByTypeAndKey busca la entrada existente para un (tipo, clave);
	// nil sin error si no existe.
	GetByTypeAndKey(ctx context.Context, movType entity.MovementType, key string) (*entity.LedgerEntry, error)
	// SumForKey suma quantity_change para un (producto, sucursal) exacto;
	// branchID vacío agrupa las entradas sin sucursal.
	SumForKey(ctx context.Context, productID, branchID string) (decimal.Decimal, error)
	// SumForProduct suma quantity_change del producto en todas las sucursales.
	SumForProduct(ctx context.Context, productID string) (decimal.Decimal, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.LedgerEntry, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
	// ListByReference devuelve las entradas originadas por un traslado,
	// conteo u otra referencia externa.
	ListByReference(ctx context.Context, refType, refID string) ([]*entity.LedgerEntry, error)
}
