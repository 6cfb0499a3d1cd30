package repository

import (
	"context"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// CycleCountRepository define el puerto de persistencia de conteos físicos
// y sus ítems hijos.
type CycleCountRepository interface {
	Create(ctx context.Context, c *entity.CycleCount) error
	// GetByID devuelve el conteo con sus ítems ordenados; nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.CycleCount, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CycleCount, error)
	// UpdateStatus persiste estado y sellos de tiempo.
	UpdateStatus(ctx context.Context, c *entity.CycleCount) error
	// CreateItems inserta los ítems precargados (snapshot de esperados).
	CreateItems(ctx context.Context, countID string, items []entity.CycleCountItem) error
	GetItem(ctx context.Context, countID, itemID string) (*entity.CycleCountItem, error)
	// UpdateItem persiste cantidad contada, quién contó y motivo.
	UpdateItem(ctx context.Context, item *entity.CycleCountItem) error
	List(ctx context.Context, branchID string, status entity.CycleCountStatus, limit, offset int) ([]*entity.CycleCount, error)
}
