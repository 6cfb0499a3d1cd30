package repository

import (
	"context"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia de traslados.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	// GetByKey busca un traslado por clave de idempotencia; nil si no existe.
	GetByKey(ctx context.Context, idempotencyKey string) (*entity.StockTransfer, error)
	// GetForUpdate bloquea la fila del traslado dentro de la tx, para que
	// dos piernas concurrentes no avancen el estado a la vez.
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	// UpdateStatus persiste estado y sellos de tiempo/actor.
	UpdateStatus(ctx context.Context, t *entity.StockTransfer) error
	List(ctx context.Context, status entity.TransferStatus, limit, offset int) ([]*entity.StockTransfer, error)
}
