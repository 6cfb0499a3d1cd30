package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// UseCase coordina traslados de stock entre sucursales en dos piernas
// (ship/receive). Todo efecto de cantidad pasa por el libro; cada pierna es
// idempotente con su clave derivada, así un ship reintentado tras un crash
// no debita dos veces el origen.
type UseCase struct {
	txRunner     inventory.TxRunner
	ledgerUC     *inventory.LedgerUseCase
	transferRepo repository.TransferRepository
	productRepo  repository.ProductRepository
	branchRepo   repository.BranchRepository
	log          *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner inventory.TxRunner,
	ledgerUC *inventory.LedgerUseCase,
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		ledgerUC:     ledgerUC,
		transferRepo: transferRepo,
		productRepo:  productRepo,
		branchRepo:   branchRepo,
		log:          log,
	}
}

// RequestInput entrada para solicitar un traslado.
type RequestInput struct {
	ProductID      string
	Quantity       decimal.Decimal
	FromBranchID   string
	ToBranchID     string
	Reference      string
	IdempotencyKey string
	UserID         string
}

// Request crea el traslado en estado requested, sin efecto en el libro.
// Con clave de idempotencia repetida devuelve el traslado existente.
func (uc *UseCase) Request(ctx context.Context, in RequestInput) (*entity.StockTransfer, error) {
	if in.ProductID == "" || in.FromBranchID == "" || in.ToBranchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.FromBranchID == in.ToBranchID || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	for _, branchID := range []string{in.FromBranchID, in.ToBranchID} {
		b, err := uc.branchRepo.GetByID(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, domain.ErrNotFound
		}
	}

	key := in.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	} else {
		existing, err := uc.transferRepo.GetByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.ProductID != in.ProductID || !existing.Quantity.Equal(in.Quantity) ||
				existing.FromBranchID != in.FromBranchID || existing.ToBranchID != in.ToBranchID {
				return nil, domain.ErrKeyPayloadMismatch
			}
			return existing, nil
		}
	}

	t := &entity.StockTransfer{
		ID:             uuid.New().String(),
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		FromBranchID:   in.FromBranchID,
		ToBranchID:     in.ToBranchID,
		Status:         entity.TransferRequested,
		RequestedBy:    in.UserID,
		IdempotencyKey: key,
		Reference:      in.Reference,
		CreatedAt:      time.Now(),
	}
	if err := uc.transferRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Ship ejecuta la pierna de salida: transfer_out de -cantidad en el origen
// (guardado por la clave derivada) y transición requested→shipped, todo en
// una transacción.
func (uc *UseCase) Ship(ctx context.Context, transferID, userID string) (*entity.StockTransfer, error) {
	var out *entity.StockTransfer
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		t, err := repos.Transfers.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !t.Status.CanTransitionTo(entity.TransferShipped) {
			return domain.ErrInvalidTransition
		}

		if _, err := uc.ledgerUC.AppendInTx(ctx, repos, inventory.AppendInput{
			ProductID:      t.ProductID,
			BranchID:       t.FromBranchID,
			Type:           entity.MovementTransferOut,
			Quantity:       t.Quantity.Neg(),
			ReferenceType:  entity.ReferenceTransfer,
			ReferenceID:    t.ID,
			IdempotencyKey: t.ShipKey(),
			UserID:         userID,
		}); err != nil {
			return err
		}

		now := time.Now()
		t.Status = entity.TransferShipped
		t.ShippedBy = userID
		t.ShippedAt = &now
		if err := repos.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Receive ejecuta la pierna de entrada: transfer_in de +cantidad en el
// destino y transición shipped→received.
func (uc *UseCase) Receive(ctx context.Context, transferID, userID string) (*entity.StockTransfer, error) {
	var out *entity.StockTransfer
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		t, err := repos.Transfers.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !t.Status.CanTransitionTo(entity.TransferReceived) {
			return domain.ErrInvalidTransition
		}

		if _, err := uc.ledgerUC.AppendInTx(ctx, repos, inventory.AppendInput{
			ProductID:      t.ProductID,
			BranchID:       t.ToBranchID,
			Type:           entity.MovementTransferIn,
			Quantity:       t.Quantity,
			ReferenceType:  entity.ReferenceTransfer,
			ReferenceID:    t.ID,
			IdempotencyKey: t.ReceiveKey(),
			UserID:         userID,
		}); err != nil {
			return err
		}

		now := time.Now()
		t.Status = entity.TransferReceived
		t.ReceivedBy = userID
		t.ReceivedAt = &now
		if err := repos.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel anula un traslado. En requested no hay efecto de libro; en shipped
// se emite la pierna compensatoria (transfer_in de +cantidad en el origen):
// el libro nunca se edita retroactivamente. Un traslado received no se
// puede anular.
func (uc *UseCase) Cancel(ctx context.Context, transferID, userID string) (*entity.StockTransfer, error) {
	var out *entity.StockTransfer
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		t, err := repos.Transfers.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !t.Status.CanTransitionTo(entity.TransferCanceled) {
			return domain.ErrInvalidTransition
		}

		if t.Status == entity.TransferShipped {
			if _, err := uc.ledgerUC.AppendInTx(ctx, repos, inventory.AppendInput{
				ProductID:      t.ProductID,
				BranchID:       t.FromBranchID,
				Type:           entity.MovementTransferIn,
				Quantity:       t.Quantity,
				ReferenceType:  entity.ReferenceTransfer,
				ReferenceID:    t.ID,
				Reason:         "anulación post-envío: pierna compensatoria en origen",
				IdempotencyKey: t.CancelKey(),
				UserID:         userID,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		t.Status = entity.TransferCanceled
		t.CanceledAt = &now
		if err := repos.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID devuelve un traslado.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	t, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// List lista traslados, opcionalmente filtrados por estado.
func (uc *UseCase) List(ctx context.Context, status entity.TransferStatus, limit, offset int) ([]*entity.StockTransfer, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return uc.transferRepo.List(ctx, status, limit, offset)
}
