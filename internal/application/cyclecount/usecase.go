package cyclecount

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// UseCase maneja los conteos físicos de inventario: precarga el snapshot de
// esperados, registra cantidades contadas, calcula varianza y al completar
// pide al motor de reconciliación aplicar los ajustes sobre tolerancia.
type UseCase struct {
	txRunner    inventory.TxRunner
	ledgerUC    *inventory.LedgerUseCase
	balanceUC   *inventory.BalanceUseCase
	countRepo   repository.CycleCountRepository
	branchRepo  repository.BranchRepository
	counterRepo repository.StockCounterRepository
	log         *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner inventory.TxRunner,
	ledgerUC *inventory.LedgerUseCase,
	balanceUC *inventory.BalanceUseCase,
	countRepo repository.CycleCountRepository,
	branchRepo repository.BranchRepository,
	counterRepo repository.StockCounterRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		ledgerUC:    ledgerUC,
		balanceUC:   balanceUC,
		countRepo:   countRepo,
		branchRepo:  branchRepo,
		counterRepo: counterRepo,
		log:         log,
	}
}

// CreateInput entrada para crear un conteo.
type CreateInput struct {
	BranchID     string
	Type         string // cyclic | general
	TolerancePct decimal.Decimal
	CreatedBy    string
}

// Create crea el conteo en estado pending.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.CycleCount, error) {
	if in.BranchID == "" || in.TolerancePct.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.Type != entity.CycleCountTypeCyclic && in.Type != entity.CycleCountTypeGeneral {
		return nil, domain.ErrInvalidInput
	}
	b, err := uc.branchRepo.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}

	c := &entity.CycleCount{
		ID:           uuid.New().String(),
		BranchID:     in.BranchID,
		Type:         in.Type,
		Status:       entity.CycleCountPending,
		TolerancePct: in.TolerancePct,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    time.Now(),
	}
	if err := uc.countRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Preload congela el snapshot de cantidades esperadas vía el proyector de
// balances y crea los ítems, antes de contar. El snapshot es la línea base:
// movimientos concurrentes del libro no lo alteran retroactivamente.
// productIDs vacío precarga todos los productos con contador en la sucursal
// (conteo general).
func (uc *UseCase) Preload(ctx context.Context, countID string, productIDs []string) (*entity.CycleCount, error) {
	c, err := uc.countRepo.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.Status != entity.CycleCountPending && c.Status != entity.CycleCountInProgress {
		return nil, domain.ErrInvalidTransition
	}
	if len(c.Items) > 0 {
		return nil, fmt.Errorf("el conteo ya tiene ítems precargados: %w", domain.ErrConflict)
	}

	if len(productIDs) == 0 {
		counters, err := uc.counterRepo.ListByBranch(ctx, c.BranchID)
		if err != nil {
			return nil, err
		}
		for _, counter := range counters {
			productIDs = append(productIDs, counter.ProductID)
		}
	}
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("sin productos para precargar: %w", domain.ErrInvalidInput)
	}

	items := make([]entity.CycleCountItem, 0, len(productIDs))
	for _, productID := range productIDs {
		expected, err := uc.balanceUC.Project(ctx, productID, c.BranchID)
		if err != nil {
			return nil, err
		}
		items = append(items, entity.CycleCountItem{
			ID:           uuid.New().String(),
			CycleCountID: c.ID,
			ProductID:    productID,
			ExpectedQty:  expected,
		})
	}
	if err := uc.countRepo.CreateItems(ctx, c.ID, items); err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

// Start transiciona pending→in_progress y sella el inicio.
func (uc *UseCase) Start(ctx context.Context, countID string) (*entity.CycleCount, error) {
	c, err := uc.countRepo.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if !c.Status.CanTransitionTo(entity.CycleCountInProgress) {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	c.Status = entity.CycleCountInProgress
	c.StartedAt = &now
	if err := uc.countRepo.UpdateStatus(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetItemCount registra la cantidad contada de un ítem. Solo válido con el
// conteo in_progress.
func (uc *UseCase) SetItemCount(ctx context.Context, countID, itemID string, countedQty decimal.Decimal, countedBy, reason string) (*entity.CycleCountItem, error) {
	if countedQty.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	c, err := uc.countRepo.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.Status != entity.CycleCountInProgress {
		return nil, domain.ErrInvalidTransition
	}
	item, err := uc.countRepo.GetItem(ctx, countID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	item.CountedQty = &countedQty
	item.CountedBy = countedBy
	item.Reason = reason
	if err := uc.countRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Complete transiciona in_progress→completed y dispara la aplicación de
// ajustes. Completar sin ítems sobre tolerancia es válido: cero ajustes.
func (uc *UseCase) Complete(ctx context.Context, countID, userID string) (*entity.CycleCount, error) {
	var out *entity.CycleCount
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		c, err := repos.CycleCounts.GetForUpdate(ctx, countID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if !c.Status.CanTransitionTo(entity.CycleCountCompleted) {
			return domain.ErrInvalidTransition
		}

		if err := uc.applyAdjustmentsInTx(ctx, repos, c, userID); err != nil {
			return err
		}

		now := time.Now()
		c.Status = entity.CycleCountCompleted
		c.CompletedAt = &now
		if err := repos.CycleCounts.UpdateStatus(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyAdjustments reaplica los ajustes de un conteo ya completado. Es
// idempotente: cada ítem usa la clave conteo+"/"+ítem, así un reintento no
// duplica entradas.
func (uc *UseCase) ApplyAdjustments(ctx context.Context, countID, userID string) error {
	return uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		c, err := repos.CycleCounts.GetForUpdate(ctx, countID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if c.Status != entity.CycleCountCompleted {
			return domain.ErrInvalidTransition
		}
		return uc.applyAdjustmentsInTx(ctx, repos, c, userID)
	})
}

// applyAdjustmentsInTx emite un cycle_count_adjustment por cada ítem cuya
// varianza supera estrictamente la tolerancia; los demás solo quedan
// registrados (el ruido de conteo no contamina la pista de auditoría).
func (uc *UseCase) applyAdjustmentsInTx(ctx context.Context, repos inventory.TxRepos, c *entity.CycleCount, userID string) error {
	adjusted := 0
	for i := range c.Items {
		item := &c.Items[i]
		if item.CountedQty == nil || !item.OverTolerance(c.TolerancePct) {
			continue
		}
		if _, err := uc.ledgerUC.AppendInTx(ctx, repos, inventory.AppendInput{
			ProductID:      item.ProductID,
			BranchID:       c.BranchID,
			Type:           entity.MovementCycleCountAdjust,
			Quantity:       item.Variance(),
			ReferenceType:  entity.ReferenceCycleCount,
			ReferenceID:    c.ID,
			Reason:         item.Reason,
			IdempotencyKey: c.ID + "/" + item.ID,
			UserID:         userID,
		}); err != nil {
			return err
		}
		adjusted++
	}
	uc.log.Info().
		Str("cycle_count_id", c.ID).
		Int("items", len(c.Items)).
		Int("adjusted", adjusted).
		Msg("ajustes de conteo aplicados")
	return nil
}

// Cancel anula el conteo desde pending o in_progress, sin efecto de libro.
func (uc *UseCase) Cancel(ctx context.Context, countID string) (*entity.CycleCount, error) {
	c, err := uc.countRepo.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if !c.Status.CanTransitionTo(entity.CycleCountCanceled) {
		return nil, domain.ErrInvalidTransition
	}
	c.Status = entity.CycleCountCanceled
	if err := uc.countRepo.UpdateStatus(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID devuelve el conteo con sus ítems.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.CycleCount, error) {
	c, err := uc.countRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// List lista conteos, con filtros opcionales de sucursal y estado.
func (uc *UseCase) List(ctx context.Context, branchID string, status entity.CycleCountStatus, limit, offset int) ([]*entity.CycleCount, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return uc.countRepo.List(ctx, branchID, status, limit, offset)
}
