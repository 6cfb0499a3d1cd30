package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// ReconcileUseCase detecta y sana la deriva entre el contador denormalizado
// y el balance derivado del libro. La deriva no es un error: se registra
// para auditoría y se corrige con una entrada adjustment, nunca editando
// historia.
type ReconcileUseCase struct {
	txRunner    TxRunner
	ledgerUC    *LedgerUseCase
	counterRepo repository.StockCounterRepository
	log         *logger.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(txRunner TxRunner, ledgerUC *LedgerUseCase, counterRepo repository.StockCounterRepository, log *logger.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner, ledgerUC: ledgerUC, counterRepo: counterRepo, log: log}
}

// ReconcileDiff resultado estructurado por clave, incluso sin deriva: el
// caller distingue "verificado, sin deriva" de "no verificado".
type ReconcileDiff struct {
	ProductID         string
	BranchID          string
	CounterQty        decimal.Decimal
	LedgerQty         decimal.Decimal
	Delta             decimal.Decimal // CounterQty - LedgerQty
	Drift             bool
	CorrectiveEntryID string
}

// ReconcileProduct compara proyección contra contador para cada sucursal
// del producto y sana las que derivaron.
func (uc *ReconcileUseCase) ReconcileProduct(ctx context.Context, productID string) ([]*ReconcileDiff, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	counters, err := uc.counterRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	diffs := make([]*ReconcileDiff, 0, len(counters))
	for _, c := range counters {
		diff, err := uc.reconcileKey(ctx, c.ProductID, c.BranchID)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, diff)
	}
	return diffs, nil
}

// ReconcileAll recorre todas las claves con contador. Cada clave se
// reconcilia en su propia transacción con la fila bloqueada: la lectura es
// un snapshot consistente aun con mutaciones en vivo.
func (uc *ReconcileUseCase) ReconcileAll(ctx context.Context) ([]*ReconcileDiff, error) {
	counters, err := uc.counterRepo.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	diffs := make([]*ReconcileDiff, 0, len(counters))
	for _, c := range counters {
		diff, err := uc.reconcileKey(ctx, c.ProductID, c.BranchID)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, diff)
	}
	return diffs, nil
}

// reconcileKey bloquea el contador, proyecta la suma del libro y, si
// difieren, emite la entrada correctiva que absorbe la deriva en el libro
// (tras ella, suma == contador) más la fila de auditoría. El contador no se
// reescribe: la corrección siempre queda explicada por el libro.
func (uc *ReconcileUseCase) reconcileKey(ctx context.Context, productID, branchID string) (*ReconcileDiff, error) {
	var diff *ReconcileDiff
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		counter, err := repos.Counters.GetForUpdate(ctx, productID, branchID)
		if err != nil {
			return err
		}
		ledgerQty, err := repos.Ledger.SumForKey(ctx, productID, branchID)
		if err != nil {
			return err
		}
		diff = &ReconcileDiff{
			ProductID:  productID,
			BranchID:   branchID,
			CounterQty: counter.Quantity,
			LedgerQty:  ledgerQty,
			Delta:      counter.Quantity.Sub(ledgerQty),
		}
		if diff.Delta.IsZero() {
			return nil
		}
		diff.Drift = true

		res, err := uc.ledgerUC.appendCorrectiveInTx(ctx, repos, AppendInput{
			ProductID:     productID,
			BranchID:      branchID,
			Type:          entity.MovementAdjustment,
			Quantity:      diff.Delta,
			ReferenceType: entity.ReferenceReconciliation,
			Reason:        "reconciliación: deriva contador vs libro",
		})
		if err != nil {
			return err
		}
		diff.CorrectiveEntryID = res.Entry.ID

		return repos.Discrepancies.Create(ctx, &entity.StockDiscrepancy{
			ID:              uuid.New().String(),
			ProductID:       productID,
			BranchID:        branchID,
			CounterQty:      diff.CounterQty,
			LedgerQty:       diff.LedgerQty,
			Delta:           diff.Delta,
			CorrectiveEntry: res.Entry.ID,
			DetectedAt:      time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	if diff.Drift {
		uc.log.Warn().
			Str("product_id", productID).
			Str("branch_id", branchID).
			Str("counter", diff.CounterQty.String()).
			Str("ledger", diff.LedgerQty.String()).
			Str("corrective_entry", diff.CorrectiveEntryID).
			Msg("deriva detectada y sanada")
	}
	return diff, nil
}
