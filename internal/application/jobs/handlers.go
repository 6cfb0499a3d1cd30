package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// ReconcileProductPayload payload de la tarea reconcile_product.
type ReconcileProductPayload struct {
	ProductID string `json:"product_id"`
}

// RegisterInventoryHandlers registra los handlers de consistencia diferida:
// barridos de reconciliación programados y escaneo de stock bajo.
func RegisterInventoryHandlers(w *Worker, reconcileUC *inventory.ReconcileUseCase, balanceUC *inventory.BalanceUseCase, log *logger.Logger) {
	w.Register(entity.JobTypeReconcileProduct, func(ctx context.Context, payload []byte) error {
		var p ReconcileProductPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("payload reconcile_product: %w", err)
		}
		diffs, err := reconcileUC.ReconcileProduct(ctx, p.ProductID)
		if err != nil {
			return err
		}
		logDrift(log, diffs)
		return nil
	})

	w.Register(entity.JobTypeReconcileAll, func(ctx context.Context, _ []byte) error {
		diffs, err := reconcileUC.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		logDrift(log, diffs)
		return nil
	})

	w.Register(entity.JobTypeLowStockScan, func(ctx context.Context, _ []byte) error {
		alerts, err := balanceUC.GetStockAlerts(ctx)
		if err != nil {
			return err
		}
		for _, a := range alerts {
			log.Warn().
				Str("product_id", a.ProductID).
				Str("branch_id", a.BranchID).
				Str("severity", a.Severity).
				Str("quantity", a.Quantity.String()).
				Msg("alerta de stock")
		}
		return nil
	})
}

func logDrift(log *logger.Logger, diffs []*inventory.ReconcileDiff) {
	healed := 0
	for _, d := range diffs {
		if d.Drift {
			healed++
		}
	}
	log.Info().Int("claves", len(diffs)).Int("sanadas", healed).Msg("barrido de reconciliación")
}
