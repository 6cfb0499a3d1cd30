package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// UpdateStockInput entrada del sistema externo (capa HTTP ya autenticada).
// Quantity es magnitud positiva para in/out y valor con signo para
// adjustment.
type UpdateStockInput struct {
	ProductID      string
	BranchID       string
	Type           entity.MovementType // in | out | adjustment
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	Reason         string
	Reference      string
	IdempotencyKey string
	UserID         string
}

// UpdateStock registra una mutación simple de stock (entrada, salida o
// ajuste). Los tipos de traslado y conteo no entran por aquí: tienen su
// propio flujo.
func (uc *LedgerUseCase) UpdateStock(ctx context.Context, in UpdateStockInput) (*AppendResult, error) {
	change, err := resolveChange(in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}
	return uc.Append(ctx, AppendInput{
		ProductID:      in.ProductID,
		BranchID:       in.BranchID,
		Type:           in.Type,
		Quantity:       change,
		UnitCost:       in.UnitCost,
		ReferenceType:  referenceTypeFor(in.Reference),
		ReferenceID:    in.Reference,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         in.UserID,
	})
}

// BulkUpdateStock aplica varias mutaciones en una sola transacción. La clave
// del lote se despliega por ítem como clave+"/<índice>", así un lote
// reintentado deduplica ítem a ítem.
func (uc *LedgerUseCase) BulkUpdateStock(ctx context.Context, updates []UpdateStockInput, batchKey string) ([]*AppendResult, error) {
	if len(updates) == 0 {
		return nil, domain.ErrInvalidInput
	}

	inputs := make([]AppendInput, len(updates))
	for i, u := range updates {
		change, err := resolveChange(u.Type, u.Quantity)
		if err != nil {
			return nil, err
		}
		key := u.IdempotencyKey
		if key == "" && batchKey != "" {
			key = fmt.Sprintf("%s/%d", batchKey, i)
		}
		inputs[i] = AppendInput{
			ProductID:      u.ProductID,
			BranchID:       u.BranchID,
			Type:           u.Type,
			Quantity:       change,
			UnitCost:       u.UnitCost,
			ReferenceType:  referenceTypeFor(u.Reference),
			ReferenceID:    u.Reference,
			Reason:         u.Reason,
			IdempotencyKey: key,
			UserID:         u.UserID,
		}
	}

	results := make([]*AppendResult, len(inputs))
	run := func() error {
		return uc.txRunner.Run(ctx, func(repos TxRepos) error {
			for i, in := range inputs {
				res, err := uc.AppendInTx(ctx, repos, in)
				if err != nil {
					return err
				}
				results[i] = res
			}
			return nil
		})
	}
	err := run()
	for retries := 0; errors.Is(err, errDuplicateRace) && retries < 2; retries++ {
		// Otro reintento del lote ganó alguna clave: la tx hizo rollback y
		// las entradas ganadoras ya son visibles. Reejecutar deduplica
		// ítem a ítem en vez de propagar la señal interna al caller.
		err = run()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// resolveChange convierte el tipo + magnitud del request en un cambio con
// signo para el libro. Solo in/out/adjustment son mutaciones directas.
func resolveChange(t entity.MovementType, qty decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case entity.MovementIn:
		if !qty.GreaterThan(decimal.Zero) {
			return decimal.Zero, domain.ErrInvalidInput
		}
		return qty, nil
	case entity.MovementOut:
		if !qty.GreaterThan(decimal.Zero) {
			return decimal.Zero, domain.ErrInvalidInput
		}
		return qty.Neg(), nil
	case entity.MovementAdjustment:
		if qty.IsZero() {
			return decimal.Zero, domain.ErrInvalidInput
		}
		return qty, nil
	}
	return decimal.Zero, domain.ErrInvalidInput
}

func referenceTypeFor(reference string) string {
	if reference == "" {
		return ""
	}
	return entity.ReferenceSale
}
