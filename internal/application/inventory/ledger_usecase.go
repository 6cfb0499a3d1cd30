package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

// LedgerUseCase es la única puerta de escritura al libro de inventario:
// valida, deduplica por clave de idempotencia y aplica append + contador
// dentro de una misma transacción.
type LedgerUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner, log *logger.Logger) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, log: log}
}

// AppendInput entrada para un append directo al libro. Quantity ya viene
// con signo resuelto (positivo aumenta stock).
type AppendInput struct {
	ProductID      string
	BranchID       string
	Type           entity.MovementType
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	ReferenceType  string
	ReferenceID    string
	Reason         string
	IdempotencyKey string
	UserID         string
}

// AppendResult resultado de un append: la entrada (posiblemente
// deduplicada), el balance resultante del contador y una advertencia si el
// balance quedó negativo (no es error: ajustes en investigación pueden
// dejarlo así).
type AppendResult struct {
	Entry        *entity.LedgerEntry
	Balance      decimal.Decimal
	Deduplicated bool
	Warning      string
}

// WarningNegativeBalance advertencia estándar de balance negativo.
const WarningNegativeBalance = "el balance resultante es negativo"

// errDuplicateRace señal interna: otro proceso insertó la misma clave entre
// nuestra verificación y el insert. Se aborta la tx y se relee la entrada.
var errDuplicateRace = errors.New("carrera de idempotencia")

// Append valida la entrada y la aplica en una transacción: bloquea la fila
// del contador, la actualiza y persiste la entrada del libro. Si la clave de
// idempotencia ya existe para el mismo tipo, devuelve la entrada existente
// sin reaplicar el contador: los reintentos del cliente son seguros.
func (uc *LedgerUseCase) Append(ctx context.Context, in AppendInput) (*AppendResult, error) {
	if err := validateAppend(in); err != nil {
		return nil, err
	}

	var res *AppendResult
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		var err error
		res, err = uc.AppendInTx(ctx, repos, in)
		return err
	})
	if errors.Is(err, errDuplicateRace) {
		// Perdimos la carrera contra otro reintento: la tx hizo rollback y
		// la entrada ganadora ya está visible. Devolverla como deduplicada.
		return uc.lookupExisting(ctx, in)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AppendInTx aplica el append usando los repositorios de la transacción del
// caller. Lo usan los flujos de traslado y conteo para que sus piernas de
// libro compartan tx con su máquina de estados.
func (uc *LedgerUseCase) AppendInTx(ctx context.Context, repos TxRepos, in AppendInput) (*AppendResult, error) {
	if err := validateAppend(in); err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		existing, err := repos.Ledger.GetByTypeAndKey(ctx, in.Type, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := matchesExisting(existing, in); err != nil {
				return nil, err
			}
			counter, err := repos.Counters.Get(ctx, in.ProductID, in.BranchID)
			if err != nil {
				return nil, err
			}
			return &AppendResult{Entry: existing, Balance: counter.Quantity, Deduplicated: true}, nil
		}
	}

	return uc.applyInTx(ctx, repos, in, true)
}

// appendCorrectiveInTx inserta una entrada sin tocar el contador. Solo lo
// usa la reconciliación: la entrada correctiva absorbe la deriva en el
// libro para que contador y suma vuelvan a coincidir.
func (uc *LedgerUseCase) appendCorrectiveInTx(ctx context.Context, repos TxRepos, in AppendInput) (*AppendResult, error) {
	return uc.applyInTx(ctx, repos, in, false)
}

func (uc *LedgerUseCase) applyInTx(ctx context.Context, repos TxRepos, in AppendInput, applyCounter bool) (*AppendResult, error) {
	now := time.Now()
	entry := &entity.LedgerEntry{
		ID:             uuid.New().String(),
		ProductID:      in.ProductID,
		BranchID:       in.BranchID,
		Type:           in.Type,
		QuantityChange: in.Quantity,
		UnitCost:       in.UnitCost,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      now,
		CreatedBy:      in.UserID,
	}

	var balance decimal.Decimal
	if applyCounter {
		// Bloquea la fila del contador (SELECT FOR UPDATE) para evitar
		// condiciones de carrera entre mutaciones concurrentes.
		counter, err := repos.Counters.GetForUpdate(ctx, in.ProductID, in.BranchID)
		if err != nil {
			return nil, err
		}
		counter.Quantity = counter.Quantity.Add(in.Quantity)
		counter.UpdatedAt = now
		if err := repos.Counters.Upsert(ctx, counter); err != nil {
			return nil, err
		}
		balance = counter.Quantity
	} else {
		counter, err := repos.Counters.Get(ctx, in.ProductID, in.BranchID)
		if err != nil {
			return nil, err
		}
		balance = counter.Quantity
	}

	if err := repos.Ledger.Create(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, errDuplicateRace
		}
		return nil, err
	}

	res := &AppendResult{Entry: entry, Balance: balance}
	if balance.IsNegative() {
		res.Warning = WarningNegativeBalance
		uc.log.Warn().
			Str("product_id", in.ProductID).
			Str("branch_id", in.BranchID).
			Str("balance", balance.String()).
			Msg("balance negativo tras el movimiento")
	}
	return res, nil
}

// lookupExisting relee la entrada ganadora tras una carrera de idempotencia.
func (uc *LedgerUseCase) lookupExisting(ctx context.Context, in AppendInput) (*AppendResult, error) {
	var res *AppendResult
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		existing, err := repos.Ledger.GetByTypeAndKey(ctx, in.Type, in.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("entrada desaparecida tras conflicto de idempotencia: %w", domain.ErrConflict)
		}
		if err := matchesExisting(existing, in); err != nil {
			return err
		}
		counter, err := repos.Counters.Get(ctx, in.ProductID, in.BranchID)
		if err != nil {
			return err
		}
		res = &AppendResult{Entry: existing, Balance: counter.Quantity, Deduplicated: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// validateAppend rechaza tipo de movimiento desconocido y cantidades sin
// sentido. Un balance negativo NO se rechaza aquí: se reporta como warning.
func validateAppend(in AppendInput) error {
	if in.ProductID == "" || !in.Type.Valid() {
		return domain.ErrInvalidInput
	}
	if in.Quantity.IsZero() {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementIn:
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
	case entity.MovementOut, entity.MovementTransferOut:
		if !in.Quantity.LessThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
	case entity.MovementTransferIn:
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// matchesExisting verifica que un reintento con la misma clave traiga el
// mismo payload; si difiere es una colisión, no un reintento.
func matchesExisting(existing *entity.LedgerEntry, in AppendInput) error {
	if existing.ProductID != in.ProductID ||
		existing.BranchID != in.BranchID ||
		!existing.QuantityChange.Equal(in.Quantity) {
		return domain.ErrKeyPayloadMismatch
	}
	return nil
}
