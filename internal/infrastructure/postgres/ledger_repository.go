package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación del libro sobre PostgreSQL (usable con pool o
// tx). La tabla solo recibe INSERT y SELECT: no hay UPDATE ni DELETE.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, product_id, branch_id, movement_type, quantity_change, unit_cost,
	reference_type, reference_id, reason, idempotency_key, created_at, created_by`

// Create inserta la entrada. La restricción única parcial sobre
// (movement_type, idempotency_key) convierte un reintento en ErrDuplicate.
func (r *LedgerRepo) Create(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO stock_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.ProductID, nullable(e.BranchID), string(e.Type), e.QuantityChange, e.UnitCost,
		nullable(e.ReferenceType), nullable(e.ReferenceID), nullable(e.Reason),
		nullable(e.IdempotencyKey), e.CreatedAt, nullable(e.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID; nil si no existe.
func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	row := r.q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM stock_ledger WHERE id = $1`, id)
	return scanLedgerEntry(row)
}

// GetByTypeAndKey busca la entrada existente para un (tipo, clave); nil si
// no existe.
func (r *LedgerRepo) GetByTypeAndKey(ctx context.Context, movType entity.MovementType, key string) (*entity.LedgerEntry, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM stock_ledger WHERE movement_type = $1 AND idempotency_key = $2`,
		string(movType), key)
	return scanLedgerEntry(row)
}

// SumForKey suma quantity_change para el (producto, sucursal) exacto;
// branchID vacío agrupa las entradas sin sucursal.
func (r *LedgerRepo) SumForKey(ctx context.Context, productID, branchID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM stock_ledger
		WHERE product_id = $1 AND branch_id IS NOT DISTINCT FROM $2`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, nullable(branchID)).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger key: %w", err)
	}
	return sum, nil
}

// SumForProduct suma quantity_change del producto en todas las sucursales.
func (r *LedgerRepo) SumForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity_change), 0) FROM stock_ledger WHERE product_id = $1`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger product: %w", err)
	}
	return sum, nil
}

// ListByProduct lista entradas del producto, más recientes primero.
func (r *LedgerRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	return collectLedgerEntries(rows)
}

// CountByProduct cuenta las entradas del producto (para paginación).
func (r *LedgerRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_ledger WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

// ListByReference lista las entradas originadas por una referencia externa
// (traslado, conteo), en orden de creación.
func (r *LedgerRepo) ListByReference(ctx context.Context, refType, refID string) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("list ledger by reference: %w", err)
	}
	defer rows.Close()
	return collectLedgerEntries(rows)
}

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	var movType string
	var branchID, refType, refID, reason, key, createdBy *string
	err := row.Scan(
		&e.ID, &e.ProductID, &branchID, &movType, &e.QuantityChange, &e.UnitCost,
		&refType, &refID, &reason, &key, &e.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.Type = entity.MovementType(movType)
	e.BranchID = fromNullable(branchID)
	e.ReferenceType = fromNullable(refType)
	e.ReferenceID = fromNullable(refID)
	e.Reason = fromNullable(reason)
	e.IdempotencyKey = fromNullable(key)
	e.CreatedBy = fromNullable(createdBy)
	return &e, nil
}

func collectLedgerEntries(rows pgx.Rows) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
