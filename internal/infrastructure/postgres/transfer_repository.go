package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de traslados sobre PostgreSQL (usable con
// pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, product_id, quantity, from_branch_id, to_branch_id, status,
	requested_by, shipped_by, received_by, idempotency_key, reference,
	created_at, shipped_at, received_at, canceled_at`

// Create inserta el traslado en requested. Clave de idempotencia única.
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.ProductID, t.Quantity, t.FromBranchID, t.ToBranchID, string(t.Status),
		nullable(t.RequestedBy), nullable(t.ShippedBy), nullable(t.ReceivedBy),
		t.IdempotencyKey, nullable(t.Reference),
		t.CreatedAt, t.ShippedAt, t.ReceivedAt, t.CanceledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado; nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	row := r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`, id)
	return scanTransfer(row)
}

// GetByKey busca por clave de idempotencia; nil si no existe.
func (r *TransferRepo) GetByKey(ctx context.Context, key string) (*entity.StockTransfer, error) {
	row := r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE idempotency_key = $1`, key)
	return scanTransfer(row)
}

// GetForUpdate bloquea la fila del traslado dentro de la tx.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	row := r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id)
	return scanTransfer(row)
}

// UpdateStatus persiste estado y sellos de tiempo/actor.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfers
		SET status = $2, shipped_by = $3, received_by = $4,
		    shipped_at = $5, received_at = $6, canceled_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, string(t.Status), nullable(t.ShippedBy), nullable(t.ReceivedBy),
		t.ShippedAt, t.ReceivedAt, t.CanceledAt)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista traslados, opcionalmente por estado, recientes primero.
func (r *TransferRepo) List(ctx context.Context, status entity.TransferStatus, limit, offset int) ([]*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	var status string
	var requestedBy, shippedBy, receivedBy, reference *string
	err := row.Scan(
		&t.ID, &t.ProductID, &t.Quantity, &t.FromBranchID, &t.ToBranchID, &status,
		&requestedBy, &shippedBy, &receivedBy, &t.IdempotencyKey, &reference,
		&t.CreatedAt, &t.ShippedAt, &t.ReceivedAt, &t.CanceledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	t.Status = entity.TransferStatus(status)
	t.RequestedBy = fromNullable(requestedBy)
	t.ShippedBy = fromNullable(shippedBy)
	t.ReceivedBy = fromNullable(receivedBy)
	t.Reference = fromNullable(reference)
	return &t, nil
}
