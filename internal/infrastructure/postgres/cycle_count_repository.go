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

var _ repository.CycleCountRepository = (*CycleCountRepo)(nil)

// CycleCountRepo implementación de conteos físicos sobre PostgreSQL
// (usable con pool o tx). Los ítems viven en su tabla hija y se cargan
// siempre con el conteo.
type CycleCountRepo struct {
	q Querier
}

// NewCycleCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCycleCountRepository(q Querier) *CycleCountRepo {
	return &CycleCountRepo{q: q}
}

const countColumns = `id, branch_id, type, status, tolerance_pct, created_by, created_at, started_at, completed_at`

// Create inserta el conteo (sin ítems; esos llegan con la precarga).
func (r *CycleCountRepo) Create(ctx context.Context, c *entity.CycleCount) error {
	query := `
		INSERT INTO cycle_counts (` + countColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.BranchID, c.Type, string(c.Status), c.TolerancePct,
		nullable(c.CreatedBy), c.CreatedAt, c.StartedAt, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("create cycle count: %w", err)
	}
	return nil
}

// GetByID devuelve el conteo con sus ítems ordenados; nil si no existe.
func (r *CycleCountRepo) GetByID(ctx context.Context, id string) (*entity.CycleCount, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la fila del conteo dentro de la tx y carga los ítems.
func (r *CycleCountRepo) GetForUpdate(ctx context.Context, id string) (*entity.CycleCount, error) {
	return r.get(ctx, id, true)
}

func (r *CycleCountRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.CycleCount, error) {
	query := `SELECT ` + countColumns + ` FROM cycle_counts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	c, err := scanCycleCount(r.q.QueryRow(ctx, query, id))
	if err != nil || c == nil {
		return c, err
	}
	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return c, nil
}

// UpdateStatus persiste estado y sellos de tiempo.
func (r *CycleCountRepo) UpdateStatus(ctx context.Context, c *entity.CycleCount) error {
	query := `
		UPDATE cycle_counts
		SET status = $2, started_at = $3, completed_at = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID, string(c.Status), c.StartedAt, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("update cycle count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateItems inserta los ítems precargados preservando el orden.
func (r *CycleCountRepo) CreateItems(ctx context.Context, countID string, items []entity.CycleCountItem) error {
	query := `
		INSERT INTO cycle_count_items (id, cycle_count_id, product_id, expected_qty, counted_qty, counted_by, reason, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, item := range items {
		_, err := r.q.Exec(ctx, query,
			item.ID, countID, item.ProductID, item.ExpectedQty,
			item.CountedQty, nullable(item.CountedBy), nullable(item.Reason), i)
		if err != nil {
			return fmt.Errorf("create cycle count item: %w", err)
		}
	}
	return nil
}

// GetItem devuelve un ítem del conteo; nil si no existe.
func (r *CycleCountRepo) GetItem(ctx context.Context, countID, itemID string) (*entity.CycleCountItem, error) {
	query := `
		SELECT id, cycle_count_id, product_id, expected_qty, counted_qty, counted_by, reason
		FROM cycle_count_items WHERE cycle_count_id = $1 AND id = $2`
	return scanCycleCountItem(r.q.QueryRow(ctx, query, countID, itemID))
}

// UpdateItem persiste cantidad contada, actor y motivo. expected_qty no se
// toca nunca: es el snapshot congelado de la precarga.
func (r *CycleCountRepo) UpdateItem(ctx context.Context, item *entity.CycleCountItem) error {
	query := `
		UPDATE cycle_count_items
		SET counted_qty = $2, counted_by = $3, reason = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, item.ID, item.CountedQty, nullable(item.CountedBy), nullable(item.Reason))
	if err != nil {
		return fmt.Errorf("update cycle count item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista conteos con filtros opcionales, recientes primero (sin ítems).
func (r *CycleCountRepo) List(ctx context.Context, branchID string, status entity.CycleCountStatus, limit, offset int) ([]*entity.CycleCount, error) {
	query := `SELECT ` + countColumns + ` FROM cycle_counts`
	var conds []string
	var args []any
	if branchID != "" {
		args = append(args, branchID)
		conds = append(conds, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, string(status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycle counts: %w", err)
	}
	defer rows.Close()
	var out []*entity.CycleCount
	for rows.Next() {
		c, err := scanCycleCount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CycleCountRepo) listItems(ctx context.Context, countID string) ([]entity.CycleCountItem, error) {
	query := `
		SELECT id, cycle_count_id, product_id, expected_qty, counted_qty, counted_by, reason
		FROM cycle_count_items WHERE cycle_count_id = $1
		ORDER BY position ASC`
	rows, err := r.q.Query(ctx, query, countID)
	if err != nil {
		return nil, fmt.Errorf("list cycle count items: %w", err)
	}
	defer rows.Close()
	var out []entity.CycleCountItem
	for rows.Next() {
		item, err := scanCycleCountItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func scanCycleCount(row pgx.Row) (*entity.CycleCount, error) {
	var c entity.CycleCount
	var status string
	var createdBy *string
	err := row.Scan(&c.ID, &c.BranchID, &c.Type, &status, &c.TolerancePct,
		&createdBy, &c.CreatedAt, &c.StartedAt, &c.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cycle count: %w", err)
	}
	c.Status = entity.CycleCountStatus(status)
	c.CreatedBy = fromNullable(createdBy)
	return &c, nil
}

func scanCycleCountItem(row pgx.Row) (*entity.CycleCountItem, error) {
	var item entity.CycleCountItem
	var countedBy, reason *string
	err := row.Scan(&item.ID, &item.CycleCountID, &item.ProductID, &item.ExpectedQty,
		&item.CountedQty, &countedBy, &reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cycle count item: %w", err)
	}
	item.CountedBy = fromNullable(countedBy)
	item.Reason = fromNullable(reason)
	return &item, nil
}
