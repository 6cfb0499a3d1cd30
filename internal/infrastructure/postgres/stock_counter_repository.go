package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

var _ repository.StockCounterRepository = (*StockCounterRepo)(nil)

// StockCounterRepo implementación del contador denormalizado sobre
// PostgreSQL (usable con pool o tx). branch_id vacío se almacena como ''
// para que la PK (product_id, branch_id) cubra el caso sin sucursal.
type StockCounterRepo struct {
	q Querier
}

// NewStockCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockCounterRepository(q Querier) *StockCounterRepo {
	return &StockCounterRepo{q: q}
}

// Get devuelve el contador; si no existe retorna uno en cero.
func (r *StockCounterRepo) Get(ctx context.Context, productID, branchID string) (*entity.StockCounter, error) {
	return r.get(ctx, productID, branchID, false)
}

// GetForUpdate obtiene el contador y bloquea la fila (SELECT FOR UPDATE).
func (r *StockCounterRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockCounter, error) {
	return r.get(ctx, productID, branchID, true)
}

func (r *StockCounterRepo) get(ctx context.Context, productID, branchID string, forUpdate bool) (*entity.StockCounter, error) {
	query := `
		SELECT product_id, branch_id, quantity, updated_at
		FROM stock_counters WHERE product_id = $1 AND branch_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var c entity.StockCounter
	err := r.q.QueryRow(ctx, query, productID, branchID).Scan(
		&c.ProductID, &c.BranchID, &c.Quantity, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if forUpdate {
				// Sin fila no hay nada que bloquear: dos primeras
				// mutaciones concurrentes leerían cero y la segunda
				// pisaría la actualización de la primera. Se materializa
				// la fila en cero y se relee con el lock real.
				return r.lockZeroRow(ctx, productID, branchID)
			}
			return &entity.StockCounter{ProductID: productID, BranchID: branchID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock counter: %w", err)
	}
	return &c, nil
}

// lockZeroRow crea la fila del contador en cero si no existe y la bloquea.
// El ON CONFLICT DO NOTHING espera a cualquier insert concurrente, así el
// SELECT FOR UPDATE posterior siempre encuentra y bloquea una fila.
func (r *StockCounterRepo) lockZeroRow(ctx context.Context, productID, branchID string) (*entity.StockCounter, error) {
	insert := `
		INSERT INTO stock_counters (product_id, branch_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, branch_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, branchID); err != nil {
		return nil, fmt.Errorf("init stock counter: %w", err)
	}
	query := `
		SELECT product_id, branch_id, quantity, updated_at
		FROM stock_counters WHERE product_id = $1 AND branch_id = $2 FOR UPDATE`
	var c entity.StockCounter
	if err := r.q.QueryRow(ctx, query, productID, branchID).Scan(
		&c.ProductID, &c.BranchID, &c.Quantity, &c.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("get stock counter: %w", err)
	}
	return &c, nil
}

// Upsert inserta o actualiza la cantidad del contador.
func (r *StockCounterRepo) Upsert(ctx context.Context, c *entity.StockCounter) error {
	query := `
		INSERT INTO stock_counters (product_id, branch_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, c.ProductID, c.BranchID, c.Quantity); err != nil {
		return fmt.Errorf("upsert stock counter: %w", err)
	}
	return nil
}

// ListKeys devuelve todos los pares (producto, sucursal) con contador.
func (r *StockCounterRepo) ListKeys(ctx context.Context) ([]*entity.StockCounter, error) {
	return r.list(ctx, `SELECT product_id, branch_id, quantity, updated_at FROM stock_counters ORDER BY product_id, branch_id`)
}

// ListByProduct devuelve los contadores de un producto.
func (r *StockCounterRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockCounter, error) {
	return r.list(ctx,
		`SELECT product_id, branch_id, quantity, updated_at FROM stock_counters WHERE product_id = $1 ORDER BY branch_id`,
		productID)
}

// ListByBranch devuelve los contadores de una sucursal.
func (r *StockCounterRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.StockCounter, error) {
	return r.list(ctx,
		`SELECT product_id, branch_id, quantity, updated_at FROM stock_counters WHERE branch_id = $1 ORDER BY product_id`,
		branchID)
}

func (r *StockCounterRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockCounter, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock counters: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockCounter
	for rows.Next() {
		var c entity.StockCounter
		if err := rows.Scan(&c.ProductID, &c.BranchID, &c.Quantity, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock counter: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListAtOrBelowMin devuelve filas con cantidad <= min_stock del producto.
func (r *StockCounterRepo) ListAtOrBelowMin(ctx context.Context) ([]*entity.StockAlert, error) {
	query := `
		SELECT c.product_id, p.sku, p.name, c.branch_id, c.quantity, p.min_stock
		FROM stock_counters c
		JOIN products p ON p.id = c.product_id
		WHERE c.quantity <= p.min_stock
		ORDER BY c.quantity ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockAlert
	for rows.Next() {
		var a entity.StockAlert
		if err := rows.Scan(&a.ProductID, &a.SKU, &a.Name, &a.BranchID, &a.Quantity, &a.MinStock); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

var _ repository.DiscrepancyRepository = (*DiscrepancyRepo)(nil)

// DiscrepancyRepo persistencia de la auditoría de derivas.
type DiscrepancyRepo struct {
	q Querier
}

// NewDiscrepancyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDiscrepancyRepository(q Querier) *DiscrepancyRepo {
	return &DiscrepancyRepo{q: q}
}

// Create inserta el registro de deriva.
func (r *DiscrepancyRepo) Create(ctx context.Context, d *entity.StockDiscrepancy) error {
	query := `
		INSERT INTO stock_discrepancies (id, product_id, branch_id, counter_qty, ledger_qty, delta, corrective_entry_id, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.ProductID, d.BranchID, d.CounterQty, d.LedgerQty, d.Delta, d.CorrectiveEntry, d.DetectedAt)
	if err != nil {
		return fmt.Errorf("create discrepancy: %w", err)
	}
	return nil
}

// ListByProduct lista derivas registradas de un producto, recientes primero.
func (r *DiscrepancyRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockDiscrepancy, error) {
	query := `
		SELECT id, product_id, branch_id, counter_qty, ledger_qty, delta, corrective_entry_id, detected_at
		FROM stock_discrepancies WHERE product_id = $1
		ORDER BY detected_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list discrepancies: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockDiscrepancy
	for rows.Next() {
		var d entity.StockDiscrepancy
		if err := rows.Scan(&d.ID, &d.ProductID, &d.BranchID, &d.CounterQty, &d.LedgerQty, &d.Delta, &d.CorrectiveEntry, &d.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan discrepancy: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
