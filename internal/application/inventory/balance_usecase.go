package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// BalanceUseCase proyecta balances desde el libro y sirve las consultas de
// solo lectura (balance, historial, stock bajo, alertas). El balance
// proyectado es la verdad; el contador es solo la caché de lectura rápida.
type BalanceUseCase struct {
	ledgerRepo  repository.LedgerRepository
	counterRepo repository.StockCounterRepository
}

// NewBalanceUseCase construye el caso de uso con repositorios atados al pool.
func NewBalanceUseCase(ledgerRepo repository.LedgerRepository, counterRepo repository.StockCounterRepository) *BalanceUseCase {
	return &BalanceUseCase{ledgerRepo: ledgerRepo, counterRepo: counterRepo}
}

// Project pliega todas las entradas del libro para la clave: el balance
// "verdad". branchID vacío suma el producto en todas las sucursales.
func (uc *BalanceUseCase) Project(ctx context.Context, productID, branchID string) (decimal.Decimal, error) {
	if productID == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	if branchID == "" {
		return uc.ledgerRepo.SumForProduct(ctx, productID)
	}
	return uc.ledgerRepo.SumForKey(ctx, productID, branchID)
}

// Balance respuesta de consulta de balance: contador rápido y proyección.
type Balance struct {
	ProductID string
	BranchID  string
	Counter   decimal.Decimal // lectura rápida (denormalizado)
	Projected decimal.Decimal // suma del libro (verdad)
}

// GetProductBalance devuelve el contador y la proyección para la clave.
// Que difieran es deriva transitoria: la reconciliación la sana.
func (uc *BalanceUseCase) GetProductBalance(ctx context.Context, productID, branchID string) (*Balance, error) {
	projected, err := uc.Project(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	var counter decimal.Decimal
	if branchID == "" {
		rows, err := uc.counterRepo.ListByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		for _, c := range rows {
			counter = counter.Add(c.Quantity)
		}
	} else {
		c, err := uc.counterRepo.Get(ctx, productID, branchID)
		if err != nil {
			return nil, err
		}
		counter = c.Quantity
	}
	return &Balance{ProductID: productID, BranchID: branchID, Counter: counter, Projected: projected}, nil
}

// StockHistory página del historial de movimientos de un producto.
type StockHistory struct {
	Entries []*entity.LedgerEntry
	Total   int
	Page    int
	Limit   int
}

// GetStockHistory devuelve el historial paginado (página 1-based).
func (uc *BalanceUseCase) GetStockHistory(ctx context.Context, productID string, page, limit int) (*StockHistory, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	total, err := uc.ledgerRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	entries, err := uc.ledgerRepo.ListByProduct(ctx, productID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &StockHistory{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}

// GetLowStockProducts devuelve las filas con cantidad <= punto de reorden.
func (uc *BalanceUseCase) GetLowStockProducts(ctx context.Context) ([]*entity.StockAlert, error) {
	rows, err := uc.counterRepo.ListAtOrBelowMin(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		r.Severity = classify(r.Quantity)
	}
	return rows, nil
}

// GetStockAlerts filtra las alertas accionables: agotados y negativos.
func (uc *BalanceUseCase) GetStockAlerts(ctx context.Context) ([]*entity.StockAlert, error) {
	rows, err := uc.GetLowStockProducts(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]*entity.StockAlert, 0, len(rows))
	for _, r := range rows {
		if r.Severity != entity.AlertLowStock {
			alerts = append(alerts, r)
		}
	}
	return alerts, nil
}

func classify(qty decimal.Decimal) string {
	switch {
	case qty.IsNegative():
		return entity.AlertNegative
	case qty.IsZero():
		return entity.AlertOutOfStock
	default:
		return entity.AlertLowStock
	}
}
