package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/infrastructure/memory"
)

// corromperContador simula deriva escribiendo el contador por fuera del
// flujo de append (un bug, una escritura manual en BD).
func corromperContador(t *testing.T, store *memory.Store, qty string) {
	t.Helper()
	repo := memory.NewStockCounterRepo(store)
	require.NoError(t, repo.Upsert(context.Background(), &entity.StockCounter{
		ProductID: testProductID,
		BranchID:  testBranchID,
		Quantity:  dec(qty),
		UpdatedAt: time.Now(),
	}))
}

// Tras reconciliar, contador == suma del libro, y la corrección queda
// explicada por una entrada correctiva, nunca por reescritura del contador.
func TestReconcile_SanaContadorCorrupto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "10", "")
	corromperContador(t, f.store, "13") // libro suma 10, contador dice 13

	diffs, err := f.reconcileUC.ReconcileProduct(ctx, testProductID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)

	d := diffs[0]
	assert.True(t, d.Drift)
	assert.True(t, d.CounterQty.Equal(dec("13")))
	assert.True(t, d.LedgerQty.Equal(dec("10")))
	assert.True(t, d.Delta.Equal(dec("3")))
	require.NotEmpty(t, d.CorrectiveEntryID)

	// La entrada correctiva absorbe la deriva: suma del libro == contador.
	b, err := f.balanceUC.GetProductBalance(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(b.Projected),
		"tras reconciliar: contador %s, proyección %s", b.Counter, b.Projected)
	assert.True(t, b.Counter.Equal(dec("13")),
		"el contador no se reescribe; el libro lo alcanza")

	entry, err := memory.NewLedgerRepo(f.store).GetByID(ctx, d.CorrectiveEntryID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, entity.MovementAdjustment, entry.Type)
	assert.Equal(t, entity.ReferenceReconciliation, entry.ReferenceType)
	assert.True(t, entry.QuantityChange.Equal(dec("3")))
}

func TestReconcile_SinDerivaNoTocaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "10", "")

	diffs, err := f.reconcileUC.ReconcileProduct(ctx, testProductID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.False(t, diffs[0].Drift, "sin deriva no hay corrección")
	assert.Empty(t, diffs[0].CorrectiveEntryID)

	// El libro no gana entradas espurias.
	entries, err := memory.NewLedgerRepo(f.store).ListByProduct(ctx, testProductID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// Deriva negativa: el contador quedó por debajo del libro.
func TestReconcile_DerivaNegativa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "10", "")
	corromperContador(t, f.store, "4")

	diffs, err := f.reconcileUC.ReconcileProduct(ctx, testProductID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.True(t, diffs[0].Delta.Equal(dec("-6")))

	b, err := f.balanceUC.GetProductBalance(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(b.Projected))
}

// La reconciliación es idempotente: una segunda pasada no encuentra deriva.
func TestReconcile_SegundaPasadaLimpia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "10", "")
	corromperContador(t, f.store, "13")

	_, err := f.reconcileUC.ReconcileAll(ctx)
	require.NoError(t, err)

	diffs, err := f.reconcileUC.ReconcileAll(ctx)
	require.NoError(t, err)
	for _, d := range diffs {
		assert.False(t, d.Drift, "la segunda pasada no debe corregir nada")
	}
}

// La deriva detectada queda en el registro de auditoría.
func TestReconcile_RegistraDiscrepancia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "10", "")
	corromperContador(t, f.store, "13")

	_, err := f.reconcileUC.ReconcileProduct(ctx, testProductID)
	require.NoError(t, err)

	discs, err := memory.NewDiscrepancyRepo(f.store).ListByProduct(ctx, testProductID, 10, 0)
	require.NoError(t, err)
	require.Len(t, discs, 1)
	assert.True(t, discs[0].Delta.Equal(dec("3")))
	assert.NotEmpty(t, discs[0].CorrectiveEntry)
}
