package inventory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/infrastructure/memory"
)

func entradaEnSucursal(branchID, qty string) inventory.AppendInput {
	return inventory.AppendInput{
		ProductID: testProductID,
		BranchID:  branchID,
		Type:      entity.MovementIn,
		Quantity:  dec(qty),
		UserID:    testUserID,
	}
}

func TestGetStockHistory_Paginacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.appendIn(t, "1", fmt.Sprintf("mov-%03d", i))
	}

	page1, err := f.balanceUC.GetStockHistory(ctx, testProductID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page1.Total)
	assert.Len(t, page1.Entries, 2)

	page3, err := f.balanceUC.GetStockHistory(ctx, testProductID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Entries, 1, "la última página trae el resto")

	// Página y límite fuera de rango caen a valores sanos.
	fallback, err := f.balanceUC.GetStockHistory(ctx, testProductID, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.Page)
	assert.Equal(t, 50, fallback.Limit)

	_, err = f.balanceUC.GetStockHistory(ctx, "", 1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProject_SinSucursalSumaTodas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "10", "") // sucursal testBranchID
	_, err := f.ledgerUC.Append(ctx, entradaEnSucursal("otra-sucursal", "5"))
	require.NoError(t, err)

	porSucursal, err := f.balanceUC.Project(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, porSucursal.Equal(dec("10")))

	global, err := f.balanceUC.Project(ctx, testProductID, "")
	require.NoError(t, err)
	assert.True(t, global.Equal(dec("15")), "sin sucursal se proyecta el total")
}

func TestGetStockAlerts_ClasificaSeveridad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	products := memory.NewProductRepo(f.store)
	counters := memory.NewStockCounterRepo(f.store)
	seed := []struct {
		id  string
		min string
		qty string
	}{
		{"p-bajo", "10", "4"},
		{"p-agotado", "10", "0"},
		{"p-negativo", "10", "-2"},
		{"p-sano", "10", "50"},
	}
	for _, s := range seed {
		require.NoError(t, products.Create(ctx, &entity.Product{
			ID: s.id, SKU: "sku-" + s.id, Name: s.id, MinStock: dec(s.min),
		}))
		require.NoError(t, counters.Upsert(ctx, &entity.StockCounter{
			ProductID: s.id, BranchID: testBranchID, Quantity: dec(s.qty), UpdatedAt: time.Now(),
		}))
	}

	low, err := f.balanceUC.GetLowStockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, low, 3, "el producto sano no alerta")

	severidad := map[string]string{}
	for _, a := range low {
		severidad[a.ProductID] = a.Severity
	}
	assert.Equal(t, entity.AlertLowStock, severidad["p-bajo"])
	assert.Equal(t, entity.AlertOutOfStock, severidad["p-agotado"])
	assert.Equal(t, entity.AlertNegative, severidad["p-negativo"])

	// Las alertas accionables excluyen el simple stock bajo.
	alerts, err := f.balanceUC.GetStockAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.NotEqual(t, entity.AlertLowStock, a.Severity)
	}
}
