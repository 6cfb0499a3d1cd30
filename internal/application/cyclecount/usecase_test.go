package cyclecount_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventory/internal/application/cyclecount"
	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

const (
	productID = "00000000-0000-0000-0000-00000000000a"
	branchID  = "00000000-0000-0000-0000-0000000000aa"
	userID    = "00000000-0000-0000-0000-000000000001"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store     *memory.Store
	uc        *cyclecount.UseCase
	ledgerUC  *inventory.LedgerUseCase
	balanceUC *inventory.BalanceUseCase
}

// newFixture siembra la sucursal, un producto y 100 unidades en el libro.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	log := logger.Nop()

	ledgerUC := inventory.NewLedgerUseCase(txRunner, log)
	balanceUC := inventory.NewBalanceUseCase(memory.NewLedgerRepo(store), memory.NewStockCounterRepo(store))
	uc := cyclecount.NewUseCase(txRunner, ledgerUC, balanceUC,
		memory.NewCycleCountRepo(store), memory.NewBranchRepo(store),
		memory.NewStockCounterRepo(store), log)

	require.NoError(t, memory.NewBranchRepo(store).Create(ctx, &entity.Branch{
		ID: branchID, Code: "A", Name: "sucursal", CreatedAt: time.Now(),
	}))
	require.NoError(t, memory.NewProductRepo(store).Create(ctx, &entity.Product{
		ID: productID, SKU: "SKU-1", Name: "producto", CreatedAt: time.Now(),
	}))
	_, err := ledgerUC.Append(ctx, inventory.AppendInput{
		ProductID: productID,
		BranchID:  branchID,
		Type:      entity.MovementIn,
		Quantity:  dec("100"),
		UserID:    userID,
	})
	require.NoError(t, err)
	return &fixture{store: store, uc: uc, ledgerUC: ledgerUC, balanceUC: balanceUC}
}

// preloaded crea un conteo con tolerancia 5%, lo precarga y lo inicia.
func (f *fixture) preloaded(t *testing.T) *entity.CycleCount {
	t.Helper()
	ctx := context.Background()
	c, err := f.uc.Create(ctx, cyclecount.CreateInput{
		BranchID:     branchID,
		Type:         entity.CycleCountTypeCyclic,
		TolerancePct: dec("5"),
		CreatedBy:    userID,
	})
	require.NoError(t, err)
	c, err = f.uc.Preload(ctx, c.ID, []string{productID})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	c, err = f.uc.Start(ctx, c.ID)
	require.NoError(t, err)
	return c
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.balanceUC.GetProductBalance(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(b.Projected), "contador y proyección deben coincidir")
	return b.Counter
}

// El snapshot de esperados se congela en la precarga: movimientos
// posteriores del libro no lo alteran.
func TestCycleCount_SnapshotCongelado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.preloaded(t)
	assert.True(t, c.Items[0].ExpectedQty.Equal(dec("100")))

	_, err := f.ledgerUC.Append(ctx, inventory.AppendInput{
		ProductID: productID,
		BranchID:  branchID,
		Type:      entity.MovementOut,
		Quantity:  dec("-20"),
		UserID:    userID,
	})
	require.NoError(t, err)

	c, err = f.uc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, c.Items[0].ExpectedQty.Equal(dec("100")),
		"la venta posterior no reescribe el esperado")
}

// Dentro de tolerancia (5%): contar 103 sobre 100 esperados no genera ajuste.
func TestCycleCount_DentroDeToleranciaNoAjusta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.preloaded(t)
	_, err := f.uc.SetItemCount(ctx, c.ID, c.Items[0].ID, dec("103"), userID, "")
	require.NoError(t, err)

	c, err = f.uc.Complete(ctx, c.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, entity.CycleCountCompleted, c.Status)
	require.NotNil(t, c.CompletedAt)

	entries, err := memory.NewLedgerRepo(f.store).ListByReference(ctx, entity.ReferenceCycleCount, c.ID)
	require.NoError(t, err)
	assert.Empty(t, entries, "3% de varianza queda bajo la tolerancia")
	assert.True(t, f.balance(t).Equal(dec("100")))
}

// Sobre tolerancia: contar 110 emite un cycle_count_adjustment de +10.
func TestCycleCount_SobreToleranciaAjusta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.preloaded(t)
	_, err := f.uc.SetItemCount(ctx, c.ID, c.Items[0].ID, dec("110"), userID, "cajas sin escanear")
	require.NoError(t, err)

	c, err = f.uc.Complete(ctx, c.ID, userID)
	require.NoError(t, err)

	entries, err := memory.NewLedgerRepo(f.store).ListByReference(ctx, entity.ReferenceCycleCount, c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.MovementCycleCountAdjust, entries[0].Type)
	assert.True(t, entries[0].QuantityChange.Equal(dec("10")))
	assert.Equal(t, "cajas sin escanear", entries[0].Reason)
	assert.True(t, f.balance(t).Equal(dec("110")))
}

// Reaplicar ajustes es idempotente: cada ítem lleva la clave conteo/ítem.
func TestCycleCount_AjustesIdempotentes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.preloaded(t)
	_, err := f.uc.SetItemCount(ctx, c.ID, c.Items[0].ID, dec("90"), userID, "merma")
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, c.ID, userID)
	require.NoError(t, err)
	assert.True(t, f.balance(t).Equal(dec("90")))

	require.NoError(t, f.uc.ApplyAdjustments(ctx, c.ID, userID))
	require.NoError(t, f.uc.ApplyAdjustments(ctx, c.ID, userID))

	entries, err := memory.NewLedgerRepo(f.store).ListByReference(ctx, entity.ReferenceCycleCount, c.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "los reintentos no duplican el ajuste")
	assert.True(t, f.balance(t).Equal(dec("90")))
}

// Precargar dos veces es conflicto: el snapshot no se reemplaza.
func TestCycleCount_PrecargaDobleEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.preloaded(t)
	_, err := f.uc.Preload(ctx, c.ID, []string{productID})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Un conteo general sin lista explícita precarga todos los contadores de la
// sucursal.
func TestCycleCount_GeneralPrecargaSucursal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otro := "00000000-0000-0000-0000-00000000000b"
	require.NoError(t, memory.NewProductRepo(f.store).Create(ctx, &entity.Product{
		ID: otro, SKU: "SKU-2", Name: "otro producto", CreatedAt: time.Now(),
	}))
	_, err := f.ledgerUC.Append(ctx, inventory.AppendInput{
		ProductID: otro,
		BranchID:  branchID,
		Type:      entity.MovementIn,
		Quantity:  dec("40"),
		UserID:    userID,
	})
	require.NoError(t, err)

	c, err := f.uc.Create(ctx, cyclecount.CreateInput{
		BranchID:     branchID,
		Type:         entity.CycleCountTypeGeneral,
		TolerancePct: dec("5"),
		CreatedBy:    userID,
	})
	require.NoError(t, err)
	c, err = f.uc.Preload(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestCycleCount_MaquinaDeEstados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.uc.Create(ctx, cyclecount.CreateInput{
		BranchID:     branchID,
		Type:         entity.CycleCountTypeCyclic,
		TolerancePct: dec("5"),
		CreatedBy:    userID,
	})
	require.NoError(t, err)

	// Completar desde pending no es legal.
	_, err = f.uc.Complete(ctx, c.ID, userID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Contar con el conteo sin iniciar tampoco.
	c, err = f.uc.Preload(ctx, c.ID, []string{productID})
	require.NoError(t, err)
	_, err = f.uc.SetItemCount(ctx, c.ID, c.Items[0].ID, dec("99"), userID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Cancelar es terminal.
	c, err = f.uc.Cancel(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CycleCountCanceled, c.Status)
	_, err = f.uc.Start(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCycleCount_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   cyclecount.CreateInput
		want error
	}{
		{"sin sucursal", cyclecount.CreateInput{Type: entity.CycleCountTypeCyclic, TolerancePct: dec("5")}, domain.ErrInvalidInput},
		{"tolerancia negativa", cyclecount.CreateInput{BranchID: branchID, Type: entity.CycleCountTypeCyclic, TolerancePct: dec("-1")}, domain.ErrInvalidInput},
		{"tipo desconocido", cyclecount.CreateInput{BranchID: branchID, Type: "anual", TolerancePct: dec("5")}, domain.ErrInvalidInput},
		{"sucursal inexistente", cyclecount.CreateInput{BranchID: "no-existe", Type: entity.CycleCountTypeCyclic, TolerancePct: dec("5")}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	c := f.preloaded(t)
	_, err := f.uc.SetItemCount(ctx, c.ID, c.Items[0].ID, dec("-3"), userID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.SetItemCount(ctx, c.ID, "item-inexistente", dec("3"), userID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
