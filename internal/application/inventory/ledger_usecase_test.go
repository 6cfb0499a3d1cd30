package inventory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
	"github.com/jhoicas/pos-inventory/internal/domain/repository"
	"github.com/jhoicas/pos-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventory/pkg/logger"
)

const (
	testProductID = "00000000-0000-0000-0000-00000000000a"
	testBranchID  = "00000000-0000-0000-0000-00000000000b"
	testUserID    = "00000000-0000-0000-0000-000000000001"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture agrupa el almacén en memoria y los casos de uso cableados sobre él.
type fixture struct {
	store       *memory.Store
	ledgerUC    *inventory.LedgerUseCase
	balanceUC   *inventory.BalanceUseCase
	reconcileUC *inventory.ReconcileUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	txRunner := memory.NewTxRunner(store)
	log := logger.Nop()
	ledgerUC := inventory.NewLedgerUseCase(txRunner, log)
	counterRepo := memory.NewStockCounterRepo(store)
	balanceUC := inventory.NewBalanceUseCase(memory.NewLedgerRepo(store), counterRepo)
	reconcileUC := inventory.NewReconcileUseCase(txRunner, ledgerUC, counterRepo, log)
	return &fixture{
		store:       store,
		ledgerUC:    ledgerUC,
		balanceUC:   balanceUC,
		reconcileUC: reconcileUC,
	}
}

func (f *fixture) appendIn(t *testing.T, qty, key string) *inventory.AppendResult {
	t.Helper()
	res, err := f.ledgerUC.Append(context.Background(), inventory.AppendInput{
		ProductID:      testProductID,
		BranchID:       testBranchID,
		Type:           entity.MovementIn,
		Quantity:       dec(qty),
		IdempotencyKey: key,
		UserID:         testUserID,
	})
	require.NoError(t, err)
	return res
}

func TestAppend_ActualizaContadorYLibro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.appendIn(t, "10", "")
	assert.True(t, res.Balance.Equal(dec("10")))
	assert.False(t, res.Deduplicated)

	res2, err := f.ledgerUC.Append(ctx, inventory.AppendInput{
		ProductID: testProductID,
		BranchID:  testBranchID,
		Type:      entity.MovementOut,
		Quantity:  dec("-4"),
		UserID:    testUserID,
	})
	require.NoError(t, err)
	assert.True(t, res2.Balance.Equal(dec("6")))

	// Invariante central: contador == suma del libro en reposo.
	b, err := f.balanceUC.GetProductBalance(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(b.Projected),
		"contador %s debe igualar proyección %s", b.Counter, b.Projected)
}

// Un reintento con la misma clave devuelve la entrada original sin volver a
// mover el contador.
func TestAppend_ReintentoDeduplicado(t *testing.T) {
	f := newFixture(t)

	first := f.appendIn(t, "10", "mov-001")
	retry := f.appendIn(t, "10", "mov-001")

	assert.False(t, first.Deduplicated)
	assert.True(t, retry.Deduplicated)
	assert.Equal(t, first.Entry.ID, retry.Entry.ID,
		"el reintento devuelve la entrada ganadora")
	assert.True(t, retry.Balance.Equal(dec("10")),
		"el contador se aplica una sola vez")
}

// N reintentos concurrentes con la misma clave: exactamente un append gana,
// el resto deduplica, y el contador queda como si hubiera un solo movimiento.
func TestAppend_ConcurrenciaMismaClave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appendIn(t, "5", "semilla")

	const n = 10
	var wg sync.WaitGroup
	results := make([]*inventory.AppendResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.ledgerUC.Append(ctx, inventory.AppendInput{
				ProductID:      testProductID,
				BranchID:       testBranchID,
				Type:           entity.MovementIn,
				Quantity:       dec("10"),
				IdempotencyKey: "carrera-001",
				UserID:         testUserID,
			})
			require.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	dedups := 0
	for _, r := range results {
		if r.Deduplicated {
			dedups++
		}
	}
	assert.Equal(t, n-1, dedups, "exactamente un append debe ganar")

	b, err := f.balanceUC.GetProductBalance(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(dec("15")),
		"5 de semilla + 10 una sola vez, no %s", b.Counter)
	assert.True(t, b.Projected.Equal(dec("15")))
}

// La misma clave con payload distinto no es un reintento: se rechaza.
func TestAppend_ClaveConPayloadDistinto(t *testing.T) {
	f := newFixture(t)

	f.appendIn(t, "10", "mov-001")
	_, err := f.ledgerUC.Append(context.Background(), inventory.AppendInput{
		ProductID:      testProductID,
		BranchID:       testBranchID,
		Type:           entity.MovementIn,
		Quantity:       dec("99"),
		IdempotencyKey: "mov-001",
		UserID:         testUserID,
	})
	assert.ErrorIs(t, err, domain.ErrKeyPayloadMismatch)
}

func TestAppend_BalanceNegativoEsWarningNoError(t *testing.T) {
	f := newFixture(t)

	res, err := f.ledgerUC.Append(context.Background(), inventory.AppendInput{
		ProductID: testProductID,
		BranchID:  testBranchID,
		Type:      entity.MovementAdjustment,
		Quantity:  dec("-7"),
		UserID:    testUserID,
	})
	require.NoError(t, err, "el balance negativo no bloquea el append")
	assert.Equal(t, inventory.WarningNegativeBalance, res.Warning)
	assert.True(t, res.Balance.Equal(dec("-7")))
}

func TestAppend_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.AppendInput
	}{
		{"cantidad cero", inventory.AppendInput{ProductID: testProductID, Type: entity.MovementIn, Quantity: decimal.Zero}},
		{"in negativo", inventory.AppendInput{ProductID: testProductID, Type: entity.MovementIn, Quantity: dec("-3")}},
		{"out positivo", inventory.AppendInput{ProductID: testProductID, Type: entity.MovementOut, Quantity: dec("3")}},
		{"tipo desconocido", inventory.AppendInput{ProductID: testProductID, Type: "devolucion", Quantity: dec("3")}},
		{"sin producto", inventory.AppendInput{Type: entity.MovementIn, Quantity: dec("3")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledgerUC.Append(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestUpdateStock_ResuelveSigno(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ledgerUC.UpdateStock(ctx, inventory.UpdateStockInput{
		ProductID: testProductID,
		BranchID:  testBranchID,
		Type:      entity.MovementIn,
		Quantity:  dec("20"),
		UserID:    testUserID,
	})
	require.NoError(t, err)
	assert.True(t, res.Entry.QuantityChange.Equal(dec("20")))

	res, err = f.ledgerUC.UpdateStock(ctx, inventory.UpdateStockInput{
		ProductID: testProductID,
		BranchID:  testBranchID,
		Type:      entity.MovementOut,
		Quantity:  dec("8"),
		UserID:    testUserID,
	})
	require.NoError(t, err)
	assert.True(t, res.Entry.QuantityChange.Equal(dec("-8")),
		"out lleva magnitud positiva y se persiste negativo")
	assert.True(t, res.Balance.Equal(dec("12")))

	// out con magnitud negativa es entrada inválida, no un in encubierto.
	_, err = f.ledgerUC.UpdateStock(ctx, inventory.UpdateStockInput{
		ProductID: testProductID,
		Type:      entity.MovementOut,
		Quantity:  dec("-8"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Un lote reintentado deduplica ítem a ítem gracias a la clave desplegada.
func TestBulkUpdateStock_LoteIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updates := []inventory.UpdateStockInput{
		{ProductID: testProductID, BranchID: testBranchID, Type: entity.MovementIn, Quantity: dec("10"), UserID: testUserID},
		{ProductID: testProductID, BranchID: testBranchID, Type: entity.MovementOut, Quantity: dec("3"), UserID: testUserID},
	}

	first, err := f.ledgerUC.BulkUpdateStock(ctx, updates, "lote-001")
	require.NoError(t, err)
	require.Len(t, first, 2)

	retry, err := f.ledgerUC.BulkUpdateStock(ctx, updates, "lote-001")
	require.NoError(t, err)
	for i, r := range retry {
		assert.True(t, r.Deduplicated, "ítem %d debe deduplicar", i)
	}

	b, err := f.balanceUC.GetProductBalance(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(dec("7")), "el lote se aplica una sola vez")
}

// Primeras escrituras concurrentes sobre un (producto, sucursal) recién
// creado, con claves distintas: el contador debe acumular todas, sin que la
// última pise a las demás.
func TestAppend_ConcurrenciaPrimeraEscritura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.ledgerUC.Append(ctx, inventory.AppendInput{
				ProductID:      testProductID,
				BranchID:       testBranchID,
				Type:           entity.MovementIn,
				Quantity:       dec("1"),
				IdempotencyKey: fmt.Sprintf("primera-%03d", i),
				UserID:         testUserID,
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	b, err := f.balanceUC.GetProductBalance(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, b.Counter.Equal(dec("10")), "ninguna primera escritura se pierde")
	assert.True(t, b.Projected.Equal(dec("10")))
}

// libroQueNoVeLaClave delega en el repositorio real pero reporta toda clave
// como inexistente: simula la verificación que corre antes de que el proceso
// ganador confirme su transacción.
type libroQueNoVeLaClave struct {
	repository.LedgerRepository
}

func (l *libroQueNoVeLaClave) GetByTypeAndKey(ctx context.Context, movType entity.MovementType, key string) (*entity.LedgerEntry, error) {
	return nil, nil
}

// txRunnerConCarrera envuelve al runner real y, mientras esté armado,
// esconde las claves existentes para forzar el choque con el índice único.
type txRunnerConCarrera struct {
	inner  inventory.TxRunner
	armado bool
}

func (r *txRunnerConCarrera) Run(ctx context.Context, fn func(inventory.TxRepos) error) error {
	return r.inner.Run(ctx, func(repos inventory.TxRepos) error {
		if r.armado {
			r.armado = false
			repos.Ledger = &libroQueNoVeLaClave{repos.Ledger}
		}
		return fn(repos)
	})
}

// Un lote que pierde la carrera de idempotencia contra otro proceso debe
// releer las entradas ganadoras y devolverlas deduplicadas, no fallar.
func TestBulkUpdateStock_CarreraDeIdempotenciaDeduplica(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	runner := &txRunnerConCarrera{inner: memory.NewTxRunner(store)}
	uc := inventory.NewLedgerUseCase(runner, logger.Nop())

	updates := []inventory.UpdateStockInput{
		{ProductID: testProductID, BranchID: testBranchID, Type: entity.MovementIn, Quantity: dec("5"), UserID: testUserID},
		{ProductID: testProductID, BranchID: testBranchID, Type: entity.MovementIn, Quantity: dec("2"), UserID: testUserID},
	}

	// El otro proceso gana: su lote queda confirmado.
	first, err := uc.BulkUpdateStock(ctx, updates, "lote-001")
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Nuestro reintento no ve las claves al verificar y choca con el índice
	// único; el caso de uso reintenta la tx y devuelve las ganadoras.
	runner.armado = true
	retry, err := uc.BulkUpdateStock(ctx, updates, "lote-001")
	require.NoError(t, err)
	require.Len(t, retry, 2)
	for i, r := range retry {
		assert.True(t, r.Deduplicated, "ítem %d debe deduplicar", i)
		assert.Equal(t, first[i].Entry.ID, r.Entry.ID)
	}

	sum, err := memory.NewLedgerRepo(store).SumForKey(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("7")), "la carrera no puede duplicar el lote")
	counter, err := memory.NewStockCounterRepo(store).Get(ctx, testProductID, testBranchID)
	require.NoError(t, err)
	assert.True(t, counter.Quantity.Equal(dec("7")))
}
