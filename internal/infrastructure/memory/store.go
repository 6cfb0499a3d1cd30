// Package memory implementa los puertos de repositorio sobre mapas en
// memoria protegidos por mutex. Sirve como doble de pruebas de la capa
// postgres con la misma semántica observable: claves únicas, bloqueo por
// transacción y rollback ante error.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pos-inventory/internal/application/inventory"
	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// Store contiene todo el estado en memoria. Las escrituras guardan copias y
// las lecturas devuelven copias, para que el snapshot de transacción sea un
// clon superficial de los mapas.
type Store struct {
	mu sync.Mutex

	ledger      map[string]*entity.LedgerEntry
	ledgerOrder []string
	ledgerKeys  map[string]string // (tipo|clave) -> id de entrada

	counters      map[string]*entity.StockCounter // (producto|sucursal)
	discrepancies map[string]*entity.StockDiscrepancy
	discOrder     []string

	transfers     map[string]*entity.StockTransfer
	transferOrder []string
	transferKeys  map[string]string // clave de idempotencia -> id

	counts     map[string]*entity.CycleCount
	countOrder []string
	countItems map[string][]entity.CycleCountItem

	jobs     map[string]*entity.JobQueueEntry
	jobOrder []string

	products map[string]*entity.Product
	branches map[string]*entity.Branch
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		ledger:        make(map[string]*entity.LedgerEntry),
		ledgerKeys:    make(map[string]string),
		counters:      make(map[string]*entity.StockCounter),
		discrepancies: make(map[string]*entity.StockDiscrepancy),
		transfers:     make(map[string]*entity.StockTransfer),
		transferKeys:  make(map[string]string),
		counts:        make(map[string]*entity.CycleCount),
		countItems:    make(map[string][]entity.CycleCountItem),
		jobs:          make(map[string]*entity.JobQueueEntry),
		products:      make(map[string]*entity.Product),
		branches:      make(map[string]*entity.Branch),
	}
}

func counterKey(productID, branchID string) string { return productID + "|" + branchID }
func ledgerKey(movType entity.MovementType, key string) string {
	return string(movType) + "|" + key
}

// snapshot clona los mapas y los slices de orden. Los valores son inmutables
// una vez guardados (toda mutación reemplaza la copia), por lo que el clon
// superficial alcanza para restaurar.
type snapshot struct {
	ledger        map[string]*entity.LedgerEntry
	ledgerOrder   []string
	ledgerKeys    map[string]string
	counters      map[string]*entity.StockCounter
	discrepancies map[string]*entity.StockDiscrepancy
	discOrder     []string
	transfers     map[string]*entity.StockTransfer
	transferOrder []string
	transferKeys  map[string]string
	counts        map[string]*entity.CycleCount
	countOrder    []string
	countItems    map[string][]entity.CycleCountItem
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshotLocked() snapshot {
	items := make(map[string][]entity.CycleCountItem, len(s.countItems))
	for k, v := range s.countItems {
		items[k] = append([]entity.CycleCountItem(nil), v...)
	}
	return snapshot{
		ledger:        cloneMap(s.ledger),
		ledgerOrder:   append([]string(nil), s.ledgerOrder...),
		ledgerKeys:    cloneMap(s.ledgerKeys),
		counters:      cloneMap(s.counters),
		discrepancies: cloneMap(s.discrepancies),
		discOrder:     append([]string(nil), s.discOrder...),
		transfers:     cloneMap(s.transfers),
		transferOrder: append([]string(nil), s.transferOrder...),
		transferKeys:  cloneMap(s.transferKeys),
		counts:        cloneMap(s.counts),
		countOrder:    append([]string(nil), s.countOrder...),
		countItems:    items,
	}
}

func (s *Store) restoreLocked(snap snapshot) {
	s.ledger = snap.ledger
	s.ledgerOrder = snap.ledgerOrder
	s.ledgerKeys = snap.ledgerKeys
	s.counters = snap.counters
	s.discrepancies = snap.discrepancies
	s.discOrder = snap.discOrder
	s.transfers = snap.transfers
	s.transferOrder = snap.transferOrder
	s.transferKeys = snap.transferKeys
	s.counts = snap.counts
	s.countOrder = snap.countOrder
	s.countItems = snap.countItems
}

// TxRunner ejecuta fn bajo el mutex global del almacén (serializable) con
// rollback por snapshot si fn devuelve error.
type TxRunner struct {
	store *Store
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// NewTxRunner crea el ejecutor transaccional en memoria.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run toma el mutex por toda la transacción y pasa repositorios sin bloqueo
// propio. Si fn falla, restaura el snapshot previo.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshotLocked()
	err := fn(inventory.TxRepos{
		Ledger:        &LedgerRepo{store: r.store, inTx: true},
		Counters:      &StockCounterRepo{store: r.store, inTx: true},
		Discrepancies: &DiscrepancyRepo{store: r.store, inTx: true},
		Transfers:     &TransferRepo{store: r.store, inTx: true},
		CycleCounts:   &CycleCountRepo{store: r.store, inTx: true},
	})
	if err != nil {
		r.store.restoreLocked(snap)
		return err
	}
	return nil
}

// lock toma el mutex solo cuando el repositorio opera fuera de una
// transacción (dentro de Run el mutex ya es nuestro).
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
