package inventory

import (
	"context"

	"github.com/jhoicas/pos-inventory/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción de BD.
// Un solo struct en lugar de una firma por combinación: los flujos de
// traslado y conteo necesitan libro + contador + su propio agregado.
type TxRepos struct {
	Ledger        repository.LedgerRepository
	Counters      repository.StockCounterRepository
	Discrepancies repository.DiscrepancyRepository
	Transfers     repository.TransferRepository
	CycleCounts   repository.CycleCountRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el núcleo de
// inventario: o se aplican el append y el contador, o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
