// Package timeline moves committed transactions off the main timeline.
//
// A move un-commits transactions newest first: each one's datoms are
// inverted and replayed through the transactor, so every undo step is
// schema-validated like any other transaction. The moved log rows are then
// retagged with the destination timeline and the partition map is derived
// again from what remains on main.
//
// Only main-timeline log rows take part in a move. A rewound partition map
// reuses the ids of moved transactions, so one tx id may appear on several
// timelines; each timeline's rows stay where they are.
package timeline

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
	"github.com/YosiSF/EinsteinDB-sub004/internal/store"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
	"github.com/YosiSF/EinsteinDB-sub004/internal/transact"
)

// Store is the subset of a store transaction a move uses.
type Store interface {
	transact.Store
	TxTimelinesFrom(ctx context.Context, from core.Causetid, timeline int64) ([]store.TxTimeline, error)
	TransactionDatoms(ctx context.Context, tx core.Causetid) ([]core.Datom, error)
	IsTimelineEmpty(ctx context.Context, timeline int64) (bool, error)
	MoveTransactions(ctx context.Context, txs []core.Causetid, timeline int64) error
	DeleteEntity(ctx context.Context, e core.Causetid) error
	RestoreAssertionTx(ctx context.Context, d core.Datom, before core.Causetid) error
	ReadPartitionMap(ctx context.Context) (partition.Map, error)
}

// Result is the metadata after a move.
type Result struct {
	// Schema is the schema produced by the last replay that changed it,
	// or nil if no moved transaction touched the schema.
	Schema *topograph.Schema

	// Partitions is re-derived from the main timeline.
	Partitions partition.Map

	// Moved lists the moved transactions, newest first.
	Moved []core.Causetid
}

// MoveFromMain moves every transaction with id >= from off the main
// timeline onto dest, which must be empty.
//
// The caller must hold the connection's writer lock and commit or roll
// back st; a failure leaves the store transaction partially written.
func MoveFromMain(ctx context.Context, st Store, partitions partition.Map, schema *topograph.Schema, from core.Causetid, dest int64) (*Result, error) {
	if dest == store.MainTimeline {
		return nil, core.NewError(core.ErrNotYetImplemented, "moving transactions onto the main timeline is not supported")
	}
	empty, err := st.IsTimelineEmpty(ctx, dest)
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, core.Errorf(core.ErrTimelinesMoveToNonEmpty, "timeline %d is not empty", dest)
	}
	if from <= partition.Tx0 {
		return nil, core.Errorf(core.ErrTimelinesInvalidRange, "range from %d includes the bootstrap transaction", from)
	}

	txs, err := collect(ctx, st, from)
	if err != nil {
		return nil, err
	}

	var changed *topograph.Schema
	current := schema
	for _, tx := range txs {
		datoms, err := st.TransactionDatoms(ctx, tx)
		if err != nil {
			return nil, err
		}

		// Each replay allocates its tx id from the unchanged partition map,
		// so every synthetic transaction gets the same id.
		res, err := transact.Transact(ctx, st, partitions, current, transact.Inverse(datoms),
			transact.WithAction(transact.Materialize))
		if err != nil {
			return nil, err
		}

		// The replay asserted a :db/txInstant for its own synthetic
		// transaction. Nothing else refers to that id; drop it.
		if err := st.DeleteEntity(ctx, res.Report.TxID); err != nil {
			return nil, err
		}
		// Re-asserted datoms belong to the transaction that first asserted
		// them, not to the replay.
		for _, d := range res.Report.Datoms {
			if !d.Added || d.E == res.Report.TxID {
				continue
			}
			if err := st.RestoreAssertionTx(ctx, d, tx); err != nil {
				return nil, err
			}
		}

		if res.Schema != nil {
			current = res.Schema
			changed = res.Schema
		}
		slog.Debug("undid transaction", "tx", tx, "datoms", len(datoms))
	}

	if err := st.MoveTransactions(ctx, txs, dest); err != nil {
		return nil, err
	}
	parts, err := st.ReadPartitionMap(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("moved transactions", "from", from, "timeline", dest, "count", len(txs), "schema_changed", changed != nil)
	return &Result{Schema: changed, Partitions: parts, Moved: txs}, nil
}

// collect returns the main-timeline transactions to move, newest first.
// Transactions already moved elsewhere are not candidates; every candidate
// must report the main timeline.
func collect(ctx context.Context, st Store, from core.Causetid) ([]core.Causetid, error) {
	entries, err := st.TxTimelinesFrom(ctx, from, store.MainTimeline)
	if err != nil {
		return nil, err
	}

	var txs []core.Causetid
	timelines := make(map[int64]bool)
	for _, entry := range entries {
		timelines[entry.Timeline] = true
		if entry.Timeline == store.MainTimeline {
			txs = append(txs, entry.Tx)
		}
	}
	if len(txs) == 0 {
		return nil, core.Errorf(core.ErrTimelinesInvalidRange, "no transactions on the main timeline from %d", from)
	}
	if len(timelines) > 1 {
		return nil, core.Errorf(core.ErrTimelinesMixed, "transactions from %d span %d timelines", from, len(timelines))
	}
	slices.SortFunc(txs, func(a, b core.Causetid) int { return cmp.Compare(b, a) })
	return txs, nil
}
