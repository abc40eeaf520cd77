package transact

import (
	"context"
	"fmt"
	"slices"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
)

// BootstrapStore is a Store that can also record partition ranges.
type BootstrapStore interface {
	Store
	WritePartitions(ctx context.Context, m partition.Map) error
}

// Bootstrap writes the partition ranges and the bootstrap transaction into
// an empty store. The bootstrap transaction is always the first id of the
// tx partition.
func Bootstrap(ctx context.Context, st BootstrapStore, instant core.Instant) (*Result, error) {
	parts := partition.Bootstrap()
	if err := st.WritePartitions(ctx, parts); err != nil {
		return nil, err
	}

	schema, err := topograph.Bootstrap()
	if err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	txID, err := parts.AllocateOne(partition.Tx)
	if err != nil {
		return nil, fmt.Errorf("allocate bootstrap tx: %w", err)
	}

	quads := topograph.BootstrapQuads()
	datoms := make([]core.Datom, 0, len(quads)+1)
	for _, q := range quads {
		datoms = append(datoms, core.Datom{E: q.E, A: q.A, V: q.V, Tx: txID, Added: true})
	}
	datoms = append(datoms, core.Datom{E: txID, A: core.DBTxInstant, V: instant, Tx: txID, Added: true})
	slices.SortFunc(datoms, core.CompareDatoms)

	for _, d := range datoms {
		attr, _ := schema.Attribute(d.A)
		if err := st.InsertDatom(ctx, d, attr); err != nil {
			return nil, err
		}
	}
	if err := st.LogDatoms(ctx, datoms); err != nil {
		return nil, err
	}

	return &Result{
		Report: &Report{
			TxID:      txID,
			TxInstant: instant,
			TempIDs:   map[string]core.Causetid{},
			Datoms:    datoms,
		},
		Schema:     schema,
		Partitions: parts,
	}, nil
}
