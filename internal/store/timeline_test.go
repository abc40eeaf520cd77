package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
)

func TestPartitionMapDerivedFromLog(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeBootstrapPartitions(t, s)

	m, err := s.ReadPartitionMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, partition.User0, m[partition.User].NextCausetid)
	assert.Equal(t, partition.Tx0, m[partition.Tx].NextCausetid)
	assert.Equal(t, core.Causetid(0), m[partition.DB].NextCausetid)
	assert.True(t, m[partition.User].AllowExcision)

	// bob appears only as a ref value; it still counts as allocated.
	commitDatoms(t, s, refAttr,
		core.Datom{E: alice, A: refsAttr, V: core.Ref(bob), Tx: tx1, Added: true},
		core.Datom{E: tx1, A: core.DBTxInstant, V: core.Instant(1), Tx: tx1, Added: true},
	)

	m, err = s.ReadPartitionMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, bob+1, m[partition.User].NextCausetid)
	assert.Equal(t, tx1+1, m[partition.Tx].NextCausetid)
	// Attribute ids only count once they appear as an entity.
	assert.Equal(t, core.Causetid(0), m[partition.DB].NextCausetid)
}

func TestTimelineMoveBookkeeping(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeBootstrapPartitions(t, s)

	commitDatoms(t, s, stringAttr, core.Datom{E: alice, A: nameAttr, V: core.String("A"), Tx: tx1, Added: true})
	commitDatoms(t, s, stringAttr, core.Datom{E: bob, A: nameAttr, V: core.String("B"), Tx: tx2, Added: true})
	commitDatoms(t, s, stringAttr, core.Datom{E: bob + 1, A: nameAttr, V: core.String("C"), Tx: tx3, Added: true})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	txs, err := tx.TxTimelinesFrom(ctx, tx2, MainTimeline)
	require.NoError(t, err)
	assert.Equal(t, []TxTimeline{{Tx: tx3, Timeline: 0}, {Tx: tx2, Timeline: 0}}, txs)

	datoms, err := tx.TransactionDatoms(ctx, tx2)
	require.NoError(t, err)
	assert.Equal(t, []core.Datom{{E: bob, A: nameAttr, V: core.String("B"), Tx: tx2, Added: true}}, datoms)

	empty, err := tx.IsTimelineEmpty(ctx, 1)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, tx.MoveTransactions(ctx, []core.Causetid{tx3, tx2}, 1))

	empty, err = tx.IsTimelineEmpty(ctx, 1)
	require.NoError(t, err)
	assert.False(t, empty)

	// The moved rows leave the main-timeline view; counters rewind.
	m, err := tx.ReadPartitionMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice+1, m[partition.User].NextCausetid)
	require.NoError(t, tx.Commit())

	main, err := s.Transactions(ctx, MainTimeline)
	require.NoError(t, err)
	assert.Len(t, main, 1)

	side, err := s.Transactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, side, 2)

	summaries, err := s.Timelines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TimelineSummary{
		{Timeline: 0, Transactions: 1, FirstTx: tx1, LastTx: tx1},
		{Timeline: 1, Transactions: 2, FirstTx: tx2, LastTx: tx3},
	}, summaries)
}

func TestMoveLeavesOtherTimelinesAlone(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeBootstrapPartitions(t, s)

	commitDatoms(t, s, stringAttr, core.Datom{E: alice, A: nameAttr, V: core.String("A"), Tx: tx1, Added: true})
	commitDatoms(t, s, stringAttr, core.Datom{E: bob, A: nameAttr, V: core.String("B"), Tx: tx2, Added: true})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteDatom(ctx, bob, nameAttr, core.String("B")))
	require.NoError(t, tx.MoveTransactions(ctx, []core.Causetid{tx2}, 1))
	require.NoError(t, tx.Commit())

	// The rewound counters hand tx2 out again on main.
	commitDatoms(t, s, stringAttr, core.Datom{E: bob, A: nameAttr, V: core.String("B2"), Tx: tx2, Added: true})

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	txs, err := tx.TxTimelinesFrom(ctx, tx2, MainTimeline)
	require.NoError(t, err)
	assert.Equal(t, []TxTimeline{{Tx: tx2, Timeline: 0}}, txs)

	txs, err = tx.TxTimelinesFrom(ctx, tx1, 1)
	require.NoError(t, err)
	assert.Equal(t, []TxTimeline{{Tx: tx2, Timeline: 1}}, txs)

	datoms, err := tx.TransactionDatoms(ctx, tx2)
	require.NoError(t, err)
	assert.Equal(t, []core.Datom{{E: bob, A: nameAttr, V: core.String("B2"), Tx: tx2, Added: true}}, datoms)

	require.NoError(t, tx.MoveTransactions(ctx, []core.Causetid{tx2}, 2))
	require.NoError(t, tx.Commit())

	first, err := s.Transactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := s.Transactions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	main, err := s.Transactions(ctx, MainTimeline)
	require.NoError(t, err)
	assert.Len(t, main, 1)
}

func TestRestoreAssertionTx(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	commitDatoms(t, s, stringAttr, core.Datom{E: alice, A: nameAttr, V: core.String("A"), Tx: tx1, Added: true})
	commitDatoms(t, s, stringAttr, core.Datom{E: alice, A: nameAttr, V: core.String("A"), Tx: tx2, Added: false})

	// A replay re-inserts the datom under a fresh tx id.
	restored := core.Datom{E: alice, A: nameAttr, V: core.String("A"), Tx: tx3, Added: true}
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, tx.InsertDatom(ctx, restored, stringAttr))

	// No assertion precedes tx1, so the datom keeps its tx.
	require.NoError(t, tx.RestoreAssertionTx(ctx, restored, tx1))
	require.NoError(t, tx.RestoreAssertionTx(ctx, restored, tx2))
	require.NoError(t, tx.Commit())

	datoms, err := s.Datoms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Datom{{E: alice, A: nameAttr, V: core.String("A"), Tx: tx1, Added: true}}, datoms)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertDatom(ctx, core.Datom{E: alice, A: nameAttr, V: core.String("A"), Tx: tx1, Added: true}, stringAttr))
	require.NoError(t, tx.Rollback())
	// A second rollback is a no-op.
	require.NoError(t, tx.Rollback())

	datoms, err := s.Datoms(ctx)
	require.NoError(t, err)
	assert.Empty(t, datoms)
}
