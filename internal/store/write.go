package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
)

// MainTimeline is the timeline every new transaction is logged to.
const MainTimeline int64 = 0

// Tx is a write transaction. Every write method wraps storage failures as
// STORE_ERROR. Tx also exposes the reads the transactor needs so they see
// its own uncommitted writes.
type Tx struct {
	tx *sql.Tx
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	return core.StoreError("commit", t.tx.Commit())
}

// Rollback discards the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return core.StoreError("rollback", err)
	}
	return nil
}

// WritePartitions records partition ranges. Existing partitions are left
// untouched.
func (t *Tx) WritePartitions(ctx context.Context, m partition.Map) error {
	for _, name := range m.Names() {
		p := m[name]
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO known_parts (part, start_id, end_id, allow_excision)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(part) DO NOTHING
		`, name, int64(p.Start), int64(p.End), boolInt(p.AllowExcision))
		if err != nil {
			return core.StoreError("write partitions", err)
		}
	}
	return nil
}

// InsertDatom adds d to the current datoms, indexed according to attr.
// A second entity asserting the value of a unique attribute fails with
// STORE_ERROR.
func (t *Tx) InsertDatom(ctx context.Context, d core.Datom, attr core.Attribute) error {
	v, tag := core.ToSQL(d.V)
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO datoms
		(e, a, v, tx, value_type_tag, index_avet, index_vaet, index_fulltext, unique_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int64(d.E),
		int64(d.A),
		v,
		int64(d.Tx),
		tag,
		boolInt(attr.Index || attr.Unique != core.UniqueNone),
		boolInt(attr.ValueType == core.ValueTypeRef),
		boolInt(attr.Fulltext),
		boolInt(attr.Unique != core.UniqueNone),
	)
	if err != nil {
		return &core.Error{
			Kind:      core.ErrStore,
			Message:   fmt.Sprintf("insert datom [%d %d %s]", d.E, d.A, core.FormatValue(d.V)),
			Causetid:  d.E,
			Attribute: d.A,
			Value:     d.V,
			Err:       err,
		}
	}
	return nil
}

// DeleteDatom removes (e, a, v) from the current datoms.
func (t *Tx) DeleteDatom(ctx context.Context, e, a core.Causetid, v core.TypedValue) error {
	raw, tag := core.ToSQL(v)
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM datoms WHERE e = ? AND a = ? AND value_type_tag = ? AND v = ?
	`, int64(e), int64(a), tag, raw)
	return core.StoreError("delete datom", err)
}

// DeleteEntity removes every current datom whose entity is e.
func (t *Tx) DeleteEntity(ctx context.Context, e core.Causetid) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM datoms WHERE e = ?`, int64(e))
	return core.StoreError("delete entity", err)
}

// LogDatoms appends datoms to the main-timeline transaction log.
func (t *Tx) LogDatoms(ctx context.Context, datoms []core.Datom) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO timelined_transactions (e, a, v, tx, added, value_type_tag, timeline)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return core.StoreError("log datoms: prepare", err)
	}
	defer stmt.Close()

	for _, d := range datoms {
		v, tag := core.ToSQL(d.V)
		if _, err := stmt.ExecContext(ctx, int64(d.E), int64(d.A), v, int64(d.Tx), boolInt(d.Added), tag, MainTimeline); err != nil {
			return core.StoreError("log datoms", err)
		}
	}
	return nil
}

// UpdateAttributeFlags re-indexes the current datoms of attribute a after
// its definition changed. Turning on uniqueness over duplicate values fails
// with STORE_ERROR.
func (t *Tx) UpdateAttributeFlags(ctx context.Context, a core.Causetid, attr core.Attribute) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE datoms
		SET index_avet = ?, index_vaet = ?, index_fulltext = ?, unique_value = ?
		WHERE a = ?
	`,
		boolInt(attr.Index || attr.Unique != core.UniqueNone),
		boolInt(attr.ValueType == core.ValueTypeRef),
		boolInt(attr.Fulltext),
		boolInt(attr.Unique != core.UniqueNone),
		int64(a),
	)
	if err != nil {
		return &core.Error{
			Kind:      core.ErrStore,
			Message:   fmt.Sprintf("update flags of attribute %d", a),
			Attribute: a,
			Err:       err,
		}
	}
	return nil
}

// MoveTransactions reassigns the main-timeline log rows of txs to
// timeline. Rows already on other timelines keep their tag even when a
// rewound partition map reused their tx id.
func (t *Tx) MoveTransactions(ctx context.Context, txs []core.Causetid, timeline int64) error {
	if len(txs) == 0 {
		return nil
	}
	args := make([]any, 0, len(txs)+2)
	args = append(args, timeline, MainTimeline)
	for _, tx := range txs {
		args = append(args, int64(tx))
	}
	query := fmt.Sprintf(
		"UPDATE timelined_transactions SET timeline = ? WHERE timeline = ? AND tx IN (%s)",
		strings.TrimSuffix(strings.Repeat("?, ", len(txs)), ", "),
	)
	_, err := t.tx.ExecContext(ctx, query, args...)
	return core.StoreError("move transactions", err)
}

// Values returns the current values of (e, a).
func (t *Tx) Values(ctx context.Context, e, a core.Causetid) ([]core.TypedValue, error) {
	return readValues(ctx, t.tx, e, a)
}

// HasDatom reports whether (e, a, v) is currently asserted.
func (t *Tx) HasDatom(ctx context.Context, e, a core.Causetid, v core.TypedValue) (bool, error) {
	raw, tag := core.ToSQL(v)
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM datoms WHERE e = ? AND a = ? AND value_type_tag = ? AND v = ?)
	`, int64(e), int64(a), tag, raw).Scan(&exists)
	if err != nil {
		return false, core.StoreError("has datom", err)
	}
	return exists, nil
}

// EntityWithValue returns the entity that currently holds v for a, used
// to resolve upserts against unique-identity attributes.
func (t *Tx) EntityWithValue(ctx context.Context, a core.Causetid, v core.TypedValue) (core.Causetid, bool, error) {
	raw, tag := core.ToSQL(v)
	var e int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT e FROM datoms WHERE a = ? AND value_type_tag = ? AND v = ?
		ORDER BY e LIMIT 1
	`, int64(a), tag, raw).Scan(&e)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, core.StoreError("entity with value", err)
	}
	return core.Causetid(e), true, nil
}

// TxTimeline pairs a logged transaction with its timeline.
type TxTimeline struct {
	Tx       core.Causetid
	Timeline int64
}

// TxTimelinesFrom returns the transactions logged on timeline with id >=
// from, newest first.
func (t *Tx) TxTimelinesFrom(ctx context.Context, from core.Causetid, timeline int64) ([]TxTimeline, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT tx, timeline FROM timelined_transactions
		WHERE tx >= ? AND timeline = ?
		GROUP BY tx, timeline
		ORDER BY tx DESC
	`, int64(from), timeline)
	if err != nil {
		return nil, core.StoreError("query transactions to move", err)
	}
	defer rows.Close()

	var out []TxTimeline
	for rows.Next() {
		var tx, timeline int64
		if err := rows.Scan(&tx, &timeline); err != nil {
			return nil, core.StoreError("scan transactions to move", err)
		}
		out = append(out, TxTimeline{Tx: core.Causetid(tx), Timeline: timeline})
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate transactions to move", err)
	}
	return out, nil
}

// RestoreAssertionTx points the current datom d back at the latest
// main-timeline transaction before tx that asserted it. A datom with no
// such assertion keeps its tx.
func (t *Tx) RestoreAssertionTx(ctx context.Context, d core.Datom, before core.Causetid) error {
	raw, tag := core.ToSQL(d.V)
	_, err := t.tx.ExecContext(ctx, `
		UPDATE datoms SET tx = COALESCE((
			SELECT MAX(l.tx) FROM timelined_transactions l
			WHERE l.e = ? AND l.a = ? AND l.value_type_tag = ? AND l.v = ?
			  AND l.added = 1 AND l.timeline = ? AND l.tx < ?
		), tx)
		WHERE e = ? AND a = ? AND value_type_tag = ? AND v = ?
	`, int64(d.E), int64(d.A), tag, raw, MainTimeline, int64(before),
		int64(d.E), int64(d.A), tag, raw)
	return core.StoreError("restore assertion tx", err)
}

// TransactionDatoms returns the main-timeline log rows of transaction tx.
func (t *Tx) TransactionDatoms(ctx context.Context, tx core.Causetid) ([]core.Datom, error) {
	return readLog(ctx, t.tx, "WHERE tx = ? AND timeline = ?", int64(tx), MainTimeline)
}

// IsTimelineEmpty reports whether no transaction is logged on timeline.
func (t *Tx) IsTimelineEmpty(ctx context.Context, timeline int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM timelined_transactions WHERE timeline = ?)
	`, timeline).Scan(&exists)
	if err != nil {
		return false, core.StoreError("is timeline empty", err)
	}
	return !exists, nil
}

// ReadPartitionMap derives the partition map from the main-timeline log.
func (t *Tx) ReadPartitionMap(ctx context.Context) (partition.Map, error) {
	return readPartitionMap(ctx, t.tx)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
