package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// IsEmpty reports whether nothing has ever been transacted.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM timelined_transactions)`).Scan(&exists)
	if err != nil {
		return false, core.StoreError("is empty", err)
	}
	return !exists, nil
}

// Datoms returns every current datom ordered by (e, a, value_type_tag, v).
// Returns an empty slice (not nil) for an empty store.
func (s *Store) Datoms(ctx context.Context) ([]core.Datom, error) {
	return readDatoms(ctx, s.db, "")
}

// EntityDatoms returns the current datoms of entity e.
func (s *Store) EntityDatoms(ctx context.Context, e core.Causetid) ([]core.Datom, error) {
	return readDatoms(ctx, s.db, "WHERE e = ?", int64(e))
}

// TopographDatoms returns the current datoms that define the schema:
// solitonids, attribute-defining datoms and docs.
func (s *Store) TopographDatoms(ctx context.Context) ([]core.Datom, error) {
	return readDatoms(ctx, s.db, "WHERE a IN (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		int64(core.DBSolitonid),
		int64(core.DBValueType),
		int64(core.DBCardinality),
		int64(core.DBUnique),
		int64(core.DBIsComponent),
		int64(core.DBIndex),
		int64(core.DBFulltext),
		int64(core.DBNoHistory),
		int64(core.DBDoc),
	)
}

// Values returns the current values of (e, a).
func (s *Store) Values(ctx context.Context, e, a core.Causetid) ([]core.TypedValue, error) {
	return readValues(ctx, s.db, e, a)
}

// Transactions returns the log of timeline ordered by
// (tx, e, a, value_type_tag, v, added).
func (s *Store) Transactions(ctx context.Context, timeline int64) ([]core.Datom, error) {
	return readLog(ctx, s.db, "WHERE timeline = ?", timeline)
}

// LastTxID returns the newest transaction on the main timeline.
func (s *Store) LastTxID(ctx context.Context) (core.Causetid, bool, error) {
	var tx sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(tx) FROM transactions`).Scan(&tx); err != nil {
		return 0, false, core.StoreError("last tx id", err)
	}
	return core.Causetid(tx.Int64), tx.Valid, nil
}

// TimelineSummary counts the transactions logged on one timeline.
type TimelineSummary struct {
	Timeline     int64         `json:"timeline"`
	Transactions int           `json:"transactions"`
	FirstTx      core.Causetid `json:"first_tx"`
	LastTx       core.Causetid `json:"last_tx"`
}

// Timelines summarizes every non-empty timeline, ordered by id.
func (s *Store) Timelines(ctx context.Context) ([]TimelineSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timeline, COUNT(DISTINCT tx), MIN(tx), MAX(tx)
		FROM timelined_transactions
		GROUP BY timeline
		ORDER BY timeline ASC
	`)
	if err != nil {
		return nil, core.StoreError("query timelines", err)
	}
	defer rows.Close()

	out := []TimelineSummary{}
	for rows.Next() {
		var ts TimelineSummary
		var first, last int64
		if err := rows.Scan(&ts.Timeline, &ts.Transactions, &first, &last); err != nil {
			return nil, core.StoreError("scan timelines", err)
		}
		ts.FirstTx, ts.LastTx = core.Causetid(first), core.Causetid(last)
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate timelines", err)
	}
	return out, nil
}

// ReadPartitionMap derives the partition map from the main-timeline log.
func (s *Store) ReadPartitionMap(ctx context.Context) (partition.Map, error) {
	return readPartitionMap(ctx, s.db)
}

func readPartitionMap(ctx context.Context, q querier) (partition.Map, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT part, start_id, end_id, next_id, allow_excision FROM parts ORDER BY start_id
	`)
	if err != nil {
		return nil, core.StoreError("read partition map", err)
	}
	defer rows.Close()

	m := partition.Map{}
	for rows.Next() {
		var name string
		var start, end, next int64
		var allowExcision bool
		if err := rows.Scan(&name, &start, &end, &next, &allowExcision); err != nil {
			return nil, core.StoreError("scan partition", err)
		}
		p, err := partition.New(core.Causetid(start), core.Causetid(end), core.Causetid(next), allowExcision)
		if err != nil {
			return nil, fmt.Errorf("partition %s: %w", name, err)
		}
		m[name] = p
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate partitions", err)
	}
	return m, nil
}

func readDatoms(ctx context.Context, q querier, where string, args ...any) ([]core.Datom, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e, a, v, value_type_tag, tx FROM datoms `+where+`
		ORDER BY e ASC, a ASC, value_type_tag ASC, v ASC
	`, args...)
	if err != nil {
		return nil, core.StoreError("query datoms", err)
	}
	defer rows.Close()

	datoms := []core.Datom{}
	for rows.Next() {
		var e, a, tx int64
		var raw any
		var tag int
		if err := rows.Scan(&e, &a, &raw, &tag, &tx); err != nil {
			return nil, core.StoreError("scan datom", err)
		}
		v, err := core.FromSQL(raw, tag)
		if err != nil {
			return nil, fmt.Errorf("datom [%d %d]: %w", e, a, err)
		}
		datoms = append(datoms, core.Datom{E: core.Causetid(e), A: core.Causetid(a), V: v, Tx: core.Causetid(tx), Added: true})
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate datoms", err)
	}
	return datoms, nil
}

func readValues(ctx context.Context, q querier, e, a core.Causetid) ([]core.TypedValue, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT v, value_type_tag FROM datoms WHERE e = ? AND a = ?
		ORDER BY value_type_tag ASC, v ASC
	`, int64(e), int64(a))
	if err != nil {
		return nil, core.StoreError("query values", err)
	}
	defer rows.Close()

	var values []core.TypedValue
	for rows.Next() {
		var raw any
		var tag int
		if err := rows.Scan(&raw, &tag); err != nil {
			return nil, core.StoreError("scan value", err)
		}
		v, err := core.FromSQL(raw, tag)
		if err != nil {
			return nil, fmt.Errorf("value of [%d %d]: %w", e, a, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate values", err)
	}
	return values, nil
}

func readLog(ctx context.Context, q querier, where string, args ...any) ([]core.Datom, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e, a, v, value_type_tag, tx, added FROM timelined_transactions `+where+`
		ORDER BY tx ASC, e ASC, a ASC, value_type_tag ASC, v ASC, added ASC
	`, args...)
	if err != nil {
		return nil, core.StoreError("query transactions", err)
	}
	defer rows.Close()

	datoms := []core.Datom{}
	for rows.Next() {
		var e, a, tx int64
		var raw any
		var tag int
		var added bool
		if err := rows.Scan(&e, &a, &raw, &tag, &tx, &added); err != nil {
			return nil, core.StoreError("scan transaction datom", err)
		}
		v, err := core.FromSQL(raw, tag)
		if err != nil {
			return nil, fmt.Errorf("transaction datom [%d %d]: %w", e, a, err)
		}
		datoms = append(datoms, core.Datom{E: core.Causetid(e), A: core.Causetid(a), V: v, Tx: core.Causetid(tx), Added: added})
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate transactions", err)
	}
	return datoms, nil
}
