package algebrizer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// ToSQL renders the clauses as a parameterized SELECT DISTINCT. Every find
// variable projects a value column colN and a type tag column tagN, and
// rows are ordered by the value columns so results are deterministic.
func (cc *ConjoiningClauses) ToSQL() (string, []any) {
	var projection, order []string
	for i, v := range cc.Find {
		b := cc.Bindings[v]
		tag := fmt.Sprintf("%d", core.ValueTypeRef.Tag())
		if b.Column.Column == ColumnV {
			tag = QualifiedColumn{Alias: b.Column.Alias, Column: ColumnTag}.String()
		}
		projection = append(projection,
			fmt.Sprintf("%s AS col%d", b.Column, i),
			fmt.Sprintf("%s AS tag%d", tag, i))
		order = append(order, fmt.Sprintf("col%d ASC", i))
	}

	from := make([]string, len(cc.Aliases))
	for i, alias := range cc.Aliases {
		from[i] = "datoms AS " + alias
	}

	var where []string
	var params []any
	for _, c := range cc.Constraints {
		switch c := c.(type) {
		case ColumnEquals:
			where = append(where, c.String())
		case ValueEquals:
			where = append(where, c.Column.String()+" = ?")
			params = append(params, c.Value)
		}
	}

	query := "SELECT DISTINCT " + strings.Join(projection, ", ") +
		" FROM " + strings.Join(from, ", ")
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + strings.Join(order, ", ")
	return query, params
}

// Results are the typed rows of an executed query.
type Results struct {
	Columns []Variable
	Rows    [][]core.TypedValue
}

// Scan decodes rows produced by the ToSQL query. It closes rows.
func (cc *ConjoiningClauses) Scan(rows *sql.Rows) (*Results, error) {
	defer rows.Close()

	n := len(cc.Find)
	res := &Results{Columns: cc.Find, Rows: [][]core.TypedValue{}}
	raws := make([]any, n)
	tags := make([]int64, n)
	dest := make([]any, 0, 2*n)
	for i := range n {
		dest = append(dest, &raws[i], &tags[i])
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, core.StoreError("scan query row", err)
		}
		row := make([]core.TypedValue, n)
		for i := range n {
			v, err := core.FromSQL(raws[i], int(tags[i]))
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", cc.Find[i], err)
			}
			row[i] = v
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreError("iterate query rows", err)
	}
	return res, nil
}
