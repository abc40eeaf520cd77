package core

import (
	"cmp"
	"fmt"
)

// Datom is one fact: entity, attribute, value and the transaction that
// asserted or retracted it.
type Datom struct {
	E     Causetid
	A     Causetid
	V     TypedValue
	Tx    Causetid
	Added bool
}

// String renders the datom as [e a v tx added].
func (d Datom) String() string {
	return fmt.Sprintf("[%d %d %s %d %t]", d.E, d.A, FormatValue(d.V), d.Tx, d.Added)
}

// CompareDatoms orders datoms by (e, a, v, tx, added) for deterministic output.
func CompareDatoms(x, y Datom) int {
	if c := cmp.Compare(x.E, y.E); c != 0 {
		return c
	}
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}
	if c := CompareValues(x.V, y.V); c != 0 {
		return c
	}
	if c := cmp.Compare(x.Tx, y.Tx); c != 0 {
		return c
	}
	switch {
	case x.Added == y.Added:
		return 0
	case !x.Added:
		return -1
	default:
		return 1
	}
}

// Quad is an (entity, attribute, value, added) change without a
// transaction id, the unit the schema update functions consume.
type Quad struct {
	E     Causetid
	A     Causetid
	V     TypedValue
	Added bool
}
