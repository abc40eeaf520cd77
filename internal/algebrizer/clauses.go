package algebrizer

import (
	"fmt"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// Column is a column of the datoms table.
type Column string

// Datoms table columns.
const (
	ColumnE   Column = "e"
	ColumnA   Column = "a"
	ColumnV   Column = "v"
	ColumnTag Column = "value_type_tag"
)

// QualifiedColumn is a column of one datoms alias.
type QualifiedColumn struct {
	Alias  string
	Column Column
}

func (c QualifiedColumn) String() string {
	return c.Alias + "." + string(c.Column)
}

// Constraint is a sealed interface over the conditions that restrict the
// cross product of the pattern aliases.
//
// Constraint types:
//   - ColumnEquals: two columns hold the same value (a repeated variable)
//   - ValueEquals: a column equals a literal, passed as a SQL parameter
type Constraint interface {
	constraintNode()
	fmt.Stringer
}

// ColumnEquals joins two aliases on a shared variable.
type ColumnEquals struct {
	Left  QualifiedColumn
	Right QualifiedColumn
}

// ValueEquals pins a column to a SQL parameter value.
type ValueEquals struct {
	Column QualifiedColumn
	Value  any
}

func (ColumnEquals) constraintNode() {}
func (ValueEquals) constraintNode()  {}

func (c ColumnEquals) String() string {
	return fmt.Sprintf("%s = %s", c.Left, c.Right)
}

func (c ValueEquals) String() string {
	return fmt.Sprintf("%s = %v", c.Column, c.Value)
}

// Binding records where a variable is first bound and its value type.
type Binding struct {
	Column QualifiedColumn
	Type   core.ValueType
}

// ConjoiningClauses is the algebrized form of a find query.
type ConjoiningClauses struct {
	Aliases     []string
	Constraints []Constraint
	Bindings    map[Variable]Binding
	Find        []Variable
}

func (cc *ConjoiningClauses) constrain(c Constraint) {
	cc.Constraints = append(cc.Constraints, c)
}

// bind records that column holds variable v. A variable seen before adds
// a join constraint; it must keep the same value type.
func (cc *ConjoiningClauses) bind(v Variable, column QualifiedColumn, t core.ValueType) error {
	existing, ok := cc.Bindings[v]
	if !ok {
		cc.Bindings[v] = Binding{Column: column, Type: t}
		return nil
	}
	if existing.Type != t {
		return core.Errorf(core.ErrBadValuePair, "variable %s is bound to both %s and %s values", v, existing.Type, t)
	}
	cc.constrain(ColumnEquals{Left: existing.Column, Right: column})
	return nil
}
