package transact

import (
	"fmt"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// EntityPlace names the entity of a term: a KnownID, a TempID or a
// Solitonid.
type EntityPlace interface {
	entityPlace()
	fmt.Stringer
}

// AttributePlace names the attribute of a term: a KnownID or a Solitonid.
type AttributePlace interface {
	attributePlace()
	fmt.Stringer
}

// ValuePlace is the value of a term. How it is interpreted depends on the
// attribute's value type: for ref attributes a TempID, Solitonid or
// String value names an entity.
type ValuePlace interface {
	valuePlace()
	fmt.Stringer
}

// KnownID is an already-allocated causetid.
type KnownID core.Causetid

// TempID is a placeholder resolved to a causetid within one transaction.
type TempID string

// Solitonid is a keyword resolved through the schema's solitonid map.
type Solitonid core.Keyword

// Value is a literal typed value.
type Value struct {
	core.TypedValue
}

func (KnownID) entityPlace()    {}
func (KnownID) attributePlace() {}
func (KnownID) valuePlace()     {}

func (TempID) entityPlace() {}
func (TempID) valuePlace()  {}

func (Solitonid) entityPlace()    {}
func (Solitonid) attributePlace() {}
func (Solitonid) valuePlace()     {}

func (Value) valuePlace() {}

func (k KnownID) String() string   { return core.Causetid(k).String() }
func (t TempID) String() string    { return fmt.Sprintf("%q", string(t)) }
func (s Solitonid) String() string { return core.Keyword(s).String() }
func (v Value) String() string     { return core.FormatValue(v.TypedValue) }

// Keyword returns the keyword form of s.
func (s Solitonid) Keyword() core.Keyword { return core.Keyword(s) }

// Term is one requested assertion or retraction.
type Term struct {
	Added bool
	E     EntityPlace
	A     AttributePlace
	V     ValuePlace
}

// Add builds an assertion term.
func Add(e EntityPlace, a AttributePlace, v ValuePlace) Term {
	return Term{Added: true, E: e, A: a, V: v}
}

// Retract builds a retraction term.
func Retract(e EntityPlace, a AttributePlace, v ValuePlace) Term {
	return Term{Added: false, E: e, A: a, V: v}
}

// Attr is shorthand for a Solitonid attribute place.
func Attr(kw string) Solitonid {
	return Solitonid(core.MustKeyword(kw))
}

// Val is shorthand for a literal value place.
func Val(v core.TypedValue) Value {
	return Value{TypedValue: v}
}

func (t Term) String() string {
	op := ":db/retract"
	if t.Added {
		op = ":db/add"
	}
	return fmt.Sprintf("[%s %s %s %s]", op, t.E, t.A, t.V)
}

// Inverse returns the terms that undo datoms: every assertion becomes a
// retraction and vice versa.
func Inverse(datoms []core.Datom) []Term {
	terms := make([]Term, 0, len(datoms))
	for _, d := range datoms {
		terms = append(terms, Term{
			Added: !d.Added,
			E:     KnownID(d.E),
			A:     KnownID(d.A),
			V:     Val(d.V),
		})
	}
	return terms
}
