// Package edn reads the EDN-like surface syntax used for transactions and
// queries.
//
// Supported forms: nil, booleans, integers, floats, strings, keywords,
// symbols, vectors, lists, maps, sets, and the #inst and #uuid tagged
// literals. Commas are whitespace, ';' starts a line comment, and #_
// discards the next form. Malformed input fails with EDN_PARSE_ERROR.
package edn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// Value is a sealed interface over parsed EDN forms.
type Value interface {
	ednValue()
	fmt.Stringer
}

// Nil is the nil literal.
type Nil struct{}

// Bool is true or false.
type Bool bool

// Int is an integer literal.
type Int int64

// Float is a floating point literal.
type Float float64

// String is a string literal, NFC normalized.
type String string

// Keyword is a :namespace/name or :name literal.
type Keyword core.Keyword

// Symbol is a bare symbol such as ?e or _.
type Symbol string

// Vector is [a b c].
type Vector []Value

// List is (a b c).
type List []Value

// Set is #{a b c}, in source order.
type Set []Value

// Map is {k v ...}, in source order.
type Map []Pair

// Pair is one map entry.
type Pair struct {
	Key   Value
	Value Value
}

// Inst is an #inst "RFC 3339" literal.
type Inst time.Time

// UUID is a #uuid "..." literal.
type UUID uuid.UUID

func (Nil) ednValue()     {}
func (Bool) ednValue()    {}
func (Int) ednValue()     {}
func (Float) ednValue()   {}
func (String) ednValue()  {}
func (Keyword) ednValue() {}
func (Symbol) ednValue()  {}
func (Vector) ednValue()  {}
func (List) ednValue()    {}
func (Set) ednValue()     {}
func (Map) ednValue()     {}
func (Inst) ednValue()    {}
func (UUID) ednValue()    {}

func (Nil) String() string       { return "nil" }
func (b Bool) String() string    { return strconv.FormatBool(bool(b)) }
func (i Int) String() string     { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string   { return core.FormatValue(core.Double(f)) }
func (s String) String() string  { return strconv.Quote(string(s)) }
func (k Keyword) String() string { return core.Keyword(k).String() }
func (s Symbol) String() string  { return string(s) }
func (v Vector) String() string  { return "[" + join(v) + "]" }
func (l List) String() string    { return "(" + join(l) + ")" }
func (s Set) String() string     { return "#{" + join(s) + "}" }
func (i Inst) String() string    { return core.FormatValue(core.InstantFromTime(time.Time(i))) }
func (u UUID) String() string    { return core.FormatValue(core.UUID(u)) }

func (m Map) String() string {
	parts := make([]string, 0, len(m))
	for _, p := range m {
		parts = append(parts, p.Key.String()+" "+p.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func join(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// Get returns the value for key in m.
func (m Map) Get(key Value) (Value, bool) {
	for _, p := range m {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// Kw builds a Keyword value from ":ns/name" text. It panics on malformed
// input and is meant for literals.
func Kw(s string) Keyword {
	return Keyword(core.MustKeyword(s))
}

// IsKeyword reports whether v is the keyword s.
func IsKeyword(v Value, s string) bool {
	k, ok := v.(Keyword)
	return ok && core.Keyword(k).String() == s
}

// Equal compares two values structurally.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Vector:
		y, ok := b.(Vector)
		return ok && equalSlices(x, y)
	case List:
		y, ok := b.(List)
		return ok && equalSlices(x, y)
	case Set:
		y, ok := b.(Set)
		return ok && equalSlices(x, y)
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i].Key, y[i].Key) || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Inst:
		y, ok := b.(Inst)
		return ok && time.Time(x).Equal(time.Time(y))
	default:
		return a == b
	}
}

func equalSlices(x, y []Value) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}
	return true
}
