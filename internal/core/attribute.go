package core

import "fmt"

// Cardinality is the number of values an entity may hold for an attribute.
type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityMany
)

// String returns "one" or "many".
func (c Cardinality) String() string {
	if c == CardinalityMany {
		return "many"
	}
	return "one"
}

// Causetid returns the :db.cardinality/* entity for c.
func (c Cardinality) Causetid() Causetid {
	if c == CardinalityMany {
		return DBCardinalityMany
	}
	return DBCardinalityOne
}

// Unique is the uniqueness constraint of an attribute.
type Unique int

const (
	UniqueNone Unique = iota
	UniqueValue
	UniqueIdentity
)

// String returns "none", "value" or "identity".
func (u Unique) String() string {
	switch u {
	case UniqueValue:
		return "value"
	case UniqueIdentity:
		return "identity"
	default:
		return "none"
	}
}

// Causetid returns the :db.unique/* entity for u. UniqueNone has none and
// returns 0.
func (u Unique) Causetid() Causetid {
	switch u {
	case UniqueValue:
		return DBUniqueValue
	case UniqueIdentity:
		return DBUniqueIdentity
	default:
		return 0
	}
}

// Attribute describes one schema slot.
type Attribute struct {
	ValueType   ValueType   `json:"value_type"`
	Cardinality Cardinality `json:"cardinality"`
	Unique      Unique      `json:"unique"`
	Index       bool        `json:"index"`
	Fulltext    bool        `json:"fulltext"`
	Component   bool        `json:"component"`
	NoHistory   bool        `json:"no_history"`
}

// Multival reports whether the attribute is cardinality many.
func (a Attribute) Multival() bool {
	return a.Cardinality == CardinalityMany
}

// Validate checks the cross-field rules every installed attribute obeys.
// The returned message is suitable for a BadTopographAssertion.
func (a Attribute) Validate(e Causetid) error {
	if a.Unique != UniqueNone && !a.Index {
		return NewError(ErrBadTopographAssertion,
			fmt.Sprintf(":db/unique :db.unique/%s without :db/index true for causetid %d", a.Unique, e)).
			WithCausetid(e)
	}
	if a.Fulltext && a.ValueType != ValueTypeString {
		return NewError(ErrBadTopographAssertion,
			fmt.Sprintf(":db/fulltext true without :db/valueType :db.type/string for causetid %d", e)).
			WithCausetid(e)
	}
	if a.Fulltext && !a.Index {
		return NewError(ErrBadTopographAssertion,
			fmt.Sprintf(":db/fulltext true without :db/index true for causetid %d", e)).
			WithCausetid(e)
	}
	if a.Component && a.ValueType != ValueTypeRef {
		return NewError(ErrBadTopographAssertion,
			fmt.Sprintf(":db/isComponent true without :db/valueType :db.type/ref for causetid %d", e)).
			WithCausetid(e)
	}
	return nil
}

// String renders the attribute compactly for logs and dumps.
func (a Attribute) String() string {
	s := fmt.Sprintf("{%s %s", a.ValueType, a.Cardinality)
	if a.Unique != UniqueNone {
		s += " unique=" + a.Unique.String()
	}
	if a.Index {
		s += " index"
	}
	if a.Fulltext {
		s += " fulltext"
	}
	if a.Component {
		s += " component"
	}
	if a.NoHistory {
		s += " no-history"
	}
	return s + "}"
}
