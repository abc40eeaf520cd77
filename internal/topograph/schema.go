package topograph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// AttributeMap maps attribute causetids to their definitions.
type AttributeMap map[core.Causetid]core.Attribute

// Schema is the set of attribute definitions plus the solitonid bijection.
type Schema struct {
	causetidToSolitonid map[core.Causetid]core.Keyword
	solitonidToCausetid map[core.Keyword]core.Causetid

	attributes AttributeMap

	// componentAttributes is derived from attributes; see recomputeComponents.
	componentAttributes []core.Causetid
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{
		causetidToSolitonid: make(map[core.Causetid]core.Keyword),
		solitonidToCausetid: make(map[core.Keyword]core.Causetid),
		attributes:          make(AttributeMap),
	}
}

// Clone returns a deep copy safe to mutate.
func (s *Schema) Clone() *Schema {
	return &Schema{
		causetidToSolitonid: maps.Clone(s.causetidToSolitonid),
		solitonidToCausetid: maps.Clone(s.solitonidToCausetid),
		attributes:          maps.Clone(s.attributes),
		componentAttributes: slices.Clone(s.componentAttributes),
	}
}

// Solitonid returns the keyword bound to e.
func (s *Schema) Solitonid(e core.Causetid) (core.Keyword, bool) {
	kw, ok := s.causetidToSolitonid[e]
	return kw, ok
}

// Causetid returns the causetid bound to kw.
func (s *Schema) Causetid(kw core.Keyword) (core.Causetid, bool) {
	e, ok := s.solitonidToCausetid[kw]
	return e, ok
}

// Attribute returns the definition of attribute e.
func (s *Schema) Attribute(e core.Causetid) (core.Attribute, bool) {
	a, ok := s.attributes[e]
	return a, ok
}

// IsAttribute reports whether e is an installed attribute.
func (s *Schema) IsAttribute(e core.Causetid) bool {
	_, ok := s.attributes[e]
	return ok
}

// AttributeForSolitonid resolves kw and returns its attribute definition.
func (s *Schema) AttributeForSolitonid(kw core.Keyword) (core.Attribute, core.Causetid, bool) {
	e, ok := s.solitonidToCausetid[kw]
	if !ok {
		return core.Attribute{}, 0, false
	}
	a, ok := s.attributes[e]
	if !ok {
		return core.Attribute{}, 0, false
	}
	return a, e, true
}

// ComponentAttributes returns the sorted causetids of attributes marked
// :db/isComponent.
func (s *Schema) ComponentAttributes() []core.Causetid {
	return slices.Clone(s.componentAttributes)
}

// Attributes returns a copy of the attribute map.
func (s *Schema) Attributes() AttributeMap {
	return maps.Clone(s.attributes)
}

// AttributeIDs returns installed attribute causetids in ascending order.
func (s *Schema) AttributeIDs() []core.Causetid {
	return slices.Sorted(maps.Keys(s.attributes))
}

// SolitonidIDs returns causetids that carry a solitonid, ascending.
func (s *Schema) SolitonidIDs() []core.Causetid {
	return slices.Sorted(maps.Keys(s.causetidToSolitonid))
}

// Equal reports whether two schemas hold the same names and attributes.
func (s *Schema) Equal(other *Schema) bool {
	return maps.Equal(s.causetidToSolitonid, other.causetidToSolitonid) &&
		maps.Equal(s.solitonidToCausetid, other.solitonidToCausetid) &&
		maps.Equal(s.attributes, other.attributes) &&
		slices.Equal(s.componentAttributes, other.componentAttributes)
}

// RequireCausetid resolves kw or fails with UNRECOGNIZED_SOLITONID.
func (s *Schema) RequireCausetid(kw core.Keyword) (core.Causetid, error) {
	e, ok := s.solitonidToCausetid[kw]
	if !ok {
		return 0, core.Errorf(core.ErrUnrecognizedSolitonid, "no causetid found for solitonid %s", kw)
	}
	return e, nil
}

// RequireAttribute returns attribute a or fails with UNKNOWN_ATTRIBUTE.
func (s *Schema) RequireAttribute(a core.Causetid) (core.Attribute, error) {
	attr, ok := s.attributes[a]
	if !ok {
		return core.Attribute{}, core.Errorf(core.ErrUnknownAttribute, "causetid %d is not an attribute", a).WithAttribute(a)
	}
	return attr, nil
}

// Describe renders the solitonid of e if it has one, else its number.
func (s *Schema) Describe(e core.Causetid) string {
	if kw, ok := s.causetidToSolitonid[e]; ok {
		return kw.String()
	}
	return e.String()
}

func (s *Schema) bindSolitonid(e core.Causetid, kw core.Keyword) error {
	if other, ok := s.solitonidToCausetid[kw]; ok && other != e {
		return core.Errorf(core.ErrBadTopographAssertion,
			"solitonid %s is already bound to causetid %d, cannot bind it to %d", kw, other, e).
			WithCausetid(e).WithAttribute(core.DBSolitonid).WithValue(kw)
	}
	if old, ok := s.causetidToSolitonid[e]; ok && old != kw {
		return core.Errorf(core.ErrBadTopographAssertion,
			"causetid %d already has solitonid %s, cannot also bind %s", e, old, kw).
			WithCausetid(e).WithAttribute(core.DBSolitonid).WithValue(kw)
	}
	s.causetidToSolitonid[e] = kw
	s.solitonidToCausetid[kw] = e
	return nil
}

func (s *Schema) unbindSolitonid(e core.Causetid, kw core.Keyword) error {
	if bound, ok := s.causetidToSolitonid[e]; !ok || bound != kw {
		return core.Errorf(core.ErrBadTopographAssertion,
			"cannot retract solitonid %s from causetid %d: not bound", kw, e).
			WithCausetid(e).WithAttribute(core.DBSolitonid).WithValue(kw)
	}
	delete(s.causetidToSolitonid, e)
	delete(s.solitonidToCausetid, kw)
	return nil
}

func (s *Schema) recomputeComponents() {
	s.componentAttributes = s.componentAttributes[:0:0]
	for e, a := range s.attributes {
		if a.Component {
			s.componentAttributes = append(s.componentAttributes, e)
		}
	}
	slices.Sort(s.componentAttributes)
}

// String summarizes the schema for logs.
func (s *Schema) String() string {
	return fmt.Sprintf("Schema{solitonids=%d attributes=%d components=%d}",
		len(s.causetidToSolitonid), len(s.attributes), len(s.componentAttributes))
}
