package topograph

import (
	"cmp"
	"maps"
	"slices"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/lightlike"
)

// Triple is an (entity, attribute, value) without polarity.
type Triple struct {
	E core.Causetid
	A core.Causetid
	V core.TypedValue
}

func compareTriples(x, y Triple) int {
	if c := cmp.Compare(x.E, y.E); c != 0 {
		return c
	}
	return cmp.Compare(x.A, y.A)
}

// SpacetimeReport describes what one transaction did to the schema.
type SpacetimeReport struct {
	Installed         []core.Causetid                         `json:"installed,omitempty"`
	Altered           map[core.Causetid][]AttributeAlteration `json:"altered,omitempty"`
	Removed           []core.Causetid                         `json:"removed,omitempty"`
	SolitonidsAltered []core.Causetid                         `json:"solitonids_altered,omitempty"`
}

func newReport() *SpacetimeReport {
	return &SpacetimeReport{Altered: make(map[core.Causetid][]AttributeAlteration)}
}

// IsEmpty reports whether the schema was left unchanged.
func (r *SpacetimeReport) IsEmpty() bool {
	return len(r.Installed) == 0 && len(r.Altered) == 0 && len(r.Removed) == 0 && len(r.SolitonidsAltered) == 0
}

func (r *SpacetimeReport) alter(e core.Causetid, alterations ...AttributeAlteration) {
	for _, a := range alterations {
		if !slices.Contains(r.Altered[e], a) {
			r.Altered[e] = append(r.Altered[e], a)
		}
	}
}

// UpdateAttributeMap applies asserted and retracted attribute-defining
// triples to attrs in place.
//
// Retraction builders are seeded from the existing attribute; only
// :db/unique and :db/isComponent may be retracted, and only with their
// current value. Assertion builders start empty: a causetid not yet in
// attrs is installed, an existing one is altered.
//
// On error attrs may be partially updated; callers work on a copy.
func UpdateAttributeMap(attrs AttributeMap, asserted, retracted []Triple) (*SpacetimeReport, error) {
	report := newReport()

	retractions := make(map[core.Causetid]*AttributeBuilder)
	for _, t := range sortedTriples(retracted) {
		existing, ok := attrs[t.E]
		if !ok {
			return nil, badAssertion(t.E, t.A, t.V, "cannot retract %s from causetid %d: not an attribute", fieldName(t.A), t.E)
		}
		in, err := IntentFromValue(t.E, t.A, t.V)
		if err != nil {
			return nil, err
		}
		b, ok := retractions[t.E]
		if !ok {
			b = NewBuilderFrom(existing)
			retractions[t.E] = b
		}

		switch in.Field {
		case FieldValueType, FieldCardinality, FieldIndex, FieldFulltext, FieldNoHistory:
			return nil, badAssertion(t.E, t.A, t.V, "retracting attribute %s for causetid %d not permitted", in.Field, t.E)
		case FieldUnique:
			if existing.Unique != in.Unique {
				return nil, badAssertion(t.E, t.A, t.V,
					"retracting :db/unique :db.unique/%s for causetid %d with the wrong value is not permitted (current %s)", in.Unique, t.E, existing.Unique)
			}
			b.Set(Intent{Field: FieldUnique, Unique: core.UniqueNone})
		case FieldIsComponent:
			if existing.Component != in.Flag {
				return nil, badAssertion(t.E, t.A, t.V,
					"retracting :db/isComponent %t for causetid %d with the wrong value is not permitted", in.Flag, t.E)
			}
			b.Set(Intent{Field: FieldIsComponent, Flag: false})
		}
	}

	assertions := make(map[core.Causetid]*AttributeBuilder)
	for _, t := range sortedTriples(asserted) {
		in, err := IntentFromValue(t.E, t.A, t.V)
		if err != nil {
			return nil, err
		}
		b, ok := assertions[t.E]
		if !ok {
			b = NewBuilder()
			assertions[t.E] = b
		}
		b.Set(in)
	}

	for _, e := range slices.Sorted(maps.Keys(retractions)) {
		attr := attrs[e]
		alterations := retractions[e].Mutate(&attr)
		if err := attr.Validate(e); err != nil {
			return nil, err
		}
		attrs[e] = attr
		report.alter(e, alterations...)
	}

	for _, e := range slices.Sorted(maps.Keys(assertions)) {
		b := assertions[e]
		if existing, ok := attrs[e]; ok {
			if err := b.ValidateAlter(e, existing); err != nil {
				return nil, err
			}
			alterations := b.Mutate(&existing)
			if err := existing.Validate(e); err != nil {
				return nil, err
			}
			attrs[e] = existing
			report.alter(e, alterations...)
			continue
		}

		if err := b.ValidateInstall(e); err != nil {
			return nil, err
		}
		attr := b.Build()
		if err := attr.Validate(e); err != nil {
			return nil, err
		}
		attrs[e] = attr
		report.Installed = append(report.Installed, e)
	}

	for e, alterations := range report.Altered {
		if len(alterations) == 0 {
			delete(report.Altered, e)
		}
	}
	return report, nil
}

type attrKey struct {
	e core.Causetid
	a core.Causetid
}

// UpdateFromQuadruples applies one transaction's schema-relevant
// quadruples to s in place. Quadruples whose attribute is neither
// :db/solitonid, an attribute-defining attribute nor :db/doc are ignored.
//
// Retractions are witnessed before assertions so a changed value surfaces
// as an (old, new) alteration. Retracting an attribute's :db/valueType and
// :db/cardinality removes it, but only together with its :db/solitonid.
//
// On error s may be partially updated; callers work on a Clone.
func (s *Schema) UpdateFromQuadruples(quads []core.Quad) (*SpacetimeReport, error) {
	solitonids := lightlike.New[core.Causetid, core.Keyword]()
	defining := lightlike.New[attrKey, core.TypedValue]()
	docs := make(map[core.Causetid]bool)

	for _, added := range []bool{false, true} {
		for _, q := range quads {
			if q.Added != added {
				continue
			}
			switch {
			case q.A == core.DBSolitonid:
				kw, ok := q.V.(core.Keyword)
				if !ok {
					return nil, badAssertion(q.E, q.A, q.V, "expected keyword for :db/solitonid of causetid %d, got %s", q.E, core.FormatValue(q.V))
				}
				solitonids.Witness(q.E, kw, q.Added)
			case core.IsDefiningAttribute(q.A):
				defining.Witness(attrKey{q.E, q.A}, q.V, q.Added)
			case q.A == core.DBDoc:
				docs[q.E] = true
			}
		}
	}

	removed, err := s.validateTopographRetractions(solitonids, defining)
	if err != nil {
		return nil, err
	}

	var asserted, retracted []Triple
	for k, v := range defining.Asserted {
		asserted = append(asserted, Triple{E: k.e, A: k.a, V: v})
	}
	for k, alt := range defining.Altered {
		asserted = append(asserted, Triple{E: k.e, A: k.a, V: alt.New})
	}
	for k, v := range defining.Retracted {
		retracted = append(retracted, Triple{E: k.e, A: k.a, V: v})
	}

	report, err := UpdateAttributeMap(s.attributes, asserted, retracted)
	if err != nil {
		return nil, err
	}
	for _, e := range removed {
		delete(s.attributes, e)
	}
	report.Removed = removed

	// Unbind everything first so a keyword can move between entities
	// within one transaction.
	for _, e := range slices.Sorted(maps.Keys(solitonids.Retracted)) {
		if err := s.unbindSolitonid(e, solitonids.Retracted[e]); err != nil {
			return nil, err
		}
	}
	for _, e := range slices.Sorted(maps.Keys(solitonids.Altered)) {
		if err := s.unbindSolitonid(e, solitonids.Altered[e].Old); err != nil {
			return nil, err
		}
	}
	for _, e := range slices.Sorted(maps.Keys(solitonids.Altered)) {
		if err := s.bindSolitonid(e, solitonids.Altered[e].New); err != nil {
			return nil, err
		}
	}
	for _, e := range slices.Sorted(maps.Keys(solitonids.Asserted)) {
		if err := s.bindSolitonid(e, solitonids.Asserted[e]); err != nil {
			return nil, err
		}
	}

	changed := make(map[core.Causetid]bool)
	for e := range solitonids.Asserted {
		changed[e] = true
	}
	for e := range solitonids.Retracted {
		changed[e] = true
	}
	for e := range solitonids.Altered {
		changed[e] = true
	}
	report.SolitonidsAltered = slices.Sorted(maps.Keys(changed))

	for _, e := range slices.Sorted(maps.Keys(docs)) {
		if s.IsAttribute(e) && !slices.Contains(report.Installed, e) {
			report.alter(e, AlterDoc)
		}
	}

	if len(report.Installed) > 0 || len(report.Altered) > 0 || len(report.Removed) > 0 ||
		len(solitonids.Retracted) > 0 || len(solitonids.Altered) > 0 {
		s.recomputeComponents()
	}
	return report, nil
}

// validateTopographRetractions consumes the defining retractions of
// attributes being removed wholesale and returns their causetids. A bare
// retraction of :db/valueType or :db/cardinality is legal only when the
// entity's :db/solitonid and both of those are retracted together.
func (s *Schema) validateTopographRetractions(
	solitonids *lightlike.AddRetractAlterSet[core.Causetid, core.Keyword],
	defining *lightlike.AddRetractAlterSet[attrKey, core.TypedValue],
) ([]core.Causetid, error) {
	candidates := make(map[core.Causetid]bool)
	for k := range defining.Retracted {
		if k.a == core.DBValueType || k.a == core.DBCardinality {
			candidates[k.e] = true
		}
	}

	var removed []core.Causetid
	for _, e := range slices.Sorted(maps.Keys(candidates)) {
		_, solitonidRetracted := solitonids.Retracted[e]
		_, typeRetracted := defining.Retracted[attrKey{e, core.DBValueType}]
		_, cardRetracted := defining.Retracted[attrKey{e, core.DBCardinality}]
		if !solitonidRetracted || !typeRetracted || !cardRetracted {
			return nil, badAssertion(e, core.DBValueType, nil,
				"retracting defining attributes of a schema without retracting its :db/solitonid is not permitted (causetid %d)", e)
		}
		if !s.IsAttribute(e) {
			return nil, badAssertion(e, core.DBValueType, nil, "cannot remove causetid %d: not an attribute", e)
		}
		for k := range defining.Asserted {
			if k.e == e {
				return nil, badAssertion(e, k.a, nil, "cannot both remove and alter attribute %d", e)
			}
		}
		for k := range defining.Altered {
			if k.e == e {
				return nil, badAssertion(e, k.a, nil, "cannot both remove and alter attribute %d", e)
			}
		}
		for k := range defining.Retracted {
			if k.e == e {
				delete(defining.Retracted, k)
			}
		}
		removed = append(removed, e)
	}
	return removed, nil
}

func sortedTriples(ts []Triple) []Triple {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, compareTriples)
	return out
}

func fieldName(a core.Causetid) string {
	if f, ok := FieldForAttribute(a); ok {
		return f.String()
	}
	return a.String()
}
