package topograph

import (
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// CoreSchemaVersion is the version of the :db.schema/core vocabulary.
const CoreSchemaVersion = 1

var bootstrapSolitonids = []struct {
	kw string
	e  core.Causetid
}{
	{":db/solitonid", core.DBSolitonid},
	{":db.part/db", core.DBPartDB},
	{":db/txInstant", core.DBTxInstant},
	{":db.install/partition", core.DBInstallPartition},
	{":db.install/valueType", core.DBInstallValueType},
	{":db.install/attribute", core.DBInstallAttribute},
	{":db/valueType", core.DBValueType},
	{":db/cardinality", core.DBCardinality},
	{":db/unique", core.DBUnique},
	{":db/isComponent", core.DBIsComponent},
	{":db/index", core.DBIndex},
	{":db/fulltext", core.DBFulltext},
	{":db/noHistory", core.DBNoHistory},
	{":db/add", core.DBAdd},
	{":db/retract", core.DBRetract},
	{":db.part/user", core.DBPartUser},
	{":db.part/tx", core.DBPartTx},
	{":db/excise", core.DBExcise},
	{":db.excise/attrs", core.DBExciseAttrs},
	{":db.excise/beforeT", core.DBExciseBeforeT},
	{":db.excise/before", core.DBExciseBefore},
	{":db.alter/attribute", core.DBAlterAttribute},
	{":db.type/ref", core.DBTypeRef},
	{":db.type/keyword", core.DBTypeKeyword},
	{":db.type/long", core.DBTypeLong},
	{":db.type/double", core.DBTypeDouble},
	{":db.type/string", core.DBTypeString},
	{":db.type/uuid", core.DBTypeUUID},
	{":db.type/uri", core.DBTypeURI},
	{":db.type/boolean", core.DBTypeBoolean},
	{":db.type/instant", core.DBTypeInstant},
	{":db.type/bytes", core.DBTypeBytes},
	{":db.cardinality/one", core.DBCardinalityOne},
	{":db.cardinality/many", core.DBCardinalityMany},
	{":db.unique/value", core.DBUniqueValue},
	{":db.unique/identity", core.DBUniqueIdentity},
	{":db/doc", core.DBDoc},
	{":db.schema/version", core.DBSchemaVersion},
	{":db.schema/attribute", core.DBSchemaAttribute},
	{":db.schema/core", core.DBSchemaCore},
}

var bootstrapAttributes = []struct {
	e    core.Causetid
	attr core.Attribute
}{
	{core.DBSolitonid, core.Attribute{ValueType: core.ValueTypeKeyword, Unique: core.UniqueIdentity, Index: true}},
	{core.DBInstallPartition, core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany}},
	{core.DBInstallValueType, core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany}},
	{core.DBInstallAttribute, core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany}},
	{core.DBTxInstant, core.Attribute{ValueType: core.ValueTypeInstant, Index: true}},
	{core.DBValueType, core.Attribute{ValueType: core.ValueTypeRef}},
	{core.DBCardinality, core.Attribute{ValueType: core.ValueTypeRef}},
	{core.DBDoc, core.Attribute{ValueType: core.ValueTypeString}},
	{core.DBUnique, core.Attribute{ValueType: core.ValueTypeRef}},
	{core.DBIsComponent, core.Attribute{ValueType: core.ValueTypeBoolean}},
	{core.DBIndex, core.Attribute{ValueType: core.ValueTypeBoolean}},
	{core.DBFulltext, core.Attribute{ValueType: core.ValueTypeBoolean}},
	{core.DBNoHistory, core.Attribute{ValueType: core.ValueTypeBoolean}},
	{core.DBAlterAttribute, core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany}},
	{core.DBSchemaVersion, core.Attribute{ValueType: core.ValueTypeLong}},
	{core.DBSchemaAttribute, core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany, Unique: core.UniqueValue, Index: true}},
}

// BootstrapQuads returns the assertions of the first transaction: every
// bootstrap solitonid, every bootstrap attribute definition, and the
// :db.schema/core membership and version datoms.
func BootstrapQuads() []core.Quad {
	var quads []core.Quad
	add := func(e, a core.Causetid, v core.TypedValue) {
		quads = append(quads, core.Quad{E: e, A: a, V: v, Added: true})
	}

	for _, b := range bootstrapSolitonids {
		add(b.e, core.DBSolitonid, core.MustKeyword(b.kw))
	}
	for _, b := range bootstrapAttributes {
		add(b.e, core.DBValueType, core.Ref(b.attr.ValueType.Causetid()))
		add(b.e, core.DBCardinality, core.Ref(b.attr.Cardinality.Causetid()))
		if b.attr.Unique != core.UniqueNone {
			add(b.e, core.DBUnique, core.Ref(b.attr.Unique.Causetid()))
		}
		if b.attr.Index {
			add(b.e, core.DBIndex, core.Boolean(true))
		}
	}
	add(core.DBSchemaCore, core.DBSchemaVersion, core.Long(CoreSchemaVersion))
	for _, b := range bootstrapAttributes {
		add(core.DBSchemaCore, core.DBSchemaAttribute, core.Ref(b.e))
	}
	return quads
}

// Bootstrap builds the schema of a freshly created store by feeding the
// bootstrap quadruples through UpdateFromQuadruples.
func Bootstrap() (*Schema, error) {
	s := New()
	if _, err := s.UpdateFromQuadruples(BootstrapQuads()); err != nil {
		return nil, err
	}
	return s, nil
}

// MustBootstrap is Bootstrap for tests and static initialization.
func MustBootstrap() *Schema {
	s, err := Bootstrap()
	if err != nil {
		panic(err)
	}
	return s
}

// FromDatoms rebuilds a schema from the current datoms of a store. Only
// schema-relevant datoms matter; others are ignored.
func FromDatoms(datoms []core.Datom) (*Schema, error) {
	quads := make([]core.Quad, 0, len(datoms))
	for _, d := range datoms {
		quads = append(quads, core.Quad{E: d.E, A: d.A, V: d.V, Added: true})
	}
	s := New()
	if _, err := s.UpdateFromQuadruples(quads); err != nil {
		return nil, err
	}
	return s, nil
}
