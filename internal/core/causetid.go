package core

import "fmt"

// Causetid identifies any addressable entity: user entities, attributes and
// transactions share one 64-bit id space, partitioned by range.
type Causetid int64

// String renders the causetid as a decimal integer.
func (e Causetid) String() string {
	return fmt.Sprintf("%d", int64(e))
}

// Bootstrapped causetids. These are fixed for the lifetime of a store and
// form the core vocabulary installed by the first transaction.
const (
	DBSolitonid        Causetid = 1
	DBPartDB           Causetid = 2
	DBTxInstant        Causetid = 3
	DBInstallPartition Causetid = 4
	DBInstallValueType Causetid = 5
	DBInstallAttribute Causetid = 6
	DBValueType        Causetid = 7
	DBCardinality      Causetid = 8
	DBUnique           Causetid = 9
	DBIsComponent      Causetid = 10
	DBIndex            Causetid = 11
	DBFulltext         Causetid = 12
	DBNoHistory        Causetid = 13
	DBAdd              Causetid = 14
	DBRetract          Causetid = 15
	DBPartUser         Causetid = 16
	DBPartTx           Causetid = 17
	DBExcise           Causetid = 18
	DBExciseAttrs      Causetid = 19
	DBExciseBeforeT    Causetid = 20
	DBExciseBefore     Causetid = 21
	DBAlterAttribute   Causetid = 22
	DBTypeRef          Causetid = 23
	DBTypeKeyword      Causetid = 24
	DBTypeLong         Causetid = 25
	DBTypeDouble       Causetid = 26
	DBTypeString       Causetid = 27
	DBTypeUUID         Causetid = 28
	DBTypeURI          Causetid = 29
	DBTypeBoolean      Causetid = 30
	DBTypeInstant      Causetid = 31
	DBTypeBytes        Causetid = 32
	DBCardinalityOne   Causetid = 33
	DBCardinalityMany  Causetid = 34
	DBUniqueValue      Causetid = 35
	DBUniqueIdentity   Causetid = 36
	DBDoc              Causetid = 37
	DBSchemaVersion    Causetid = 38
	DBSchemaAttribute  Causetid = 39
	DBSchemaCore       Causetid = 40
)

// IsTopographAttribute reports whether datoms with attribute a define or alter
// the schema: the solitonid naming attribute plus the attribute-defining ones.
func IsTopographAttribute(a Causetid) bool {
	switch a {
	case DBSolitonid,
		DBValueType,
		DBCardinality,
		DBUnique,
		DBIsComponent,
		DBIndex,
		DBFulltext,
		DBNoHistory:
		return true
	default:
		return false
	}
}

// IsDefiningAttribute reports whether a is one of the attribute-defining
// attributes (every topograph attribute except :db/solitonid).
func IsDefiningAttribute(a Causetid) bool {
	return a != DBSolitonid && IsTopographAttribute(a)
}
