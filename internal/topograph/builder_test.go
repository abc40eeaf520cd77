package topograph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

func TestFieldForAttribute(t *testing.T) {
	for f := FieldValueType; f <= FieldIsComponent; f++ {
		got, ok := FieldForAttribute(f.Attribute())
		require.True(t, ok, f.String())
		assert.Equal(t, f, got)
	}
	_, ok := FieldForAttribute(core.DBSolitonid)
	assert.False(t, ok)
}

func TestBuilderLastIntentWins(t *testing.T) {
	b := NewBuilder()
	b.Set(Intent{Field: FieldValueType, ValueType: core.ValueTypeLong})
	b.Set(Intent{Field: FieldValueType, ValueType: core.ValueTypeString})
	b.Set(Intent{Field: FieldCardinality, Cardinality: core.CardinalityMany})
	require.NoError(t, b.ValidateInstall(100))

	assert.Equal(t, core.Attribute{ValueType: core.ValueTypeString, Cardinality: core.CardinalityMany}, b.Build())
}

func TestBuilderMutateReportsChanges(t *testing.T) {
	attr := core.Attribute{ValueType: core.ValueTypeString}
	b := NewBuilderFrom(attr)
	b.Set(Intent{Field: FieldIndex, Flag: true})
	b.Set(Intent{Field: FieldNoHistory, Flag: false})

	assert.Equal(t, []AttributeAlteration{AlterIndex}, b.Mutate(&attr))
	assert.True(t, attr.Index)
}

func TestBuilderValidateAlter(t *testing.T) {
	existing := core.Attribute{ValueType: core.ValueTypeString}

	b := NewBuilder()
	b.Set(Intent{Field: FieldCardinality, Cardinality: core.CardinalityOne})
	assert.NoError(t, b.ValidateAlter(100, existing))

	b.Set(Intent{Field: FieldCardinality, Cardinality: core.CardinalityMany})
	err := b.ValidateAlter(100, existing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":db/cardinality")
}

func TestUpdateAttributeMapDirect(t *testing.T) {
	attrs := AttributeMap{}
	report, err := UpdateAttributeMap(attrs, []Triple{
		{E: 100, A: core.DBValueType, V: core.Ref(core.DBTypeRef)},
		{E: 100, A: core.DBCardinality, V: core.Ref(core.DBCardinalityMany)},
		{E: 100, A: core.DBIsComponent, V: core.Boolean(true)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []core.Causetid{100}, report.Installed)
	assert.Equal(t, core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany, Component: true}, attrs[100])

	_, err = UpdateAttributeMap(attrs, nil, []Triple{{E: 100, A: core.DBCardinality, V: core.Ref(core.DBCardinalityMany)}})
	assert.True(t, core.IsKind(err, core.ErrBadTopographAssertion))
}

func TestAlterationNames(t *testing.T) {
	text, err := AlterNoHistory.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "no_history", string(text))
	assert.Equal(t, "doc", AlterDoc.String())
}
