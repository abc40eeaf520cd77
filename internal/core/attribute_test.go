package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeValidate(t *testing.T) {
	tests := []struct {
		name    string
		attr    Attribute
		wantErr bool
	}{
		{"plain string", Attribute{ValueType: ValueTypeString}, false},
		{"unique without index", Attribute{ValueType: ValueTypeString, Unique: UniqueValue}, true},
		{"unique with index", Attribute{ValueType: ValueTypeString, Unique: UniqueIdentity, Index: true}, false},
		{"fulltext on long", Attribute{ValueType: ValueTypeLong, Fulltext: true, Index: true}, true},
		{"fulltext without index", Attribute{ValueType: ValueTypeString, Fulltext: true}, true},
		{"fulltext ok", Attribute{ValueType: ValueTypeString, Fulltext: true, Index: true}, false},
		{"component on string", Attribute{ValueType: ValueTypeString, Component: true}, true},
		{"component on ref", Attribute{ValueType: ValueTypeRef, Component: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attr.Validate(100)
			if tt.wantErr {
				assert.True(t, IsKind(err, ErrBadTopographAssertion), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAttributeString(t *testing.T) {
	a := Attribute{ValueType: ValueTypeRef, Cardinality: CardinalityMany, Component: true}
	assert.Equal(t, "{ref many component}", a.String())
	assert.True(t, a.Multival())
}

func TestCardinalityAndUniqueCausetids(t *testing.T) {
	assert.Equal(t, DBCardinalityOne, CardinalityOne.Causetid())
	assert.Equal(t, DBCardinalityMany, CardinalityMany.Causetid())
	assert.Equal(t, DBUniqueValue, UniqueValue.Causetid())
	assert.Equal(t, DBUniqueIdentity, UniqueIdentity.Causetid())
	assert.Equal(t, Causetid(0), UniqueNone.Causetid())
}
