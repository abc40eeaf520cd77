package topograph

import (
	"fmt"
	"slices"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// Field names one settable part of an attribute definition.
type Field int

const (
	FieldValueType Field = iota
	FieldCardinality
	FieldUnique
	FieldIndex
	FieldFulltext
	FieldNoHistory
	FieldIsComponent
)

var fieldAttributes = [...]core.Causetid{
	FieldValueType:   core.DBValueType,
	FieldCardinality: core.DBCardinality,
	FieldUnique:      core.DBUnique,
	FieldIndex:       core.DBIndex,
	FieldFulltext:    core.DBFulltext,
	FieldNoHistory:   core.DBNoHistory,
	FieldIsComponent: core.DBIsComponent,
}

// Attribute returns the defining attribute causetid for f.
func (f Field) Attribute() core.Causetid {
	return fieldAttributes[f]
}

func (f Field) String() string {
	switch f {
	case FieldValueType:
		return ":db/valueType"
	case FieldCardinality:
		return ":db/cardinality"
	case FieldUnique:
		return ":db/unique"
	case FieldIndex:
		return ":db/index"
	case FieldFulltext:
		return ":db/fulltext"
	case FieldNoHistory:
		return ":db/noHistory"
	case FieldIsComponent:
		return ":db/isComponent"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// FieldForAttribute maps a defining attribute causetid to its Field.
func FieldForAttribute(a core.Causetid) (Field, bool) {
	for f, attr := range fieldAttributes {
		if attr == a {
			return Field(f), true
		}
	}
	return 0, false
}

// Intent is a tagged request to set one field. Only the member matching
// Field is meaningful; Flag carries the boolean fields.
type Intent struct {
	Field       Field
	ValueType   core.ValueType
	Cardinality core.Cardinality
	Unique      core.Unique
	Flag        bool
}

// IntentFromValue decodes the value of a defining datom into an Intent.
func IntentFromValue(e, a core.Causetid, v core.TypedValue) (Intent, error) {
	f, ok := FieldForAttribute(a)
	if !ok {
		return Intent{}, badAssertion(e, a, v, "causetid %d is not an attribute-defining attribute", a)
	}
	switch f {
	case FieldValueType:
		if ref, ok := v.(core.Ref); ok {
			if vt, ok := core.ValueTypeFromCausetid(core.Causetid(ref)); ok {
				return Intent{Field: f, ValueType: vt}, nil
			}
		}
		return Intent{}, badAssertion(e, a, v, "expected one of :db.type/* for :db/valueType of causetid %d, got %s", e, core.FormatValue(v))
	case FieldCardinality:
		if ref, ok := v.(core.Ref); ok {
			switch core.Causetid(ref) {
			case core.DBCardinalityOne:
				return Intent{Field: f, Cardinality: core.CardinalityOne}, nil
			case core.DBCardinalityMany:
				return Intent{Field: f, Cardinality: core.CardinalityMany}, nil
			}
		}
		return Intent{}, badAssertion(e, a, v, "expected :db.cardinality/one or :db.cardinality/many for causetid %d, got %s", e, core.FormatValue(v))
	case FieldUnique:
		if ref, ok := v.(core.Ref); ok {
			switch core.Causetid(ref) {
			case core.DBUniqueValue:
				return Intent{Field: f, Unique: core.UniqueValue}, nil
			case core.DBUniqueIdentity:
				return Intent{Field: f, Unique: core.UniqueIdentity}, nil
			}
		}
		return Intent{}, badAssertion(e, a, v, "expected :db.unique/value or :db.unique/identity for causetid %d, got %s", e, core.FormatValue(v))
	case FieldIndex, FieldFulltext, FieldNoHistory, FieldIsComponent:
		if b, ok := v.(core.Boolean); ok {
			return Intent{Field: f, Flag: bool(b)}, nil
		}
		return Intent{}, badAssertion(e, a, v, "expected boolean for %s of causetid %d, got %s", f, e, core.FormatValue(v))
	}
	panic(fmt.Sprintf("unhandled field %d", int(f)))
}

// AttributeAlteration names a field of an existing attribute that changed.
type AttributeAlteration int

const (
	AlterIndex AttributeAlteration = iota
	AlterUnique
	AlterCardinality
	AlterNoHistory
	AlterIsComponent
	AlterFulltext
	AlterDoc
)

func (a AttributeAlteration) String() string {
	switch a {
	case AlterIndex:
		return "index"
	case AlterUnique:
		return "unique"
	case AlterCardinality:
		return "cardinality"
	case AlterNoHistory:
		return "no_history"
	case AlterIsComponent:
		return "is_component"
	case AlterFulltext:
		return "fulltext"
	case AlterDoc:
		return "doc"
	default:
		return fmt.Sprintf("alteration(%d)", int(a))
	}
}

// MarshalText renders alterations by name in JSON output.
func (a AttributeAlteration) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// AttributeBuilder accumulates field intents for one causetid. A later
// intent for the same field replaces an earlier one.
type AttributeBuilder struct {
	intents map[Field]Intent
}

// NewBuilder returns an empty builder, used for assertions.
func NewBuilder() *AttributeBuilder {
	return &AttributeBuilder{intents: make(map[Field]Intent)}
}

// NewBuilderFrom seeds a builder with the mutable fields of existing, so
// retractions have something to compare against.
func NewBuilderFrom(existing core.Attribute) *AttributeBuilder {
	b := NewBuilder()
	b.Set(Intent{Field: FieldCardinality, Cardinality: existing.Cardinality})
	b.Set(Intent{Field: FieldUnique, Unique: existing.Unique})
	b.Set(Intent{Field: FieldIsComponent, Flag: existing.Component})
	return b
}

// Set records an intent.
func (b *AttributeBuilder) Set(in Intent) {
	b.intents[in.Field] = in
}

// Get returns the intent recorded for f.
func (b *AttributeBuilder) Get(f Field) (Intent, bool) {
	in, ok := b.intents[f]
	return in, ok
}

// fields returns recorded fields in declaration order.
func (b *AttributeBuilder) fields() []Field {
	out := make([]Field, 0, len(b.intents))
	for f := range b.intents {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// ValidateInstall checks that a new attribute names both its value type
// and its cardinality.
func (b *AttributeBuilder) ValidateInstall(e core.Causetid) error {
	if _, ok := b.intents[FieldValueType]; !ok {
		return badAssertion(e, core.DBValueType, nil, "schema attribute for new attribute %d does not set :db/valueType", e)
	}
	if _, ok := b.intents[FieldCardinality]; !ok {
		return badAssertion(e, core.DBCardinality, nil, "schema attribute for new attribute %d does not set :db/cardinality", e)
	}
	return nil
}

// ValidateAlter checks that no immutable field of existing would change.
func (b *AttributeBuilder) ValidateAlter(e core.Causetid, existing core.Attribute) error {
	if in, ok := b.intents[FieldValueType]; ok && in.ValueType != existing.ValueType {
		return badAssertion(e, core.DBValueType, core.Ref(in.ValueType.Causetid()),
			"schema alteration for existing attribute %d must not change :db/valueType from %s to %s", e, existing.ValueType, in.ValueType)
	}
	if in, ok := b.intents[FieldCardinality]; ok && in.Cardinality != existing.Cardinality {
		return badAssertion(e, core.DBCardinality, core.Ref(in.Cardinality.Causetid()),
			"schema alteration for existing attribute %d must not change :db/cardinality from %s to %s", e, existing.Cardinality, in.Cardinality)
	}
	return nil
}

// Build produces a new attribute from the recorded intents. Unique identity
// implies index unless index was set explicitly; unique value does not.
func (b *AttributeBuilder) Build() core.Attribute {
	var attr core.Attribute
	for _, f := range b.fields() {
		applyIntent(&attr, b.intents[f])
	}
	if _, ok := b.intents[FieldIndex]; !ok && attr.Unique == core.UniqueIdentity {
		attr.Index = true
	}
	return attr
}

// Mutate applies the intents to attr in place and reports which fields
// actually changed.
func (b *AttributeBuilder) Mutate(attr *core.Attribute) []AttributeAlteration {
	before := *attr
	for _, f := range b.fields() {
		applyIntent(attr, b.intents[f])
	}
	if _, ok := b.intents[FieldIndex]; !ok && attr.Unique == core.UniqueIdentity && before.Unique == core.UniqueNone {
		attr.Index = true
	}

	var altered []AttributeAlteration
	if attr.Index != before.Index {
		altered = append(altered, AlterIndex)
	}
	if attr.Unique != before.Unique {
		altered = append(altered, AlterUnique)
	}
	if attr.Cardinality != before.Cardinality {
		altered = append(altered, AlterCardinality)
	}
	if attr.NoHistory != before.NoHistory {
		altered = append(altered, AlterNoHistory)
	}
	if attr.Component != before.Component {
		altered = append(altered, AlterIsComponent)
	}
	if attr.Fulltext != before.Fulltext {
		altered = append(altered, AlterFulltext)
	}
	return altered
}

func applyIntent(attr *core.Attribute, in Intent) {
	switch in.Field {
	case FieldValueType:
		attr.ValueType = in.ValueType
	case FieldCardinality:
		attr.Cardinality = in.Cardinality
	case FieldUnique:
		attr.Unique = in.Unique
	case FieldIndex:
		attr.Index = in.Flag
	case FieldFulltext:
		attr.Fulltext = in.Flag
	case FieldNoHistory:
		attr.NoHistory = in.Flag
	case FieldIsComponent:
		attr.Component = in.Flag
	default:
		panic(fmt.Sprintf("unhandled field %d", int(in.Field)))
	}
}

func badAssertion(e, a core.Causetid, v core.TypedValue, format string, args ...any) *core.Error {
	err := core.Errorf(core.ErrBadTopographAssertion, format, args...).WithCausetid(e).WithAttribute(a)
	if v != nil {
		err = err.WithValue(v)
	}
	return err
}
