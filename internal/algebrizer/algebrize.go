package algebrizer

import (
	"fmt"
	"time"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/edn"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
)

// Algebrize resolves q against schema.
//
// Attributes must be constants; an unknown attribute fails with
// UNKNOWN_ATTRIBUTE. Constant values are checked against the attribute's
// value type, and keywords in ref positions resolve through solitonids.
func Algebrize(schema *topograph.Schema, q *FindQuery) (*ConjoiningClauses, error) {
	cc := &ConjoiningClauses{
		Bindings: make(map[Variable]Binding),
		Find:     q.Find,
	}

	for i, p := range q.Where {
		alias := fmt.Sprintf("datoms%d", i)
		cc.Aliases = append(cc.Aliases, alias)
		col := func(c Column) QualifiedColumn { return QualifiedColumn{Alias: alias, Column: c} }

		a, attr, err := resolveAttribute(schema, p.A)
		if err != nil {
			return nil, err
		}
		cc.constrain(ValueEquals{Column: col(ColumnA), Value: int64(a)})

		switch e := p.E.(type) {
		case Variable:
			if err := cc.bind(e, col(ColumnE), core.ValueTypeRef); err != nil {
				return nil, err
			}
		case Constant:
			id, err := entityConstant(schema, e.Value)
			if err != nil {
				return nil, err
			}
			cc.constrain(ValueEquals{Column: col(ColumnE), Value: int64(id)})
		}

		switch v := p.V.(type) {
		case Variable:
			if err := cc.bind(v, col(ColumnV), attr.ValueType); err != nil {
				return nil, err
			}
		case Constant:
			tv, err := valueConstant(schema, a, attr, v.Value)
			if err != nil {
				return nil, err
			}
			raw, tag := core.ToSQL(tv)
			cc.constrain(ValueEquals{Column: col(ColumnV), Value: raw})
			cc.constrain(ValueEquals{Column: col(ColumnTag), Value: tag})
		}
	}

	for _, v := range q.Find {
		if _, ok := cc.Bindings[v]; !ok {
			return nil, fmt.Errorf("find variable %s is not bound by any :where pattern", v)
		}
	}
	return cc, nil
}

func resolveAttribute(schema *topograph.Schema, t Term) (core.Causetid, core.Attribute, error) {
	c, ok := t.(Constant)
	if !ok {
		return 0, core.Attribute{}, core.Errorf(core.ErrNotYetImplemented, "attribute place %s must be a constant", t)
	}
	switch v := c.Value.(type) {
	case edn.Keyword:
		attr, a, ok := schema.AttributeForSolitonid(core.Keyword(v))
		if !ok {
			return 0, core.Attribute{}, core.Errorf(core.ErrUnknownAttribute, "unknown attribute %s", v)
		}
		return a, attr, nil
	case edn.Int:
		a := core.Causetid(v)
		attr, err := schema.RequireAttribute(a)
		return a, attr, err
	}
	return 0, core.Attribute{}, core.Errorf(core.ErrUnknownAttribute, "invalid attribute %s", c)
}

func entityConstant(schema *topograph.Schema, v edn.Value) (core.Causetid, error) {
	switch x := v.(type) {
	case edn.Int:
		return core.Causetid(x), nil
	case edn.Keyword:
		return schema.RequireCausetid(core.Keyword(x))
	}
	return 0, core.Errorf(core.ErrBadValuePair, "invalid entity %s in pattern", v)
}

func valueConstant(schema *topograph.Schema, a core.Causetid, attr core.Attribute, v edn.Value) (core.TypedValue, error) {
	switch attr.ValueType {
	case core.ValueTypeRef:
		switch x := v.(type) {
		case edn.Int:
			return core.Ref(x), nil
		case edn.Keyword:
			e, err := schema.RequireCausetid(core.Keyword(x))
			if err != nil {
				return nil, err
			}
			return core.Ref(e), nil
		}
	case core.ValueTypeKeyword:
		if x, ok := v.(edn.Keyword); ok {
			return core.Keyword(x), nil
		}
	case core.ValueTypeLong:
		if x, ok := v.(edn.Int); ok {
			return core.Long(x), nil
		}
	case core.ValueTypeDouble:
		switch x := v.(type) {
		case edn.Float:
			return core.Double(x), nil
		case edn.Int:
			return core.Double(x), nil
		}
	case core.ValueTypeString:
		if x, ok := v.(edn.String); ok {
			return core.String(x), nil
		}
	case core.ValueTypeBoolean:
		if x, ok := v.(edn.Bool); ok {
			return core.Boolean(x), nil
		}
	case core.ValueTypeInstant:
		if x, ok := v.(edn.Inst); ok {
			return core.InstantFromTime(time.Time(x)), nil
		}
	case core.ValueTypeUUID:
		if x, ok := v.(edn.UUID); ok {
			return core.UUID(x), nil
		}
	}
	return nil, core.Errorf(core.ErrBadValuePair, "value %s is not a valid %s for attribute %s", v, attr.ValueType, schema.Describe(a)).
		WithAttribute(a)
}
