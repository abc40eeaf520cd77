package transact

import (
	"strings"
	"time"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/edn"
)

// ParseTerms reads a transaction written as one EDN vector of entities.
// Each entity is either an operation vector
//
//	[:db/add e a v] or [:db/retract e a v]
//
// or a map {:db/id e, a1 v1, a2 [v2 v3]} asserting every pair. Integers in
// entity place are causetids, strings are tempids and keywords are
// solitonids. Vector values in maps expand to one assertion per element.
func ParseTerms(input string) ([]Term, error) {
	form, err := edn.ParseOne(input)
	if err != nil {
		return nil, err
	}
	return TermsFromEDN(form)
}

// TermsFromEDN converts an already parsed transaction vector.
func TermsFromEDN(form edn.Value) ([]Term, error) {
	entities, ok := form.(edn.Vector)
	if !ok {
		return nil, core.Errorf(core.ErrEdnParse, "transaction must be a vector, got %s", form)
	}
	var terms []Term
	for _, entity := range entities {
		switch ent := entity.(type) {
		case edn.Vector:
			term, err := termFromVector(ent)
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
		case edn.Map:
			ts, err := termsFromMap(ent)
			if err != nil {
				return nil, err
			}
			terms = append(terms, ts...)
		default:
			return nil, core.Errorf(core.ErrEdnParse, "expected an operation vector or entity map, got %s", entity)
		}
	}
	return terms, nil
}

func termFromVector(op edn.Vector) (Term, error) {
	if len(op) != 4 {
		return Term{}, core.Errorf(core.ErrEdnParse, "operation %s must have 4 elements", op)
	}
	var added bool
	switch {
	case edn.IsKeyword(op[0], ":db/add"):
		added = true
	case edn.IsKeyword(op[0], ":db/retract"):
		added = false
	default:
		return Term{}, core.Errorf(core.ErrEdnParse, "unknown operation %s", op[0])
	}

	e, err := entityPlace(op[1])
	if err != nil {
		return Term{}, err
	}
	a, err := attributePlace(op[2])
	if err != nil {
		return Term{}, err
	}
	v, err := valuePlace(op[3])
	if err != nil {
		return Term{}, err
	}
	return Term{Added: added, E: e, A: a, V: v}, nil
}

func termsFromMap(m edn.Map) ([]Term, error) {
	id, ok := m.Get(edn.Kw(":db/id"))
	if !ok {
		return nil, core.Errorf(core.ErrEdnParse, "entity map %s has no :db/id", m)
	}
	e, err := entityPlace(id)
	if err != nil {
		return nil, err
	}

	var terms []Term
	for _, pair := range m {
		if edn.IsKeyword(pair.Key, ":db/id") {
			continue
		}
		a, err := attributePlace(pair.Key)
		if err != nil {
			return nil, err
		}
		values := []edn.Value{pair.Value}
		if vec, ok := pair.Value.(edn.Vector); ok {
			values = vec
		}
		for _, raw := range values {
			v, err := valuePlace(raw)
			if err != nil {
				return nil, err
			}
			terms = append(terms, Add(e, a, v))
		}
	}
	return terms, nil
}

func entityPlace(v edn.Value) (EntityPlace, error) {
	switch x := v.(type) {
	case edn.Int:
		return KnownID(x), nil
	case edn.String:
		return TempID(x), nil
	case edn.Keyword:
		return Solitonid(x), nil
	}
	return nil, core.Errorf(core.ErrEdnParse, "invalid entity %s", v)
}

func attributePlace(v edn.Value) (AttributePlace, error) {
	switch x := v.(type) {
	case edn.Int:
		return KnownID(x), nil
	case edn.Keyword:
		if strings.HasPrefix(x.Name, "_") {
			return nil, core.Errorf(core.ErrEdnParse, "reverse attribute %s is not supported", x)
		}
		return Solitonid(x), nil
	}
	return nil, core.Errorf(core.ErrEdnParse, "invalid attribute %s", v)
}

func valuePlace(v edn.Value) (ValuePlace, error) {
	switch x := v.(type) {
	case edn.Int:
		return Val(core.Long(x)), nil
	case edn.Float:
		return Val(core.Double(x)), nil
	case edn.Bool:
		return Val(core.Boolean(x)), nil
	case edn.String:
		return Val(core.String(x)), nil
	case edn.Keyword:
		return Solitonid(x), nil
	case edn.Inst:
		return Val(core.InstantFromTime(time.Time(x))), nil
	case edn.UUID:
		return Val(core.UUID(x)), nil
	}
	return nil, core.Errorf(core.ErrEdnParse, "invalid value %s", v)
}
