// Package algebrizer compiles find queries over datoms into SQL.
//
// A query such as
//
//	[:find ?name :where [?e :person/email "ann@example.com"] [?e :person/name ?name]]
//
// is algebrized against a schema into a ConjoiningClauses: one datoms
// table alias per pattern, the constraints between them, and the column
// each variable is bound to. ToSQL renders a parameterized SELECT DISTINCT
// with a deterministic ORDER BY.
package algebrizer

import (
	"fmt"
	"strings"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/edn"
)

// Variable is a query variable such as ?e.
type Variable string

// Term is one place of a pattern: a Variable, Placeholder or Constant.
type Term interface {
	patternTerm()
	fmt.Stringer
}

// Placeholder is the _ wildcard.
type Placeholder struct{}

// Constant is a literal place, kept in its EDN form until the attribute
// type is known.
type Constant struct {
	Value edn.Value
}

func (Variable) patternTerm()    {}
func (Placeholder) patternTerm() {}
func (Constant) patternTerm()    {}

func (v Variable) String() string  { return string(v) }
func (Placeholder) String() string { return "_" }
func (c Constant) String() string  { return c.Value.String() }

// Pattern is one [e a v] where clause.
type Pattern struct {
	E Term
	A Term
	V Term
}

func (p Pattern) String() string {
	return fmt.Sprintf("[%s %s %s]", p.E, p.A, p.V)
}

// FindQuery is a parsed [:find ... :where ...] form.
type FindQuery struct {
	Find  []Variable
	Where []Pattern
}

// ParseFindQuery reads a find query from its EDN text.
func ParseFindQuery(input string) (*FindQuery, error) {
	form, err := edn.ParseOne(input)
	if err != nil {
		return nil, err
	}
	return FindQueryFromEDN(form)
}

// FindQueryFromEDN converts an already parsed query vector.
func FindQueryFromEDN(form edn.Value) (*FindQuery, error) {
	vec, ok := form.(edn.Vector)
	if !ok {
		return nil, core.Errorf(core.ErrEdnParse, "query must be a vector, got %s", form)
	}

	q := &FindQuery{}
	section := ""
	for _, item := range vec {
		if kw, ok := item.(edn.Keyword); ok {
			switch s := core.Keyword(kw).String(); s {
			case ":find", ":where":
				if section == s || (s == ":find" && section != "") {
					return nil, core.Errorf(core.ErrEdnParse, "unexpected %s in query", s)
				}
				section = s
				continue
			default:
				return nil, core.Errorf(core.ErrEdnParse, "unsupported query clause %s", s)
			}
		}

		switch section {
		case ":find":
			sym, ok := item.(edn.Symbol)
			if !ok || !isVariable(string(sym)) {
				return nil, core.Errorf(core.ErrEdnParse, ":find expects variables, got %s", item)
			}
			q.Find = append(q.Find, Variable(sym))
		case ":where":
			p, err := parsePattern(item)
			if err != nil {
				return nil, err
			}
			q.Where = append(q.Where, p)
		default:
			return nil, core.Errorf(core.ErrEdnParse, "query must start with :find, got %s", item)
		}
	}

	if len(q.Find) == 0 {
		return nil, core.NewError(core.ErrEdnParse, "query has no :find variables")
	}
	if len(q.Where) == 0 {
		return nil, core.NewError(core.ErrEdnParse, "query has no :where patterns")
	}
	return q, nil
}

func parsePattern(v edn.Value) (Pattern, error) {
	vec, ok := v.(edn.Vector)
	if !ok || len(vec) != 3 {
		return Pattern{}, core.Errorf(core.ErrEdnParse, "pattern must be [e a v], got %s", v)
	}
	var terms [3]Term
	for i, item := range vec {
		t, err := parseTerm(item)
		if err != nil {
			return Pattern{}, err
		}
		terms[i] = t
	}
	return Pattern{E: terms[0], A: terms[1], V: terms[2]}, nil
}

func parseTerm(v edn.Value) (Term, error) {
	if sym, ok := v.(edn.Symbol); ok {
		switch {
		case sym == "_":
			return Placeholder{}, nil
		case isVariable(string(sym)):
			return Variable(sym), nil
		default:
			return nil, core.Errorf(core.ErrEdnParse, "unexpected symbol %s in pattern", sym)
		}
	}
	switch v.(type) {
	case edn.Vector, edn.List, edn.Map, edn.Set, edn.Nil:
		return nil, core.Errorf(core.ErrEdnParse, "unsupported pattern term %s", v)
	}
	return Constant{Value: v}, nil
}

func isVariable(s string) bool {
	return strings.HasPrefix(s, "?") && len(s) > 1
}
