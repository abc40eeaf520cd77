// Package vocabulary installs named, versioned groups of attributes
// declared in CUE.
//
// A vocabulary file looks like:
//
//	vocabulary: "org.example/person": {
//		version: 1
//		attributes: {
//			"person/name":  {type: "string", index: true}
//			"person/email": {type: "string", unique: "identity"}
//			"person/friend": {type: "ref", cardinality: "many"}
//		}
//	}
//
// Ensure brings a store up to a vocabulary: missing attributes are
// installed, changed mutable flags are altered, and the vocabulary entity
// records its version and member attributes under :db.schema/version and
// :db.schema/attribute.
package vocabulary

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// schemaSource constrains every vocabulary file.
const schemaSource = `
#Attribute: {
	type:        "ref" | "keyword" | "long" | "double" | "string" | "uuid" | "boolean" | "instant"
	cardinality: *"one" | "many"
	unique:      *"none" | "value" | "identity"
	index:       *false | bool
	fulltext:    *false | bool
	isComponent: *false | bool
	noHistory:   *false | bool
	doc:         *"" | string
}

#Vocabulary: {
	version: int & >=1
	attributes: [string]: #Attribute
}

vocabulary: [string]: #Vocabulary
`

// Definition is one compiled vocabulary.
type Definition struct {
	Name       core.Keyword
	Version    int64
	Attributes []AttributeDef // sorted by Solitonid
}

// AttributeDef is one attribute of a vocabulary.
type AttributeDef struct {
	Solitonid core.Keyword
	Attribute core.Attribute
	Doc       string
}

// CompileError is a vocabulary error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileAll unifies v, built in ctx, with the vocabulary schema and
// compiles every entry under the top-level vocabulary field, sorted by
// name.
func CompileAll(ctx *cue.Context, v cue.Value) ([]Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	schema := ctx.CompileString(schemaSource, cue.Filename("vocabulary.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile vocabulary schema: %w", err)
	}
	v = v.Unify(schema)

	vocabs := v.LookupPath(cue.ParsePath("vocabulary"))
	if !vocabs.Exists() {
		return nil, &CompileError{Field: "vocabulary", Message: "no vocabulary field", Pos: v.Pos()}
	}
	if err := vocabs.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := vocabs.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var defs []Definition
	for iter.Next() {
		def, err := compile(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	slices.SortFunc(defs, func(a, b Definition) int { return a.Name.Compare(b.Name) })
	return defs, nil
}

func compile(label string, v cue.Value) (*Definition, error) {
	name, err := core.ParseKeyword(":" + label)
	if err != nil || !name.IsNamespaced() {
		return nil, &CompileError{Field: "vocabulary", Message: fmt.Sprintf("vocabulary name %q must be namespaced", label), Pos: v.Pos()}
	}
	def := &Definition{Name: name}

	if def.Version, err = v.LookupPath(cue.ParsePath("version")).Int64(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.LookupPath(cue.ParsePath("attributes")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		attr, err := compileAttribute(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		def.Attributes = append(def.Attributes, *attr)
	}
	slices.SortFunc(def.Attributes, func(a, b AttributeDef) int { return a.Solitonid.Compare(b.Solitonid) })
	return def, nil
}

func compileAttribute(label string, v cue.Value) (*AttributeDef, error) {
	kw, err := core.ParseKeyword(":" + label)
	if err != nil || !kw.IsNamespaced() {
		return nil, &CompileError{Field: "attributes", Message: fmt.Sprintf("attribute name %q must be namespaced", label), Pos: v.Pos()}
	}

	str := func(field string) (string, error) {
		return v.LookupPath(cue.ParsePath(field)).String()
	}
	flag := func(field string) (bool, error) {
		return v.LookupPath(cue.ParsePath(field)).Bool()
	}

	def := &AttributeDef{Solitonid: kw}
	attr := &def.Attribute

	typ, err := str("type")
	if err != nil {
		return nil, formatCUEError(err)
	}
	vt, ok := core.ParseValueType(typ)
	if !ok {
		return nil, &CompileError{Field: "type", Message: fmt.Sprintf("unknown value type %q", typ), Pos: v.Pos()}
	}
	attr.ValueType = vt

	card, err := str("cardinality")
	if err != nil {
		return nil, formatCUEError(err)
	}
	if card == "many" {
		attr.Cardinality = core.CardinalityMany
	}

	unique, err := str("unique")
	if err != nil {
		return nil, formatCUEError(err)
	}
	switch unique {
	case "value":
		attr.Unique = core.UniqueValue
	case "identity":
		attr.Unique = core.UniqueIdentity
	}

	for field, dst := range map[string]*bool{
		"index":       &attr.Index,
		"fulltext":    &attr.Fulltext,
		"isComponent": &attr.Component,
		"noHistory":   &attr.NoHistory,
	} {
		if *dst, err = flag(field); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if attr.Unique == core.UniqueIdentity {
		attr.Index = true
	}

	if def.Doc, err = str("doc"); err != nil {
		return nil, formatCUEError(err)
	}

	if err := attr.Validate(0); err != nil {
		return nil, &CompileError{Field: "attributes", Message: fmt.Sprintf("%s: %v", kw, err), Pos: v.Pos()}
	}
	return def, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
