package vocabulary

import (
	"context"
	"log/slog"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
	"github.com/YosiSF/EinsteinDB-sub004/internal/transact"
)

// Conn is what Ensure needs from a connection. *conn.Conn implements it.
type Conn interface {
	Schema() *topograph.Schema
	Get(ctx context.Context, e core.Causetid, kw core.Keyword) ([]core.TypedValue, error)
	Transact(ctx context.Context, terms []transact.Term) (*transact.Report, error)
}

// Status is what Ensure did to a vocabulary.
type Status int

const (
	// Unchanged means the store already matched the definition.
	Unchanged Status = iota
	// Installed means the vocabulary entity was created.
	Installed
	// Updated means an existing vocabulary was upgraded or altered.
	Updated
)

func (s Status) String() string {
	switch s {
	case Installed:
		return "installed"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Outcome reports one Ensure call.
type Outcome struct {
	Name            core.Keyword     `json:"name"`
	Status          Status           `json:"-"`
	PreviousVersion int64            `json:"previous_version"`
	Version         int64            `json:"version"`
	Report          *transact.Report `json:"report,omitempty"`
}

var (
	attrSolitonid = transact.Attr(":db/solitonid")
	attrValueType = transact.Attr(":db/valueType")
	attrCard      = transact.Attr(":db/cardinality")
	attrUnique    = transact.Attr(":db/unique")
	attrIndex     = transact.Attr(":db/index")
	attrFulltext  = transact.Attr(":db/fulltext")
	attrComponent = transact.Attr(":db/isComponent")
	attrNoHistory = transact.Attr(":db/noHistory")
	attrDoc       = transact.Attr(":db/doc")
	attrVersion   = transact.Attr(":db.schema/version")
	attrMember    = transact.Attr(":db.schema/attribute")
)

// Ensure transacts whatever def needs on top of the current schema. A
// store holding a newer version of the vocabulary fails with
// BAD_TOPOGRAPH_ASSERTION, as does a definition that changes an
// attribute's value type or cardinality.
func Ensure(ctx context.Context, c Conn, def Definition) (*Outcome, error) {
	terms, prev, err := Plan(ctx, c, def)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Name: def.Name, PreviousVersion: prev, Version: def.Version}
	if len(terms) == 0 {
		return out, nil
	}

	report, err := c.Transact(ctx, terms)
	if err != nil {
		return nil, err
	}
	out.Report = report
	out.Status = Updated
	if _, existed := report.TempIDs[def.Name.String()]; existed {
		out.Status = Installed
	}
	slog.Info("ensured vocabulary", "vocabulary", def.Name, "status", out.Status, "version", def.Version, "tx", report.TxID)
	return out, nil
}

// EnsureAll ensures each definition in order, stopping at the first error.
func EnsureAll(ctx context.Context, c Conn, defs []Definition) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(defs))
	for _, def := range defs {
		out, err := Ensure(ctx, c, def)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, *out)
	}
	return outcomes, nil
}

// Plan returns the terms Ensure would transact and the installed version
// of the vocabulary (0 if absent). No terms means nothing to do.
func Plan(ctx context.Context, c Conn, def Definition) ([]transact.Term, int64, error) {
	schema := c.Schema()

	var terms []transact.Term
	var vocab transact.EntityPlace
	var prev int64
	members := make(map[core.Causetid]bool)

	if e, ok := schema.Causetid(def.Name); ok {
		vocab = transact.KnownID(e)
		versions, err := c.Get(ctx, e, attrVersion.Keyword())
		if err != nil {
			return nil, 0, err
		}
		if len(versions) > 0 {
			if v, ok := versions[0].(core.Long); ok {
				prev = int64(v)
			}
		}
		refs, err := c.Get(ctx, e, attrMember.Keyword())
		if err != nil {
			return nil, 0, err
		}
		for _, r := range refs {
			if r, ok := r.(core.Ref); ok {
				members[core.Causetid(r)] = true
			}
		}
	} else {
		vocab = transact.TempID(def.Name.String())
		terms = append(terms, transact.Add(vocab, attrSolitonid, transact.Solitonid(def.Name)))
	}

	if prev > def.Version {
		return nil, prev, core.Errorf(core.ErrBadTopographAssertion,
			"vocabulary %s is at version %d, newer than %d", def.Name, prev, def.Version)
	}

	for _, ad := range def.Attributes {
		ts, err := attributeTerms(ctx, c, schema, vocab, members, ad)
		if err != nil {
			return nil, prev, err
		}
		terms = append(terms, ts...)
	}

	if prev != def.Version {
		terms = append(terms, transact.Add(vocab, attrVersion, transact.Val(core.Long(def.Version))))
	}
	return terms, prev, nil
}

func attributeTerms(
	ctx context.Context,
	c Conn,
	schema *topograph.Schema,
	vocab transact.EntityPlace,
	members map[core.Causetid]bool,
	ad AttributeDef,
) ([]transact.Term, error) {
	existing, a, ok := schema.AttributeForSolitonid(ad.Solitonid)
	if !ok {
		if _, named := schema.Causetid(ad.Solitonid); named {
			return nil, core.Errorf(core.ErrBadTopographAssertion,
				"%s already names an entity that is not an attribute", ad.Solitonid)
		}
		e := transact.TempID(ad.Solitonid.String())
		terms := installTerms(e, ad)
		return append(terms, transact.Add(vocab, attrMember, e)), nil
	}

	want := ad.Attribute
	if existing.ValueType != want.ValueType || existing.Cardinality != want.Cardinality {
		return nil, core.Errorf(core.ErrBadTopographAssertion,
			"cannot change %s from %s to %s", ad.Solitonid, existing, want).WithAttribute(a)
	}

	e := transact.KnownID(a)
	var terms []transact.Term
	if existing.Unique != want.Unique {
		if want.Unique == core.UniqueNone {
			terms = append(terms, transact.Retract(e, attrUnique, transact.KnownID(existing.Unique.Causetid())))
		} else {
			terms = append(terms, transact.Add(e, attrUnique, transact.KnownID(want.Unique.Causetid())))
		}
	}
	for _, f := range []struct {
		attr      transact.Solitonid
		have, set bool
	}{
		{attrIndex, existing.Index, want.Index},
		{attrFulltext, existing.Fulltext, want.Fulltext},
		{attrComponent, existing.Component, want.Component},
		{attrNoHistory, existing.NoHistory, want.NoHistory},
	} {
		if f.have != f.set {
			terms = append(terms, transact.Add(e, f.attr, transact.Val(core.Boolean(f.set))))
		}
	}

	docs, err := c.Get(ctx, a, attrDoc.Keyword())
	if err != nil {
		return nil, err
	}
	var doc core.String
	if len(docs) > 0 {
		doc, _ = docs[0].(core.String)
	}
	switch {
	case string(doc) == ad.Doc:
	case ad.Doc == "":
		terms = append(terms, transact.Retract(e, attrDoc, transact.Val(doc)))
	default:
		terms = append(terms, transact.Add(e, attrDoc, transact.Val(core.String(ad.Doc))))
	}

	if !members[a] {
		terms = append(terms, transact.Add(vocab, attrMember, e))
	}
	return terms, nil
}

func installTerms(e transact.TempID, ad AttributeDef) []transact.Term {
	attr := ad.Attribute
	terms := []transact.Term{
		transact.Add(e, attrSolitonid, transact.Solitonid(ad.Solitonid)),
		transact.Add(e, attrValueType, transact.KnownID(attr.ValueType.Causetid())),
		transact.Add(e, attrCard, transact.KnownID(attr.Cardinality.Causetid())),
	}
	if attr.Unique != core.UniqueNone {
		terms = append(terms, transact.Add(e, attrUnique, transact.KnownID(attr.Unique.Causetid())))
	}
	for _, f := range []struct {
		attr transact.Solitonid
		set  bool
	}{
		{attrIndex, attr.Index},
		{attrFulltext, attr.Fulltext},
		{attrComponent, attr.Component},
		{attrNoHistory, attr.NoHistory},
	} {
		if f.set {
			terms = append(terms, transact.Add(e, f.attr, transact.Val(core.Boolean(true))))
		}
	}
	if ad.Doc != "" {
		terms = append(terms, transact.Add(e, attrDoc, transact.Val(core.String(ad.Doc))))
	}
	return terms
}
