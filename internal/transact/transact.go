// Package transact applies a batch of assertions and retractions.
//
// Transact resolves tempids, validates every value against the schema,
// computes the effective changes against the current datoms, applies any
// schema changes to a cloned schema, and writes datoms (and, unless told
// otherwise, the transaction log) through the caller's store transaction.
// Nothing is written until every validation has passed; committing the
// store transaction and publishing the new schema and partition map are
// left to the caller.
package transact

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
)

// Action selects what a transaction writes.
type Action int

const (
	// MaterializeAndCommit updates the current datoms and appends to the log.
	MaterializeAndCommit Action = iota
	// Materialize updates the current datoms only. Used when replaying
	// inverse transactions during a timeline move.
	Materialize
)

// Store is the subset of a store transaction the transactor uses.
type Store interface {
	Values(ctx context.Context, e, a core.Causetid) ([]core.TypedValue, error)
	EntityWithValue(ctx context.Context, a core.Causetid, v core.TypedValue) (core.Causetid, bool, error)
	InsertDatom(ctx context.Context, d core.Datom, attr core.Attribute) error
	DeleteDatom(ctx context.Context, e, a core.Causetid, v core.TypedValue) error
	LogDatoms(ctx context.Context, datoms []core.Datom) error
	UpdateAttributeFlags(ctx context.Context, a core.Causetid, attr core.Attribute) error
}

type options struct {
	action     Action
	instant    core.Instant
	hasInstant bool
}

// Option configures Transact.
type Option func(*options)

// WithAction sets the transaction action. Default MaterializeAndCommit.
func WithAction(a Action) Option {
	return func(o *options) {
		o.action = a
	}
}

// WithInstant fixes the :db/txInstant of the transaction.
// Default is the current wall-clock time.
func WithInstant(i core.Instant) Option {
	return func(o *options) {
		o.instant = i
		o.hasInstant = true
	}
}

// Report describes one committed transaction.
type Report struct {
	TxID      core.Causetid              `json:"tx_id"`
	TxInstant core.Instant               `json:"tx_instant"`
	TempIDs   map[string]core.Causetid   `json:"tempids"`
	Datoms    []core.Datom               `json:"-"`
	Spacetime *topograph.SpacetimeReport `json:"spacetime,omitempty"`
}

// Result is what a successful Transact hands back to the caller to
// publish once the store transaction commits.
type Result struct {
	Report *Report

	// Schema is the updated schema, or nil if the schema did not change.
	Schema *topograph.Schema

	// Partitions has the transaction id and every allocated tempid reserved.
	Partitions partition.Map
}

// pending is a term whose attribute and non-temporary places are resolved.
type pending struct {
	added bool
	e     core.Causetid
	eTemp string
	a     core.Causetid
	attr  core.Attribute
	v     core.TypedValue
	vTemp string
}

type eaKey struct {
	e core.Causetid
	a core.Causetid
}

type datomKey struct {
	e core.Causetid
	a core.Causetid
	v core.TypedValue
}

type transaction struct {
	ctx     context.Context
	store   Store
	schema  *topograph.Schema
	parts   partition.Map
	txID    core.Causetid
	tempids map[string]core.Causetid
}

// Transact applies terms on top of schema and partitions, which are not
// modified. Any validation failure aborts before the first write.
func Transact(ctx context.Context, st Store, partitions partition.Map, schema *topograph.Schema, terms []Term, opts ...Option) (*Result, error) {
	o := options{action: MaterializeAndCommit}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasInstant {
		o.instant = core.InstantFromTime(time.Now())
	}

	parts := partitions.Clone()
	txID, err := parts.AllocateOne(partition.Tx)
	if err != nil {
		return nil, fmt.Errorf("allocate tx id: %w", err)
	}

	t := &transaction{
		ctx:     ctx,
		store:   st,
		schema:  schema,
		parts:   parts,
		txID:    txID,
		tempids: make(map[string]core.Causetid),
	}

	resolved := make([]pending, 0, len(terms))
	for _, term := range terms {
		p, err := t.resolveTerm(term)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, p)
	}

	if err := t.upsert(resolved); err != nil {
		return nil, err
	}
	if err := t.allocateTempIDs(resolved); err != nil {
		return nil, err
	}

	retractions, assertions, err := t.effectiveChanges(resolved)
	if err != nil {
		return nil, err
	}

	var newSchema *topograph.Schema
	var spacetime *topograph.SpacetimeReport
	if t.touchesSchema(retractions, assertions) {
		quads := make([]core.Quad, 0, len(retractions)+len(assertions))
		for _, d := range retractions {
			quads = append(quads, core.Quad{E: d.E, A: d.A, V: d.V, Added: false})
		}
		for _, d := range assertions {
			quads = append(quads, core.Quad{E: d.E, A: d.A, V: d.V, Added: true})
		}
		newSchema = schema.Clone()
		spacetime, err = newSchema.UpdateFromQuadruples(quads)
		if err != nil {
			return nil, err
		}
	}
	final := schema
	if newSchema != nil {
		final = newSchema
	}

	txInstant := core.Datom{E: txID, A: core.DBTxInstant, V: o.instant, Tx: txID, Added: true}
	assertions = append(assertions, txInstant)

	for _, d := range retractions {
		if err := st.DeleteDatom(ctx, d.E, d.A, d.V); err != nil {
			return nil, err
		}
	}
	for _, d := range assertions {
		attr, ok := final.Attribute(d.A)
		if !ok {
			attr, _ = schema.Attribute(d.A)
		}
		if err := st.InsertDatom(ctx, d, attr); err != nil {
			return nil, err
		}
	}

	datoms := make([]core.Datom, 0, len(retractions)+len(assertions))
	datoms = append(datoms, retractions...)
	datoms = append(datoms, assertions...)
	slices.SortFunc(datoms, core.CompareDatoms)

	if o.action == MaterializeAndCommit {
		if err := st.LogDatoms(ctx, datoms); err != nil {
			return nil, err
		}
	}

	if spacetime != nil {
		for _, a := range slices.Sorted(maps.Keys(spacetime.Altered)) {
			attr, ok := final.Attribute(a)
			if !ok {
				continue
			}
			if err := st.UpdateAttributeFlags(ctx, a, attr); err != nil {
				return nil, err
			}
		}
	}

	report := &Report{
		TxID:      txID,
		TxInstant: o.instant,
		TempIDs:   t.tempids,
		Datoms:    datoms,
		Spacetime: spacetime,
	}

	logArgs := []any{"tx", txID, "datoms", len(datoms), "tempids", len(t.tempids)}
	if spacetime != nil {
		logArgs = append(logArgs, "installed", len(spacetime.Installed), "altered", len(spacetime.Altered))
	}
	slog.Debug("transacted", logArgs...)

	return &Result{Report: report, Schema: newSchema, Partitions: parts}, nil
}

func (t *transaction) resolveTerm(term Term) (pending, error) {
	p := pending{added: term.Added}

	a, attr, err := t.resolveAttribute(term.A)
	if err != nil {
		return p, err
	}
	p.a, p.attr = a, attr

	switch e := term.E.(type) {
	case KnownID:
		if err := t.checkAllocated(core.Causetid(e)); err != nil {
			return p, err
		}
		p.e = core.Causetid(e)
	case TempID:
		p.eTemp = string(e)
	case Solitonid:
		id, err := t.schema.RequireCausetid(e.Keyword())
		if err != nil {
			return p, err
		}
		p.e = id
	default:
		return p, core.Errorf(core.ErrBadValuePair, "term %s has no entity", term)
	}

	p.v, p.vTemp, err = t.resolveValue(a, attr, term.V)
	if err != nil {
		return p, err
	}
	return p, nil
}

func (t *transaction) resolveAttribute(place AttributePlace) (core.Causetid, core.Attribute, error) {
	var a core.Causetid
	switch p := place.(type) {
	case KnownID:
		a = core.Causetid(p)
	case Solitonid:
		id, err := t.schema.RequireCausetid(p.Keyword())
		if err != nil {
			return 0, core.Attribute{}, err
		}
		a = id
	default:
		return 0, core.Attribute{}, core.NewError(core.ErrUnknownAttribute, "term has no attribute")
	}
	attr, err := t.schema.RequireAttribute(a)
	if err != nil {
		return 0, core.Attribute{}, err
	}
	return a, attr, nil
}

// resolveValue interprets a value place according to the attribute's
// value type. A non-empty tempid is returned for ref values still to be
// allocated.
func (t *transaction) resolveValue(a core.Causetid, attr core.Attribute, place ValuePlace) (core.TypedValue, string, error) {
	switch attr.ValueType {
	case core.ValueTypeRef:
		switch p := place.(type) {
		case KnownID:
			return t.knownRef(core.Causetid(p))
		case TempID:
			return nil, string(p), nil
		case Solitonid:
			return t.solitonidRef(p.Keyword())
		case Value:
			switch v := p.TypedValue.(type) {
			case core.Ref:
				return t.knownRef(core.Causetid(v))
			case core.Long:
				return t.knownRef(core.Causetid(v))
			case core.String:
				return nil, string(v), nil
			case core.Keyword:
				return t.solitonidRef(v)
			}
		}
	case core.ValueTypeKeyword:
		switch p := place.(type) {
		case Solitonid:
			return p.Keyword(), "", nil
		case Value:
			if kw, ok := p.TypedValue.(core.Keyword); ok {
				return kw, "", nil
			}
		}
	default:
		if p, ok := place.(Value); ok && p.TypedValue != nil {
			v := p.TypedValue
			if n, ok := v.(core.Long); ok && attr.ValueType == core.ValueTypeDouble {
				v = core.Double(float64(n))
			}
			if v.ValueType() == attr.ValueType && !core.IsNaN(v) {
				return v, "", nil
			}
		}
	}

	kind := core.ErrBadValuePair
	if core.IsTopographAttribute(a) {
		kind = core.ErrBadTopographAssertion
	}
	err := core.Errorf(kind, "value %v is not a valid %s for attribute %s", place, attr.ValueType, t.schema.Describe(a)).
		WithAttribute(a)
	if v, ok := place.(Value); ok {
		err = err.WithValue(v.TypedValue)
	}
	return nil, "", err
}

func (t *transaction) knownRef(e core.Causetid) (core.TypedValue, string, error) {
	if err := t.checkAllocated(e); err != nil {
		return nil, "", err
	}
	return core.Ref(e), "", nil
}

func (t *transaction) solitonidRef(kw core.Keyword) (core.TypedValue, string, error) {
	e, err := t.schema.RequireCausetid(kw)
	if err != nil {
		return nil, "", err
	}
	return core.Ref(e), "", nil
}

// checkAllocated rejects user-supplied causetids the partition map has not
// handed out yet: using one would collide with a future allocation.
func (t *transaction) checkAllocated(e core.Causetid) error {
	if t.parts.IsAllocated(e) {
		return nil
	}
	return core.Errorf(core.ErrTempIDCollision, "causetid %d has not been allocated", e).WithCausetid(e)
}

// upsert resolves tempids that assert an existing value of a
// :db.unique/identity attribute to the entity already holding it.
func (t *transaction) upsert(resolved []pending) error {
	for _, p := range resolved {
		if !p.added || p.eTemp == "" || p.vTemp != "" || p.attr.Unique != core.UniqueIdentity {
			continue
		}
		e, ok, err := t.store.EntityWithValue(t.ctx, p.a, p.v)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if prev, seen := t.tempids[p.eTemp]; seen && prev != e {
			return core.Errorf(core.ErrSchemaConstraintViolation,
				"tempid %q upserts to conflicting entities %d and %d", p.eTemp, prev, e).WithAttribute(p.a).WithValue(p.v)
		}
		t.tempids[p.eTemp] = e
	}
	return nil
}

// allocateTempIDs gives every unresolved tempid a fresh user-partition
// causetid, in sorted tempid order.
func (t *transaction) allocateTempIDs(resolved []pending) error {
	inAssertion := make(map[string]bool)
	mentioned := make(map[string]bool)
	for _, p := range resolved {
		for _, temp := range []string{p.eTemp, p.vTemp} {
			if temp == "" {
				continue
			}
			mentioned[temp] = true
			if p.added {
				inAssertion[temp] = true
			}
		}
	}

	for _, temp := range slices.Sorted(maps.Keys(mentioned)) {
		if _, ok := t.tempids[temp]; ok {
			continue
		}
		if !inAssertion[temp] {
			return core.Errorf(core.ErrSchemaConstraintViolation, "tempid %q is only used in retractions", temp)
		}
		e, err := t.parts.AllocateOne(partition.User)
		if err != nil {
			return fmt.Errorf("allocate tempid %q: %w", temp, err)
		}
		t.tempids[temp] = e
	}
	return nil
}

// effectiveChanges resolves tempids, rejects conflicting terms, and
// compares against the current datoms: retracting an absent datom or
// asserting a present one is a no-op, and asserting a new value of a
// cardinality-one attribute retracts the old one.
func (t *transaction) effectiveChanges(resolved []pending) (retractions, assertions []core.Datom, err error) {
	seen := make(map[datomKey]bool)
	oneValue := make(map[eaKey]core.TypedValue)
	groups := make(map[eaKey][]pending)

	for _, p := range resolved {
		if p.eTemp != "" {
			p.e = t.tempids[p.eTemp]
		}
		if p.vTemp != "" {
			p.v = core.Ref(t.tempids[p.vTemp])
		}

		k := datomKey{p.e, p.a, p.v}
		if added, ok := seen[k]; ok {
			if added != p.added {
				return nil, nil, core.Errorf(core.ErrSchemaConstraintViolation,
					"cannot assert and retract [%d %s %s] in one transaction", p.e, t.schema.Describe(p.a), core.FormatValue(p.v)).
					WithCausetid(p.e).WithAttribute(p.a).WithValue(p.v)
			}
			continue
		}
		seen[k] = p.added

		ea := eaKey{p.e, p.a}
		if p.added && !p.attr.Multival() {
			if prev, ok := oneValue[ea]; ok && prev != p.v {
				return nil, nil, core.Errorf(core.ErrSchemaConstraintViolation,
					"conflicting values %s and %s for cardinality-one attribute %s of entity %d",
					core.FormatValue(prev), core.FormatValue(p.v), t.schema.Describe(p.a), p.e).
					WithCausetid(p.e).WithAttribute(p.a).WithValue(p.v)
			}
			oneValue[ea] = p.v
		}
		groups[ea] = append(groups[ea], p)
	}

	keys := slices.SortedFunc(maps.Keys(groups), func(x, y eaKey) int {
		if c := cmp.Compare(x.e, y.e); c != 0 {
			return c
		}
		return cmp.Compare(x.a, y.a)
	})

	for _, ea := range keys {
		current, err := t.store.Values(t.ctx, ea.e, ea.a)
		if err != nil {
			return nil, nil, err
		}
		present := make(map[core.TypedValue]bool, len(current))
		for _, v := range current {
			present[v] = true
		}
		retracted := make(map[core.TypedValue]bool)
		retract := func(v core.TypedValue) {
			if present[v] && !retracted[v] {
				retracted[v] = true
				retractions = append(retractions, core.Datom{E: ea.e, A: ea.a, V: v, Tx: t.txID, Added: false})
			}
		}

		for _, p := range groups[ea] {
			if !p.added {
				retract(p.v)
			}
		}
		for _, p := range groups[ea] {
			if !p.added || present[p.v] {
				continue
			}
			if !p.attr.Multival() {
				for _, v := range current {
					retract(v)
				}
			}
			assertions = append(assertions, core.Datom{E: ea.e, A: ea.a, V: p.v, Tx: t.txID, Added: true})
		}
	}
	return retractions, assertions, nil
}

func (t *transaction) touchesSchema(retractions, assertions []core.Datom) bool {
	for _, ds := range [][]core.Datom{retractions, assertions} {
		for _, d := range ds {
			if core.IsTopographAttribute(d.A) {
				return true
			}
			if d.A == core.DBDoc && t.schema.IsAttribute(d.E) {
				return true
			}
		}
	}
	return false
}
