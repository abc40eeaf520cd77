package conn

import (
	"context"

	"github.com/YosiSF/EinsteinDB-sub004/internal/algebrizer"
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/store"
)

// Get returns the current values of attribute kw on entity e, served from
// the attribute cache when kw is registered.
func (c *Conn) Get(ctx context.Context, e core.Causetid, kw core.Keyword) ([]core.TypedValue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, a, ok := c.meta.Schema.AttributeForSolitonid(kw)
	if !ok {
		return nil, core.Errorf(core.ErrUnknownAttribute, "unknown attribute %s", kw)
	}
	if !c.cache.IsRegistered(a) {
		return c.store.Values(ctx, e, a)
	}
	if vs, ok := c.cache.Get(e, a); ok {
		return vs, nil
	}
	vs, err := c.store.Values(ctx, e, a)
	if err != nil {
		return nil, err
	}
	c.cache.Put(e, a, vs)
	return vs, nil
}

// IsCached reports whether attribute kw is registered for caching.
func (c *Conn) IsCached(kw core.Keyword) bool {
	a, ok := c.Schema().Causetid(kw)
	return ok && c.cache.IsRegistered(a)
}

// Datoms returns every current datom ordered by (e, a, v).
func (c *Conn) Datoms(ctx context.Context) ([]core.Datom, error) {
	return c.store.Datoms(ctx)
}

// EntityDatoms returns the current datoms of entity e.
func (c *Conn) EntityDatoms(ctx context.Context, e core.Causetid) ([]core.Datom, error) {
	return c.store.EntityDatoms(ctx, e)
}

// Transactions returns the transaction log of a timeline.
func (c *Conn) Transactions(ctx context.Context, timeline int64) ([]core.Datom, error) {
	return c.store.Transactions(ctx, timeline)
}

// LastTxID returns the newest logged transaction.
func (c *Conn) LastTxID(ctx context.Context) (core.Causetid, bool, error) {
	return c.store.LastTxID(ctx)
}

// Timelines summarizes the non-empty timelines.
func (c *Conn) Timelines(ctx context.Context) ([]store.TimelineSummary, error) {
	return c.store.Timelines(ctx)
}

// Query runs a find query against the current state.
func (c *Conn) Query(ctx context.Context, query string) (*algebrizer.Results, error) {
	q, err := algebrizer.ParseFindQuery(query)
	if err != nil {
		return nil, err
	}
	cc, err := algebrizer.Algebrize(c.Schema(), q)
	if err != nil {
		return nil, err
	}
	sql, args := cc.ToSQL()
	rows, err := c.store.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return cc.Scan(rows)
}
