package conn

import (
	"context"
	"time"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/timeline"
	"github.com/YosiSF/EinsteinDB-sub004/internal/transact"
)

// CacheAction selects what Cache does with an attribute.
type CacheAction int

const (
	Register CacheAction = iota
	Deregister
)

func (a CacheAction) String() string {
	if a == Deregister {
		return "deregister"
	}
	return "register"
}

// Transact commits terms as one transaction and returns its report.
//
// Either every term is applied or none is: validation failures are
// reported before the first write, and store failures roll back.
func (c *Conn) Transact(ctx context.Context, terms []transact.Term) (*transact.Report, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	start := time.Now()
	res, err := c.transactLocked(ctx, terms)
	if err != nil {
		c.metrics.ObserveTransact(time.Since(start), 0, false, err)
		return nil, err
	}
	c.metrics.ObserveTransact(time.Since(start), len(res.Report.Datoms), res.Schema != nil, nil)

	c.notify(res.Report.TxID, res.Report.Datoms)
	return res.Report, nil
}

// TransactEDN parses input as a transaction and commits it.
func (c *Conn) TransactEDN(ctx context.Context, input string) (*transact.Report, error) {
	terms, err := transact.ParseTerms(input)
	if err != nil {
		return nil, err
	}
	return c.Transact(ctx, terms)
}

func (c *Conn) transactLocked(ctx context.Context, terms []transact.Term) (*transact.Result, error) {
	meta := c.Metadata()

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	res, err := transact.Transact(ctx, tx, meta.Partitions, meta.Schema, terms,
		transact.WithInstant(core.InstantFromTime(c.clock.Now())))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	schema := meta.Schema
	if res.Schema != nil {
		schema = res.Schema
	}
	c.publish(schema, res.Partitions, res.Report.Datoms, false)
	return res, nil
}

// MoveRange moves every main-timeline transaction with id >= from onto
// timeline dest, undoing their effects on the current state.
func (c *Conn) MoveRange(ctx context.Context, from core.Causetid, dest int64) (*timeline.Result, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	res, err := c.moveLocked(ctx, from, dest)
	if err != nil {
		c.metrics.ObserveMove(0, err)
		return nil, err
	}
	c.metrics.ObserveMove(len(res.Moved), nil)
	return res, nil
}

func (c *Conn) moveLocked(ctx context.Context, from core.Causetid, dest int64) (*timeline.Result, error) {
	meta := c.Metadata()

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	res, err := timeline.MoveFromMain(ctx, tx, meta.Partitions, meta.Schema, from, dest)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	schema := meta.Schema
	if res.Schema != nil {
		schema = res.Schema
	}
	c.publish(schema, res.Partitions, nil, true)
	return res, nil
}

// Cache registers or deregisters the attribute named kw for value caching.
// An unknown attribute fails with UNKNOWN_ATTRIBUTE.
func (c *Conn) Cache(kw core.Keyword, action CacheAction) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	meta := c.Metadata()
	_, a, ok := meta.Schema.AttributeForSolitonid(kw)
	if !ok {
		return core.Errorf(core.ErrUnknownAttribute, "cannot %s unknown attribute %s", action, kw)
	}

	switch action {
	case Register:
		c.cache.Register(a)
	case Deregister:
		c.cache.Deregister(a)
	}
	c.publish(meta.Schema, meta.Partitions, nil, false)
	return nil
}
