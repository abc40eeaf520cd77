// Package conn is the connection to one fact store: it owns the metadata
// snapshot (schema, partition map, attribute cache), serializes writers and
// notifies observers after each commit.
//
// Thread-safety model:
//   - Transact, MoveRange and Cache: serialized by the writer lock
//   - Metadata, Get, Datoms, Query: safe from any goroutine; they read the
//     last published snapshot and never block on a running writer's I/O
//
// A published Metadata is never modified. Writers build a new one and swap
// it in after the store transaction commits.
package conn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/YosiSF/EinsteinDB-sub004/internal/cache"
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/metrics"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
	"github.com/YosiSF/EinsteinDB-sub004/internal/store"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
	"github.com/YosiSF/EinsteinDB-sub004/internal/transact"
)

// Clock supplies transaction instants.
// Implemented by the system clock (production) and
// testutil.DeterministicClock (tests).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Metadata is an immutable snapshot of the connection state.
type Metadata struct {
	// Generation increases on every commit, move and cache registration.
	Generation uint64
	Schema     *topograph.Schema
	Partitions partition.Map
}

// Conn is a connection to a store.
type Conn struct {
	store   *store.Store
	clock   Clock
	metrics *metrics.Metrics
	cache   *cache.AttributeCache

	writeMu sync.Mutex

	mu        sync.RWMutex
	meta      *Metadata
	observers map[string]Observer
}

type options struct {
	clock         Clock
	metrics       *metrics.Metrics
	cacheSize     int
	busyTimeoutMS int
}

// Option configures Open.
type Option func(*options)

// WithClock sets the source of transaction instants.
//
// Default: the system clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithMetrics records transaction and timeline metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithCacheSize bounds the attribute cache.
//
// Default: cache.DefaultMaxEntries.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		o.busyTimeoutMS = ms
	}
}

// Open opens the store at path, bootstrapping it if it is empty, and loads
// the schema and partition map.
func Open(ctx context.Context, path string, opts ...Option) (*Conn, error) {
	o := options{
		clock:         systemClock{},
		cacheSize:     cache.DefaultMaxEntries,
		busyTimeoutMS: store.DefaultBusyTimeoutMS,
	}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(path, store.WithBusyTimeout(o.busyTimeoutMS))
	if err != nil {
		return nil, err
	}

	c := &Conn{
		store:     st,
		clock:     o.clock,
		metrics:   o.metrics,
		cache:     cache.New(o.cacheSize, o.metrics),
		observers: make(map[string]Observer),
	}

	meta, err := c.load(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	c.meta = meta
	return c, nil
}

func (c *Conn) load(ctx context.Context) (*Metadata, error) {
	empty, err := c.store.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return c.bootstrap(ctx)
	}

	datoms, err := c.store.TopographDatoms(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := topograph.FromDatoms(datoms)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	parts, err := c.store.ReadPartitionMap(ctx)
	if err != nil {
		return nil, err
	}
	return &Metadata{Schema: schema, Partitions: parts}, nil
}

func (c *Conn) bootstrap(ctx context.Context) (*Metadata, error) {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	res, err := transact.Bootstrap(ctx, tx, core.InstantFromTime(c.clock.Now()))
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slog.Info("bootstrapped store", "tx", res.Report.TxID, "datoms", len(res.Report.Datoms))
	return &Metadata{Schema: res.Schema, Partitions: res.Partitions}, nil
}

// Close closes the underlying store.
func (c *Conn) Close() error {
	return c.store.Close()
}

// Metadata returns the current snapshot.
func (c *Conn) Metadata() *Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Schema returns the current schema. Callers must not modify it.
func (c *Conn) Schema() *topograph.Schema {
	return c.Metadata().Schema
}

// publish swaps in a new snapshot. Cached values touched by datoms (or
// all of them, if clear is set) are dropped under the same lock, so a
// reader that fetched a value before the commit cannot store it after.
// Caller must hold writeMu.
func (c *Conn) publish(schema *topograph.Schema, parts partition.Map, datoms []core.Datom, clear bool) *Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := &Metadata{
		Generation: c.meta.Generation + 1,
		Schema:     schema,
		Partitions: parts,
	}
	c.meta = next
	if clear {
		c.cache.Clear()
	} else {
		c.cache.Invalidate(datoms)
	}
	for _, a := range c.cache.Registered() {
		if !schema.IsAttribute(a) {
			c.cache.Deregister(a)
		}
	}
	return next
}
