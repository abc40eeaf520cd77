package conn

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// Observer receives every committed transaction, in commit order.
type Observer func(txID core.Causetid, datoms []core.Datom)

// RegisterObserver adds fn under key, replacing any observer already
// registered with that key. An empty key is replaced by a fresh UUID.
// It returns the key used.
func (c *Conn) RegisterObserver(key string, fn Observer) string {
	if key == "" {
		key = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers[key] = fn
	return key
}

// UnregisterObserver removes the observer registered under key. It
// reports whether one was registered.
func (c *Conn) UnregisterObserver(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.observers[key]
	delete(c.observers, key)
	return ok
}

// notify runs the observers in key order. Caller must hold writeMu so
// notifications keep commit order. A panicking observer is logged and
// skipped; it never fails the commit.
func (c *Conn) notify(txID core.Causetid, datoms []core.Datom) {
	c.mu.RLock()
	keys := slices.Sorted(maps.Keys(c.observers))
	fns := make([]Observer, len(keys))
	for i, k := range keys {
		fns[i] = c.observers[k]
	}
	c.mu.RUnlock()

	for i, fn := range fns {
		if err := safeCall(fn, txID, datoms); err != nil {
			slog.Error("observer failed", "observer", keys[i], "tx", txID, "error", err)
			c.metrics.ObserverFailed()
		}
	}
}

func safeCall(fn Observer, txID core.Causetid, datoms []core.Datom) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn(txID, slices.Clone(datoms))
	return nil
}
