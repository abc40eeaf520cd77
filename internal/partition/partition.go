// Package partition tracks causetid allocation ranges.
//
// A Map names each partition (":db.part/user", ":db.part/tx", ...) and
// records its [Start, End] range, the next free causetid, and whether its
// entities may be excised. Maps are values: Clone before mutating one that
// may be shared with readers.
package partition

import (
	"fmt"
	"math"
	"sort"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// Well-known partition names.
const (
	DB   = ":db.part/db"
	User = ":db.part/user"
	Tx   = ":db.part/tx"
)

// Bootstrap id ranges.
const (
	DB0   core.Causetid = 0
	User0 core.Causetid = 0x10000
	Tx0   core.Causetid = 0x10000000

	// FirstUserSpaceID is the first causetid after the bootstrap vocabulary.
	FirstUserSpaceID core.Causetid = core.DBSchemaCore + 1
)

// Partition is one allocation range. NextCausetid always lies in
// [Start, End+1]; it reaches End+1 only once the partition is exhausted.
type Partition struct {
	Start         core.Causetid `json:"start"`
	End           core.Causetid `json:"end"`
	NextCausetid  core.Causetid `json:"next_causetid"`
	AllowExcision bool          `json:"allow_excision"`
}

// New creates a partition, checking that next lies within range.
func New(start, end, next core.Causetid, allowExcision bool) (Partition, error) {
	if start > end {
		return Partition{}, fmt.Errorf("partition start %d after end %d", start, end)
	}
	if next < start || (end != math.MaxInt64 && next > end+1) {
		return Partition{}, fmt.Errorf("next causetid %d outside [%d, %d]", next, start, end)
	}
	return Partition{Start: start, End: end, NextCausetid: next, AllowExcision: allowExcision}, nil
}

// Contains reports whether e has already been allocated from this partition.
func (p Partition) Contains(e core.Causetid) bool {
	return e >= p.Start && e < p.NextCausetid
}

// Allows reports whether e falls anywhere in this partition's range.
func (p Partition) Allows(e core.Causetid) bool {
	return e >= p.Start && e <= p.End
}

// allocate reserves n ids and returns the first.
func (p *Partition) allocate(n int64) (core.Causetid, error) {
	first := p.NextCausetid
	if n < 0 {
		return 0, fmt.Errorf("cannot allocate %d ids", n)
	}
	if n > 0 && int64(p.End-first) < n-1 {
		return 0, fmt.Errorf("partition exhausted: need %d ids from %d, end %d", n, first, p.End)
	}
	p.NextCausetid = first + core.Causetid(n)
	return first, nil
}

// Map is the set of partitions keyed by name.
type Map map[string]Partition

// Bootstrap returns the partition map of a freshly created store.
func Bootstrap() Map {
	return Map{
		DB:   {Start: DB0, End: User0 - 1, NextCausetid: FirstUserSpaceID},
		User: {Start: User0, End: Tx0 - 1, NextCausetid: User0, AllowExcision: true},
		Tx:   {Start: Tx0, End: math.MaxInt64, NextCausetid: Tx0},
	}
}

// Clone returns an independent copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Allocate reserves n consecutive ids from the named partition and returns
// the first. The map is modified in place.
func (m Map) Allocate(name string, n int64) (core.Causetid, error) {
	p, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("unknown partition %s", name)
	}
	first, err := p.allocate(n)
	if err != nil {
		return 0, fmt.Errorf("allocate from %s: %w", name, err)
	}
	m[name] = p
	return first, nil
}

// AllocateOne reserves a single id from the named partition.
func (m Map) AllocateOne(name string) (core.Causetid, error) {
	return m.Allocate(name, 1)
}

// PartitionFor returns the name of the partition whose range allows e.
func (m Map) PartitionFor(e core.Causetid) (string, bool) {
	for _, name := range m.Names() {
		if m[name].Allows(e) {
			return name, true
		}
	}
	return "", false
}

// IsAllocated reports whether e was already handed out by some partition.
func (m Map) IsAllocated(e core.Causetid) bool {
	name, ok := m.PartitionFor(e)
	return ok && m[name].Contains(e)
}

// Names returns partition names in ascending Start order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		return m[names[i]].Start < m[names[j]].Start
	})
	return names
}

// Equal reports whether two maps hold identical partitions.
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
