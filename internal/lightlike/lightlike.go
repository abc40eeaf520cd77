// Package lightlike folds a stream of per-key assertions and retractions
// into three buckets: asserted, retracted and altered.
//
// The same reduction is used for attribute-defining datoms and for
// solitonid datoms, so it is written once, generically.
//
// Transition table (state of k, event, new state):
//
//	unseen       + assert(v)  -> asserted[k]=v
//	unseen       + retract(v) -> retracted[k]=v
//	asserted=o   + assert(v)  -> asserted[k]=v      (last write wins)
//	retracted=o  + retract(v) -> retracted[k]=v     (last write wins)
//	retracted=o  + assert(v)  -> altered[k]=(o, v)
//	asserted=o   + retract(v) -> altered[k]=(o, v)
//	altered=(a,b) + either(v) -> altered[k]=(a, v)
//
// At most one bucket holds a key at any time.
package lightlike

// Alteration is an (old, new) pair recorded for a key that saw both an
// assertion and a retraction.
type Alteration[V any] struct {
	Old V
	New V
}

// State reports which bucket currently holds a key.
type State int

const (
	Unseen State = iota
	Asserted
	Retracted
	Altered
)

// String returns the bucket name.
func (s State) String() string {
	switch s {
	case Asserted:
		return "asserted"
	case Retracted:
		return "retracted"
	case Altered:
		return "altered"
	default:
		return "unseen"
	}
}

// AddRetractAlterSet accumulates witnessed changes. The zero value is not
// usable; call New.
type AddRetractAlterSet[K comparable, V any] struct {
	Asserted  map[K]V
	Retracted map[K]V
	Altered   map[K]Alteration[V]
}

// New returns an empty set.
func New[K comparable, V any]() *AddRetractAlterSet[K, V] {
	return &AddRetractAlterSet[K, V]{
		Asserted:  make(map[K]V),
		Retracted: make(map[K]V),
		Altered:   make(map[K]Alteration[V]),
	}
}

// Witness folds one event into the set.
func (s *AddRetractAlterSet[K, V]) Witness(key K, value V, added bool) {
	if alt, ok := s.Altered[key]; ok {
		s.Altered[key] = Alteration[V]{Old: alt.Old, New: value}
		return
	}
	if added {
		if old, ok := s.Retracted[key]; ok {
			delete(s.Retracted, key)
			s.Altered[key] = Alteration[V]{Old: old, New: value}
			return
		}
		s.Asserted[key] = value
		return
	}
	if old, ok := s.Asserted[key]; ok {
		delete(s.Asserted, key)
		s.Altered[key] = Alteration[V]{Old: old, New: value}
		return
	}
	s.Retracted[key] = value
}

// StateOf reports which bucket holds key.
func (s *AddRetractAlterSet[K, V]) StateOf(key K) State {
	if _, ok := s.Altered[key]; ok {
		return Altered
	}
	if _, ok := s.Asserted[key]; ok {
		return Asserted
	}
	if _, ok := s.Retracted[key]; ok {
		return Retracted
	}
	return Unseen
}

// IsEmpty reports whether nothing has been witnessed.
func (s *AddRetractAlterSet[K, V]) IsEmpty() bool {
	return len(s.Asserted) == 0 && len(s.Retracted) == 0 && len(s.Altered) == 0
}

// Len returns the number of distinct keys witnessed.
func (s *AddRetractAlterSet[K, V]) Len() int {
	return len(s.Asserted) + len(s.Retracted) + len(s.Altered)
}
