package lightlike

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWitnessLastWriteWins(t *testing.T) {
	s := New[int, int]()

	s.Witness(1, 2, true)
	assert.Equal(t, map[int]int{1: 2}, s.Asserted)

	s.Witness(1, 3, true)
	assert.Equal(t, map[int]int{1: 3}, s.Asserted)
	assert.Empty(t, s.Altered)

	s.Witness(1, 4, false)
	assert.Empty(t, s.Asserted)
	assert.Empty(t, s.Retracted)
	assert.Equal(t, map[int]Alteration[int]{1: {Old: 3, New: 4}}, s.Altered)
}

func TestWitnessRetractThenAssert(t *testing.T) {
	s := New[string, string]()

	s.Witness("k", "old", false)
	assert.Equal(t, Retracted, s.StateOf("k"))

	s.Witness("k", "new", true)
	assert.Equal(t, Altered, s.StateOf("k"))
	assert.Equal(t, Alteration[string]{Old: "old", New: "new"}, s.Altered["k"])
	assert.Empty(t, s.Retracted)
}

func TestWitnessAlteredKeepsOriginalOld(t *testing.T) {
	s := New[int, string]()

	// Assert, retract, then assert a different value: the intermediate
	// value never surfaces.
	s.Witness(7, "a", true)
	s.Witness(7, "a", false)
	s.Witness(7, "c", true)
	assert.Equal(t, Alteration[string]{Old: "a", New: "c"}, s.Altered[7])

	s.Witness(7, "d", false)
	assert.Equal(t, Alteration[string]{Old: "a", New: "d"}, s.Altered[7])
	assert.Equal(t, 1, s.Len())
}

func TestWitnessRepeatedRetraction(t *testing.T) {
	s := New[int, int]()
	s.Witness(1, 5, false)
	s.Witness(1, 6, false)
	assert.Equal(t, map[int]int{1: 6}, s.Retracted)
}

func TestStateOfUnseen(t *testing.T) {
	s := New[int, int]()
	assert.Equal(t, Unseen, s.StateOf(1))
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "unseen", Unseen.String())
	assert.Equal(t, "altered", Altered.String())
}

type event struct {
	key   int
	value int
	added bool
}

func TestWitnessInvariantsRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		var events []event
		for i := 0; i < 30; i++ {
			events = append(events, event{key: rng.Intn(4), value: rng.Intn(10), added: rng.Intn(2) == 0})
		}

		s := New[int, int]()
		sawAssert := map[int]bool{}
		sawRetract := map[int]bool{}
		for _, ev := range events {
			s.Witness(ev.key, ev.value, ev.added)
			if ev.added {
				sawAssert[ev.key] = true
			} else {
				sawRetract[ev.key] = true
			}

			for k := 0; k < 4; k++ {
				_, a := s.Asserted[k]
				_, r := s.Retracted[k]
				_, alt := s.Altered[k]
				require.False(t, a && r, "key %d asserted and retracted", k)
				require.False(t, alt && (a || r), "key %d altered and bucketed", k)
				require.Equal(t, sawAssert[k] && sawRetract[k], alt, "key %d altered state", k)
			}
		}

		// Replaying the same sequence yields the same maps.
		replay := New[int, int]()
		for _, ev := range events {
			replay.Witness(ev.key, ev.value, ev.added)
		}
		require.Equal(t, s, replay)
	}
}
