package core

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindThroughWrapping(t *testing.T) {
	err := Errorf(ErrTempIDCollision, "causetid %d not allocated", 99).WithCausetid(99)
	wrapped := fmt.Errorf("transact: %w", err)

	assert.True(t, IsKind(wrapped, ErrTempIDCollision))
	assert.False(t, IsKind(wrapped, ErrStore))
	assert.Equal(t, ErrTempIDCollision, KindOf(wrapped))

	var ce *Error
	require.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, Causetid(99), ce.Causetid)
	assert.Equal(t, "TEMPID_COLLISION: causetid 99 not allocated", ce.Error())
}

func TestStoreErrorWraps(t *testing.T) {
	err := StoreError("insert datoms", sql.ErrNoRows)
	assert.True(t, IsKind(err, ErrStore))
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Contains(t, err.Error(), "insert datoms")

	assert.NoError(t, StoreError("noop", nil))

	// Domain errors pass through untouched.
	domain := NewError(ErrTimelinesMixed, "mixed")
	assert.Same(t, domain, StoreError("op", domain))
}

func TestKindOfNonDomain(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, ErrStore))
}

func TestCompareDatoms(t *testing.T) {
	a := Datom{E: 1, A: 2, V: Long(1), Tx: 10, Added: true}
	b := Datom{E: 1, A: 2, V: Long(2), Tx: 10, Added: true}
	assert.Equal(t, -1, CompareDatoms(a, b))
	assert.Equal(t, 0, CompareDatoms(a, a))
	assert.Equal(t, "[1 2 1 10 true]", a.String())
}
