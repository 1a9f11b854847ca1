package refcount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowmq/burrow/pkg/types"
)

func TestIncrFirstInsertReturnsOne(t *testing.T) {
	tab := NewTable()
	assert.Equal(t, 1, tab.Incr(types.MsgRef("r1")))
	assert.Equal(t, 2, tab.Incr(types.MsgRef("r1")))
	assert.Equal(t, 1, tab.Incr(types.MsgRef("r2")))
	assert.Equal(t, 2, tab.Len())
}

func TestDecrRemovesRowAtZero(t *testing.T) {
	tab := NewTable()
	tab.Incr(types.MsgRef("r1"))
	tab.Incr(types.MsgRef("r1"))

	n, err := tab.Decr(types.MsgRef("r1"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = tab.Decr(types.MsgRef("r1"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, tab.Len())

	// Row is gone: another decrement reports not found
	_, err = tab.Decr(types.MsgRef("r1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecrAbsentRef(t *testing.T) {
	tab := NewTable()
	_, err := tab.Decr(types.MsgRef("never-written"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAbsentReturnsZero(t *testing.T) {
	tab := NewTable()
	assert.Equal(t, 0, tab.Get(types.MsgRef("nope")))

	tab.Incr(types.MsgRef("r"))
	assert.Equal(t, 1, tab.Get(types.MsgRef("r")))
}
