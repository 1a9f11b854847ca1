package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBeforeRegister(t *testing.T) {
	r := New[string](4)
	_, err := r.Lookup([]byte("some-ref"))
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestLookupIsDeterministic(t *testing.T) {
	r := New[string](4)
	for i := 0; i < 4; i++ {
		require.NoError(t, r.Register(i, "bucket"))
	}

	key := []byte("stable-key")
	slot := r.SlotFor(key)
	for i := 0; i < 10; i++ {
		assert.Equal(t, slot, r.SlotFor(key))
	}
}

func TestRegisterOutOfRange(t *testing.T) {
	r := New[string](2)
	assert.Error(t, r.Register(2, "x"))
	assert.Error(t, r.Register(-1, "x"))
}

func TestAllSkipsUnregisteredSlots(t *testing.T) {
	r := New[string](3)
	require.NoError(t, r.Register(0, "a"))
	require.NoError(t, r.Register(2, "c"))

	assert.Equal(t, []string{"a", "c"}, r.All())
	assert.Equal(t, 3, r.Size())
}

func TestDeregisterHidesBucket(t *testing.T) {
	r := New[string](1)
	require.NoError(t, r.Register(0, "a"))

	b, err := r.Lookup([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "a", b)

	r.Deregister(0)
	_, err = r.Lookup([]byte("k"))
	assert.ErrorIs(t, err, ErrNoBucket)
	assert.Empty(t, r.All())
}

func TestAt(t *testing.T) {
	r := New[string](2)
	require.NoError(t, r.Register(1, "b"))

	got, err := r.At(1)
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	_, err = r.At(0)
	assert.ErrorIs(t, err, ErrNoBucket)

	_, err = r.At(5)
	assert.Error(t, err)
}
