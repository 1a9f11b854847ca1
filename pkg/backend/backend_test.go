package backend

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), Options{
		CreateIfMissing: true,
		NoSync:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetAbsentKey(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.Get(Messages, []byte("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchPutAndGet(t *testing.T) {
	db := openTestDB(t)

	err := db.Batch(
		Put(Messages, []byte("m1"), []byte("payload")),
		Put(Index, []byte("i1"), []byte("entry")),
	)
	require.NoError(t, err)

	v, ok, err := db.Get(Messages, []byte("m1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), v)

	v, ok, err = db.Get(Index, []byte("i1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("entry"), v)
}

func TestKeyspacesAreSeparate(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Batch(Put(Messages, []byte("k"), []byte("msg"))))

	_, ok, err := db.Get(Index, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchDelete(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Batch(Put(Index, []byte("k"), []byte("v"))))
	require.NoError(t, db.Batch(Delete(Index, []byte("k"))))

	_, ok, err := db.Get(Index, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error
	assert.NoError(t, db.Batch(Delete(Index, []byte("k"))))
}

func TestScanPrefixOrderAndBounds(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Batch(
		Put(Index, []byte("a/1"), []byte("v1")),
		Put(Index, []byte("a/3"), []byte("v3")),
		Put(Index, []byte("a/2"), []byte("v2")),
		Put(Index, []byte("b/1"), []byte("other")),
	))

	var keys []string
	err := db.ScanPrefix(Index, []byte("a/"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, keys)
}

func TestScanAllAndCount(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Batch(
		Put(Messages, []byte("m1"), []byte("v")),
		Put(Messages, []byte("m2"), []byte("v")),
	))

	n, err := db.Count(Messages)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.Count(Index)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScanErrorStopsIteration(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Batch(
		Put(Index, []byte("k1"), []byte("v")),
		Put(Index, []byte("k2"), []byte("v")),
	))

	calls := 0
	err := db.ScanAll(Index, func(k, v []byte) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestOpenLockedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.db")

	holder, err := Open(path, Options{CreateIfMissing: true})
	require.NoError(t, err)

	_, err = Open(path, Options{CreateIfMissing: true, LockTimeout: 100 * time.Millisecond})
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, holder.Close())

	// Lock released: open succeeds
	db, err := Open(path, Options{CreateIfMissing: true, LockTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestOpenMissingWithoutCreate(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"), Options{})
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	db, err := Open(path, Options{CreateIfMissing: true})
	require.NoError(t, err)
	require.NoError(t, db.Batch(Put(Messages, []byte("k"), []byte("v"))))
	require.NoError(t, db.Close())

	db, err = Open(path, Options{CreateIfMissing: true})
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.Get(Messages, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
