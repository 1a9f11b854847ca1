package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowmq/burrow/pkg/backend"
	"github.com/burrowmq/burrow/pkg/codec"
	"github.com/burrowmq/burrow/pkg/staging"
	"github.com/burrowmq/burrow/pkg/types"
)

func TestOpenBucketRetriesWhileLocked(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenRetries = 50
	cfg.OpenRetryDelay = 20

	// Another process still holds the database lock
	dir := filepath.Join(cfg.StoreDir, "0")
	require.NoError(t, os.MkdirAll(dir, 0700))
	holder, err := backend.Open(filepath.Join(dir, "store.db"), backend.Options{CreateIfMissing: true})
	require.NoError(t, err)

	type result struct {
		bucket *Bucket
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		b, err := OpenBucket(0, cfg, staging.NewSet(1))
		resCh <- result{bucket: b, err: err}
	}()

	// Let the bucket hit the lock a few times, then release it
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, holder.Close())

	select {
	case res := <-resCh:
		require.NoError(t, res.err)
		assert.Equal(t, types.BucketStateInitialized, res.bucket.State())
		assert.NoError(t, res.bucket.Close())
	case <-time.After(30 * time.Second):
		t.Fatal("bucket open did not complete after lock release")
	}
}

func TestOpenBucketGivesUpAfterRetries(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenRetries = 2
	cfg.OpenRetryDelay = 10

	dir := filepath.Join(cfg.StoreDir, "0")
	require.NoError(t, os.MkdirAll(dir, 0700))
	holder, err := backend.Open(filepath.Join(dir, "store.db"), backend.Options{CreateIfMissing: true})
	require.NoError(t, err)
	defer holder.Close()

	_, err = OpenBucket(0, cfg, staging.NewSet(1))
	assert.ErrorIs(t, err, backend.ErrLocked)
}

func TestBucketClosedRequests(t *testing.T) {
	cfg := testConfig(t)
	b, err := OpenBucket(0, cfg, staging.NewSet(1))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	sub := types.SubscriberID{Mountpoint: "m", ClientID: "c"}
	assert.ErrorIs(t, b.Write(sub, testMsg("r", "m", "P")), ErrBucketClosed)
	assert.ErrorIs(t, b.FindForSubscriber("scan", sub), ErrBucketClosed)
	assert.Equal(t, 0, b.Refcount(types.MsgRef("r")))
}

func TestBucketRecoveryLeavesOrphanIndexUsable(t *testing.T) {
	cfg := testConfig(t)
	stage := staging.NewSet(1)
	sub := types.SubscriberID{Mountpoint: "m", ClientID: "c"}
	ref := types.MsgRef("orphaned")

	b, err := OpenBucket(0, cfg, stage)
	require.NoError(t, err)
	require.NoError(t, b.Write(sub, testMsg(string(ref), "m", "P")))

	// Simulate a pre-atomic-batch crash artifact: index without payload
	require.NoError(t, b.Ref().Batch(backend.Delete(backend.Messages, codec.MessageKey(ref, "m"))))
	require.NoError(t, b.Close())

	b, err = OpenBucket(0, cfg, stage)
	require.NoError(t, err)
	defer b.Close()

	// The orphan entry was recovered and counted
	assert.Equal(t, 1, b.Refcount(ref))

	// Read surfaces the missing payload, delete still cleans up
	_, err = b.Read(sub, ref)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, b.Delete(sub, ref))
	assert.Equal(t, 0, b.Refcount(ref))
}
