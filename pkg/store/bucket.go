package store

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/burrowmq/burrow/pkg/backend"
	"github.com/burrowmq/burrow/pkg/codec"
	"github.com/burrowmq/burrow/pkg/config"
	"github.com/burrowmq/burrow/pkg/log"
	"github.com/burrowmq/burrow/pkg/metrics"
	"github.com/burrowmq/burrow/pkg/refcount"
	"github.com/burrowmq/burrow/pkg/staging"
	"github.com/burrowmq/burrow/pkg/types"
)

// Bucket owns one shard of the store: one backend database and the
// refcount table tracking its payloads. All requests are serialized
// through a single goroutine, which keeps the refcount table consistent
// with backend writes without any locking.
type Bucket struct {
	instanceID int
	db         *backend.DB
	refs       *refcount.Table
	staging    *staging.Set
	logger     zerolog.Logger

	reqCh  chan func()
	stopCh chan struct{}
	state  atomic.Value
}

// OpenBucket opens the bucket's database under
// <store_dir>/<instance_id>/, rebuilds its in-memory state from the
// on-disk index, and starts serving requests. The caller registers the
// bucket only after OpenBucket returns, so no request can observe a
// partially recovered shard.
func OpenBucket(instanceID int, cfg *config.Config, stage *staging.Set) (*Bucket, error) {
	b := &Bucket{
		instanceID: instanceID,
		refs:       refcount.NewTable(),
		staging:    stage,
		logger:     log.WithBucket(instanceID),
		reqCh:      make(chan func()),
		stopCh:     make(chan struct{}),
	}
	b.state.Store(types.BucketStateOpening)

	dir := filepath.Join(cfg.StoreDir, strconv.Itoa(instanceID))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	db, err := b.open(filepath.Join(dir, "store.db"), cfg)
	if err != nil {
		return nil, err
	}
	b.db = db

	b.state.Store(types.BucketStateRecovering)
	if err := b.setupIndex(); err != nil {
		db.Close()
		return nil, err
	}
	b.state.Store(types.BucketStateInitialized)

	go b.run()
	return b, nil
}

// open opens the backend, retrying while the file lock is held by
// another process. Any non-lock error is terminal.
func (b *Bucket) open(path string, cfg *config.Config) (*backend.DB, error) {
	// Randomize the write buffer inside the configured bounds so bucket
	// databases do not grow and flush in lockstep.
	size := cfg.WriteBufferSizeMin
	if span := cfg.WriteBufferSizeMax - cfg.WriteBufferSizeMin; span > 0 {
		size += rand.IntN(span + 1)
	}
	opts := backend.Options{
		CreateIfMissing: true,
		WriteBufferSize: size,
		NoSync:          cfg.NoSync,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.OpenRetries; attempt++ {
		db, err := backend.Open(path, opts)
		if err == nil {
			return db, nil
		}
		if !errors.Is(err, backend.ErrLocked) {
			return nil, err
		}
		lastErr = err
		if attempt == cfg.OpenRetries {
			break
		}
		metrics.OpenRetriesTotal.Inc()
		b.logger.Warn().
			Str("path", path).
			Int("attempt", attempt).
			Msg("database locked, retrying")
		time.Sleep(cfg.RetryDelay())
	}
	return nil, lastErr
}

// setupIndex walks the entire index keyspace once, repopulating the
// refcount table and staging every entry under the reserved init scan id
// for the first queue drain after restart.
func (b *Bucket) setupIndex() error {
	timer := metrics.NewTimer()
	count := 0
	err := b.db.ScanAll(backend.Index, func(k, v []byte) error {
		sub, ref, err := codec.SplitIndexKey(k)
		if err != nil {
			return err
		}
		val, err := codec.DecodeIndexValue(v)
		if err != nil {
			return err
		}
		b.staging.TableFor(sub).Insert(staging.Entry{
			ScanID:     staging.ScanInit,
			Subscriber: sub,
			Timestamp:  val.Timestamp,
			Ref:        ref,
		})
		if b.refs.Incr(ref) == 1 {
			metrics.PayloadsStored.Inc()
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild index for bucket %d: %w", b.instanceID, err)
	}
	timer.ObserveDuration(metrics.RecoveryDuration)
	metrics.RecoveredEntriesTotal.Add(float64(count))
	if count > 0 {
		b.logger.Info().Int("entries", count).Msg("recovered message index")
	}
	return nil
}

// run serves requests one at a time until the bucket is closed.
func (b *Bucket) run() {
	for {
		select {
		case fn := <-b.reqCh:
			fn()
		case <-b.stopCh:
			return
		}
	}
}

// do runs fn on the bucket goroutine and waits for it to finish.
func (b *Bucket) do(fn func()) error {
	done := make(chan struct{})
	select {
	case b.reqCh <- func() { fn(); close(done) }:
	case <-b.stopCh:
		return ErrBucketClosed
	}
	<-done
	return nil
}

// InstanceID returns the bucket's shard number.
func (b *Bucket) InstanceID() int {
	return b.instanceID
}

// State returns the bucket's lifecycle phase.
func (b *Bucket) State() types.BucketState {
	return b.state.Load().(types.BucketState)
}

// Ref returns the underlying backend handle. Tests and diagnostics only.
func (b *Bucket) Ref() *backend.DB {
	return b.db
}

// Write persists one message for one subscriber.
func (b *Bucket) Write(sub types.SubscriberID, msg *types.Message) error {
	var err error
	if doErr := b.do(func() { err = b.write(sub, msg) }); doErr != nil {
		return doErr
	}
	return err
}

func (b *Bucket) write(sub types.SubscriberID, msg *types.Message) error {
	if msg.Mountpoint != sub.Mountpoint {
		return fmt.Errorf("%w: %q vs %q", ErrMountpointMismatch, msg.Mountpoint, sub.Mountpoint)
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.WriteDuration)

	idxVal := codec.EncodeIndexValue(codec.IndexValue{
		Timestamp: types.Now(),
		Dup:       msg.Dup,
		QoS:       msg.QoS,
	})
	ops := []backend.Op{
		backend.Put(backend.Index, codec.IndexKey(sub, msg.Ref), idxVal),
	}

	// First reference: the payload record goes to disk in the same
	// transaction as the index entry.
	total := b.refs.Incr(msg.Ref)
	if total == 1 {
		msgVal := codec.EncodeMessageValue(codec.MessageValue{
			RoutingKey: msg.RoutingKey,
			Payload:    msg.Payload,
		})
		ops = append(ops, backend.Put(backend.Messages, codec.MessageKey(msg.Ref, msg.Mountpoint), msgVal))
	}

	if err := b.db.Batch(ops...); err != nil {
		b.refs.Decr(msg.Ref)
		metrics.StoreErrorsTotal.WithLabelValues("write").Inc()
		return fmt.Errorf("failed to persist message: %w", err)
	}
	if total == 1 {
		metrics.PayloadsStored.Inc()
	}
	metrics.WritesTotal.Inc()
	return nil
}

// Read reconstructs one message from the payload record and the
// subscriber's index entry.
func (b *Bucket) Read(sub types.SubscriberID, ref types.MsgRef) (*types.Message, error) {
	var (
		msg *types.Message
		err error
	)
	if doErr := b.do(func() { msg, err = b.read(sub, ref) }); doErr != nil {
		return nil, doErr
	}
	return msg, err
}

func (b *Bucket) read(sub types.SubscriberID, ref types.MsgRef) (*types.Message, error) {
	msgRaw, ok, err := b.db.Get(backend.Messages, codec.MessageKey(ref, sub.Mountpoint))
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	if !ok {
		metrics.ReadsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	idxRaw, ok, err := b.db.Get(backend.Index, codec.IndexKey(sub, ref))
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read index entry: %w", err)
	}
	if !ok {
		metrics.ReadsTotal.WithLabelValues("idx_val_not_found").Inc()
		return nil, ErrIndexValNotFound
	}

	msgVal, err := codec.DecodeMessageValue(msgRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message value: %w", err)
	}
	idxVal, err := codec.DecodeIndexValue(idxRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode index value: %w", err)
	}

	metrics.ReadsTotal.WithLabelValues("ok").Inc()
	return &types.Message{
		Ref:        ref,
		Mountpoint: sub.Mountpoint,
		RoutingKey: msgVal.RoutingKey,
		Payload:    msgVal.Payload,
		Dup:        idxVal.Dup,
		QoS:        idxVal.QoS,
		Persisted:  true,
	}, nil
}

// Delete drops the subscriber's index entry and, when the last reference
// goes away, the payload record with it. Deleting an unknown ref is not
// an error.
func (b *Bucket) Delete(sub types.SubscriberID, ref types.MsgRef) error {
	var err error
	if doErr := b.do(func() { err = b.delete(sub, ref) }); doErr != nil {
		return doErr
	}
	return err
}

func (b *Bucket) delete(sub types.SubscriberID, ref types.MsgRef) error {
	total, err := b.refs.Decr(ref)
	if errors.Is(err, refcount.ErrNotFound) {
		b.logger.Warn().
			Hex("msg_ref", ref).
			Str("client_id", sub.ClientID).
			Msg("delete for message ref with no live reference")
		metrics.RefcountUnderflowsTotal.Inc()
		return nil
	}

	ops := []backend.Op{
		backend.Delete(backend.Index, codec.IndexKey(sub, ref)),
	}
	if total == 0 {
		ops = append(ops, backend.Delete(backend.Messages, codec.MessageKey(ref, sub.Mountpoint)))
	}

	if err := b.db.Batch(ops...); err != nil {
		b.refs.Incr(ref)
		metrics.StoreErrorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if total == 0 {
		metrics.PayloadsStored.Dec()
	}
	metrics.DeletesTotal.Inc()
	return nil
}

// FindForSubscriber scans the bucket's index range for sub and deposits
// every entry into the subscriber's staging table under scanID. An empty
// range is not an error.
func (b *Bucket) FindForSubscriber(scanID string, sub types.SubscriberID) error {
	var err error
	if doErr := b.do(func() { err = b.findForSubscriber(scanID, sub) }); doErr != nil {
		return doErr
	}
	return err
}

func (b *Bucket) findForSubscriber(scanID string, sub types.SubscriberID) error {
	tab := b.staging.TableFor(sub)
	err := b.db.ScanPrefix(backend.Index, codec.SubscriberPrefix(sub), func(k, v []byte) error {
		_, ref, err := codec.SplitIndexKey(k)
		if err != nil {
			return err
		}
		val, err := codec.DecodeIndexValue(v)
		if err != nil {
			return err
		}
		tab.Insert(staging.Entry{
			ScanID:     scanID,
			Subscriber: sub,
			Timestamp:  val.Timestamp,
			Ref:        ref,
		})
		return nil
	})
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("find").Inc()
		return fmt.Errorf("index scan failed on bucket %d: %w", b.instanceID, err)
	}
	return nil
}

// Refcount returns the number of live index entries referencing ref on
// this bucket, 0 if none.
func (b *Bucket) Refcount(ref types.MsgRef) int {
	n := 0
	if doErr := b.do(func() { n = b.refs.Get(ref) }); doErr != nil {
		return 0
	}
	return n
}

// Close stops the bucket and closes its database.
func (b *Bucket) Close() error {
	var err error
	if doErr := b.do(func() { err = b.db.Close() }); doErr != nil {
		return doErr
	}
	close(b.stopCh)
	return err
}
