package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketMessages = []byte("messages")
	bucketIndex    = []byte("index")
)

// ErrLocked reports an open attempt against a database file whose lock is
// held by another process. It is the only open error worth retrying.
var ErrLocked = errors.New("backend: database locked")

// ErrNotExist reports an open attempt against a missing database when
// creation was disabled.
var ErrNotExist = errors.New("backend: database does not exist")

// Keyspace selects one of the two ordered keyspaces of a bucket database.
type Keyspace int

const (
	// Messages holds payload records keyed by (ref, mountpoint).
	Messages Keyspace = iota
	// Index holds per-subscriber entries keyed by (subscriber, ref).
	Index
)

func (k Keyspace) bucketName() []byte {
	if k == Messages {
		return bucketMessages
	}
	return bucketIndex
}

// Options configures an Open call.
type Options struct {
	// CreateIfMissing creates the database file when absent.
	CreateIfMissing bool

	// WriteBufferSize is mapped to the initial mmap size of the
	// database. Buckets randomize it to desynchronize growth across
	// shards.
	WriteBufferSize int

	// LockTimeout bounds how long one open attempt waits on the file
	// lock before failing with ErrLocked. Zero means a 1s default.
	LockTimeout time.Duration

	// NoSync skips fsync on commit. Tests and bulk loads only.
	NoSync bool
}

// DB is one embedded ordered key-value database backing a store bucket.
type DB struct {
	db   *bolt.DB
	path string
}

// Op is one element of an atomic write batch.
type Op struct {
	Keyspace Keyspace
	Key      []byte
	Value    []byte
	Delete   bool
}

// Put builds a put op.
func Put(ks Keyspace, key, value []byte) Op {
	return Op{Keyspace: ks, Key: key, Value: value}
}

// Delete builds a delete op.
func Delete(ks Keyspace, key []byte) Op {
	return Op{Keyspace: ks, Key: key, Delete: true}
}

// Open opens the database at path. A held file lock surfaces as
// ErrLocked after Options.LockTimeout; any other failure is terminal for
// the caller.
func Open(path string, opts Options) (*DB, error) {
	if !opts.CreateIfMissing {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
	}

	timeout := opts.LockTimeout
	if timeout == 0 {
		timeout = time.Second
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:         timeout,
		InitialMmapSize: opts.WriteBufferSize,
	})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.NoSync = opts.NoSync

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMessages, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, path: path}, nil
}

// Get returns the value stored under key, with ok=false when absent. The
// returned slice is a copy and stays valid after the call.
func (d *DB) Get(ks Keyspace, key []byte) ([]byte, bool, error) {
	var value []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ks.bucketName()).Get(key)
		if data == nil {
			return nil
		}
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", ks.bucketName(), err)
	}
	return value, value != nil, nil
}

// Batch applies all ops in a single transaction. Either every op commits
// or none does.
func (d *DB) Batch(ops ...Op) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		for _, op := range ops {
			b := tx.Bucket(op.Keyspace.bucketName())
			if op.Delete {
				if err := b.Delete(op.Key); err != nil {
					return fmt.Errorf("failed to delete key: %w", err)
				}
				continue
			}
			if err := b.Put(op.Key, op.Value); err != nil {
				return fmt.Errorf("failed to put key: %w", err)
			}
		}
		return nil
	})
}

// ScanPrefix walks all entries whose key starts with prefix, in key
// order, calling fn for each. fn's error stops the scan and is returned.
// The slices passed to fn are only valid during the call.
func (d *DB) ScanPrefix(ks Keyspace, prefix []byte, fn func(key, value []byte) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ks.bucketName()).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanAll walks the entire keyspace in key order.
func (d *DB) ScanAll(ks Keyspace, fn func(key, value []byte) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ks.bucketName()).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of entries in a keyspace.
func (d *DB) Count(ks Keyspace) (int, error) {
	n := 0
	err := d.ScanAll(ks, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database and releases the file lock.
func (d *DB) Close() error {
	return d.db.Close()
}
