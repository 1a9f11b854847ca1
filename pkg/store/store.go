package store

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/burrowmq/burrow/pkg/config"
	"github.com/burrowmq/burrow/pkg/log"
	"github.com/burrowmq/burrow/pkg/registry"
	"github.com/burrowmq/burrow/pkg/staging"
	"github.com/burrowmq/burrow/pkg/types"
)

// Store is the persistent offline message store. It shards messages
// across N buckets by ref hash and exposes the write/read/delete/find
// surface the broker core persists in-flight publications through.
type Store struct {
	cfg      *config.Config
	registry *registry.Registry[*Bucket]
	staging  *staging.Set
	logger   zerolog.Logger
}

// New opens every bucket concurrently, waits for all of them to finish
// recovery, and registers them. When New returns, the store is fully
// initialized; if any bucket fails to open, every bucket already opened
// is closed again and the error surfaces.
func New(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		cfg:      cfg,
		registry: registry.New[*Bucket](cfg.Buckets),
		staging:  staging.NewSet(cfg.StagingTables),
		logger:   log.WithComponent("store"),
	}

	buckets := make([]*Bucket, cfg.Buckets)
	var g errgroup.Group
	for i := 0; i < cfg.Buckets; i++ {
		g.Go(func() error {
			b, err := OpenBucket(i, cfg, s.staging)
			if err != nil {
				return fmt.Errorf("bucket %d: %w", i, err)
			}
			buckets[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, b := range buckets {
			if b != nil {
				b.Close()
			}
		}
		return nil, err
	}

	for i, b := range buckets {
		if err := s.registry.Register(i, b); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Int("buckets", cfg.Buckets).
		Int("staging_tables", cfg.StagingTables).
		Str("store_dir", cfg.StoreDir).
		Msg("message store initialized")
	return s, nil
}

// Write persists msg for sub on the bucket owning msg.Ref.
func (s *Store) Write(sub types.SubscriberID, msg *types.Message) error {
	b, err := s.registry.Lookup(msg.Ref)
	if err != nil {
		return err
	}
	return b.Write(sub, msg)
}

// Read reconstructs the message stored under ref for sub.
func (s *Store) Read(sub types.SubscriberID, ref types.MsgRef) (*types.Message, error) {
	b, err := s.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return b.Read(sub, ref)
}

// Delete drops sub's reference to ref. Idempotent.
func (s *Store) Delete(sub types.SubscriberID, ref types.MsgRef) error {
	b, err := s.registry.Lookup(ref)
	if err != nil {
		return err
	}
	return b.Delete(sub, ref)
}

// Refcount returns the number of live index entries referencing ref,
// 0 if none.
func (s *Store) Refcount(ref types.MsgRef) int {
	b, err := s.registry.Lookup(ref)
	if err != nil {
		return 0
	}
	return b.Refcount(ref)
}

// State reports the lifecycle phase of one bucket.
func (s *Store) State(instanceID int) (types.BucketState, error) {
	b, err := s.registry.At(instanceID)
	if err != nil {
		return "", err
	}
	return b.State(), nil
}

// Ready reports whether every bucket is registered and initialized.
func (s *Store) Ready() bool {
	buckets := s.registry.All()
	if len(buckets) != s.registry.Size() {
		return false
	}
	for _, b := range buckets {
		if b.State() != types.BucketStateInitialized {
			return false
		}
	}
	return true
}

// Close shuts down every bucket and releases their databases.
func (s *Store) Close() error {
	var firstErr error
	for _, b := range s.registry.All() {
		s.registry.Deregister(b.InstanceID())
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
