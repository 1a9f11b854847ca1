package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/burrowmq/burrow/pkg/metrics"
	"github.com/burrowmq/burrow/pkg/staging"
	"github.com/burrowmq/burrow/pkg/types"
)

// Find returns the refs of every message persisted for sub, in ascending
// write-timestamp order.
//
// In FindQueueInit mode the entries staged during startup recovery are
// harvested first; when present they are the complete answer and no disk
// scan runs. When they have already been consumed (a second queue_init,
// or a fresh session with nothing recovered), Find falls through to the
// full cross-bucket scan, same as FindOther.
func (s *Store) Find(sub types.SubscriberID, mode types.FindMode) ([]types.MsgRef, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FindDuration)
	metrics.FindsTotal.WithLabelValues(string(mode)).Inc()

	tab := s.staging.TableFor(sub)
	if mode == types.FindQueueInit {
		if entries := tab.Harvest(staging.ScanInit, sub); len(entries) > 0 {
			return collectRefs(entries), nil
		}
	}

	// Fan out to every registered bucket under a fresh scan id. Buckets
	// that are gone are skipped; a scan failure on a live bucket fails
	// the whole find, since a partial queue would be served as complete.
	scanID := uuid.NewString()
	var g errgroup.Group
	for _, b := range s.registry.All() {
		g.Go(func() error {
			err := b.FindForSubscriber(scanID, sub)
			if errors.Is(err, ErrBucketClosed) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		tab.Harvest(scanID, sub)
		return nil, fmt.Errorf("find for %s/%s: %w", sub.Mountpoint, sub.ClientID, err)
	}

	return collectRefs(tab.Harvest(scanID, sub)), nil
}

func collectRefs(entries []staging.Entry) []types.MsgRef {
	refs := make([]types.MsgRef, len(entries))
	for i, e := range entries {
		refs[i] = e.Ref
	}
	return refs
}
