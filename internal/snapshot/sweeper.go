// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package snapshot

import (
	"context"
	"time"

	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/metrics"
)

// SweepStore is the slice of the database the sweeper needs.
type SweepStore interface {
	SweepExpiredSnapshots(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired snapshots that no read has purged
// lazily. It implements suture.Service and runs under the supervisor
// tree's data layer.
type Sweeper struct {
	store    SweepStore
	interval time.Duration
}

// NewSweeper builds a sweeper; a non-positive interval defaults to ten
// minutes.
func NewSweeper(store SweepStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{store: store, interval: interval}
}

// Serve implements suture.Service. Returns ctx.Err() on shutdown.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			swept, err := s.store.SweepExpiredSnapshots(ctx, time.Now().UTC())
			if err != nil {
				logging.Error().Err(err).Msg("Snapshot sweep failed")
				continue
			}
			if swept > 0 {
				metrics.SnapshotsSwept.Add(float64(swept))
				logging.Debug().Int64("swept", swept).Msg("Expired snapshots removed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Sweeper) String() string {
	return "snapshot-sweeper"
}
