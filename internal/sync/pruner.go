// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package sync

import (
	"context"
	"fmt"

	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/logging"
)

// PruneStore is the slice of the database the pruner needs.
type PruneStore interface {
	PruneMirrorCourses(ctx context.Context, ownerID string, keep map[string]struct{}) ([]string, error)
}

// Pruner removes mirror courses whose platform counterpart is gone. It is
// deliberately separate from reconciliation: sync passes never delete, so
// a flaky remote listing can never wipe local mirrors. Pruning runs only
// when an owner explicitly asks for it.
type Pruner struct {
	store  PruneStore
	client classroom.ClientAPI
	retry  classroom.RetryPolicy
}

// NewPruner wires the pruner with the default retry policy.
func NewPruner(store PruneStore, client classroom.ClientAPI) *Pruner {
	return &Pruner{
		store:  store,
		client: client,
		retry:  classroom.DefaultRetryPolicy(),
	}
}

// Prune lists every course the platform still knows for the owner, in any
// state, and deletes local mirrors absent from that listing. Returns the
// external IDs removed.
//
// The remote listing must succeed completely; on any listing error the
// prune is refused rather than risking deletion from a partial view.
func (p *Pruner) Prune(ctx context.Context, ownerID string) ([]string, error) {
	var keep map[string]struct{}
	err := p.retry.Do(ctx, "courses.list_all", func() error {
		// nil states: archived and provisioned courses still protect
		// their mirrors from pruning.
		remote, listErr := p.client.ListCourses(ctx, ownerID, nil)
		if listErr != nil {
			return listErr
		}
		keep = make(map[string]struct{}, len(remote))
		for _, course := range remote {
			keep[course.ID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("refusing to prune without a complete remote listing: %w", err)
	}

	removed, err := p.store.PruneMirrorCourses(ctx, ownerID, keep)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		logging.Ctx(ctx).Info().
			Int("removed", len(removed)).
			Strs("external_ids", removed).
			Msg("Pruned orphaned mirror courses")
	}
	return removed, nil
}
