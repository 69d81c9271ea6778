// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package snapshot caches aggregate submission data per coursework item.
// Snapshots are de-identified on construction: platform user IDs never
// reach the store, only opaque per-snapshot aliases. A snapshot lives for
// a fixed TTL; reads past expiry rebuild from the platform.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/metrics"
	"github.com/coursebridge/coursebridge/internal/models"
)

// Store is the slice of the database the snapshot service needs.
type Store interface {
	GetSnapshot(ctx context.Context, ownerID, courseExternalID, assignmentExternalID string) (*models.SubmissionSnapshot, error)
	PutSnapshot(ctx context.Context, s *models.SubmissionSnapshot) error
}

// Service serves submission snapshots, rebuilding them from the platform
// on cache miss.
type Service struct {
	store  Store
	client classroom.ClientAPI
	ttl    time.Duration
	now    func() time.Time
}

// NewService wires the snapshot service. A non-positive ttl falls back to
// the model default.
func NewService(store Store, client classroom.ClientAPI, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = models.SnapshotTTL
	}
	return &Service{
		store:  store,
		client: client,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the snapshot for one coursework item, serving from cache
// while a previous build is still live.
func (s *Service) Get(ctx context.Context, ownerID, courseExternalID, assignmentExternalID string) (*models.SubmissionSnapshot, error) {
	cached, err := s.store.GetSnapshot(ctx, ownerID, courseExternalID, assignmentExternalID)
	if err == nil {
		metrics.SnapshotCacheHits.Inc()
		return cached, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("snapshot lookup failed: %w", err)
	}
	metrics.SnapshotCacheMisses.Inc()

	return s.rebuild(ctx, ownerID, courseExternalID, assignmentExternalID)
}

// Refresh rebuilds the snapshot unconditionally, replacing any cached one.
func (s *Service) Refresh(ctx context.Context, ownerID, courseExternalID, assignmentExternalID string) (*models.SubmissionSnapshot, error) {
	return s.rebuild(ctx, ownerID, courseExternalID, assignmentExternalID)
}

// rebuild pulls the live submission list and stores a fresh snapshot.
func (s *Service) rebuild(ctx context.Context, ownerID, courseExternalID, assignmentExternalID string) (*models.SubmissionSnapshot, error) {
	submissions, err := s.client.ListSubmissions(ctx, ownerID, courseExternalID, assignmentExternalID)
	if err != nil {
		return nil, fmt.Errorf("submission listing failed: %w", err)
	}

	now := s.now()
	snap := &models.SubmissionSnapshot{
		OwnerID:              ownerID,
		CourseExternalID:     courseExternalID,
		AssignmentExternalID: assignmentExternalID,
		AssignedCount:        len(submissions),
		CreatedAt:            now,
		ExpiresAt:            now.Add(s.ttl),
	}

	// Aliases are positional within this snapshot and carry nothing
	// derived from the platform identity.
	for i, sub := range submissions {
		switch sub.State {
		case models.SubmissionStateTurnedIn:
			snap.TurnedInCount++
		case models.SubmissionStateReturned:
			snap.ReturnedCount++
		}
		snap.Roster = append(snap.Roster, models.RosterEntry{
			Alias: fmt.Sprintf("student-%03d", i+1),
			State: sub.State,
		})
	}

	if err := s.store.PutSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("snapshot store failed: %w", err)
	}
	return snap, nil
}
