// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
)

var (
	ErrNoProfile         = errors.New("no profile for identity")
	ErrNoSuchMembership  = errors.New("identity holds no membership for tenant")
	ErrContextNotAllowed = errors.New("context not allowed for active membership")
)

var _ ServiceInterface = (*Service)(nil)

// Service assembles access snapshots for authenticated identities.
//
// Snapshots are cached per identity with a short TTL. Every session
// mutation bumps the identity's generation; a refresh that completes
// after a newer mutation carries a stale generation and is discarded
// instead of cached, so rapid tenant switches can never reinstate a
// superseded authorization state. Concurrent refreshes for the same
// identity are collapsed through singleflight.
type Service struct {
	storage StorageInterface

	cache *lru.LRU[string, *access.Snapshot]
	group singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	s StorageInterface,
	cacheSize int,
	cacheTTL time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:     s,
		cache:       lru.NewLRU[string, *access.Snapshot](cacheSize, nil, cacheTTL),
		generations: make(map[string]uint64),
		tracer:      tracer,
		monitor:     monitor,
		logger:      logger,
	}
}

func (s *Service) generation(identityID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[identityID]
}

func (s *Service) bumpGeneration(identityID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[identityID]++
	return s.generations[identityID]
}

// Snapshot returns the cached snapshot for the identity, refreshing from
// storage when absent or expired.
func (s *Service) Snapshot(ctx context.Context, identityID string) (*access.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.Snapshot")
	defer span.End()

	if snap, ok := s.cache.Get(identityID); ok && snap.Generation == s.generation(identityID) {
		return snap, nil
	}

	return s.refresh(ctx, identityID)
}

func (s *Service) refresh(ctx context.Context, identityID string) (*access.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.refresh")
	defer span.End()

	v, err, _ := s.group.Do(identityID, func() (interface{}, error) {
		gen := s.generation(identityID)

		snap, err := s.load(ctx, identityID, gen)
		if err != nil {
			return nil, err
		}

		// A mutation may have landed while the load was in flight. The
		// result is stale authorization state: hand it back to nobody's
		// cache and let the next call re-derive.
		if s.generation(identityID) == gen {
			s.cache.Add(identityID, snap)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	snap := v.(*access.Snapshot)
	if snap.Generation != s.generation(identityID) {
		return s.load(ctx, identityID, s.generation(identityID))
	}
	return snap, nil
}

// load builds a snapshot directly from storage.
func (s *Service) load(ctx context.Context, identityID string, generation uint64) (*access.Snapshot, error) {
	profile, err := s.storage.GetProfileByIdentityID(ctx, identityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	memberships, err := s.storage.ListMembershipsByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	snap := &access.Snapshot{
		Profile:     profile,
		Memberships: memberships,
		Generation:  generation,
	}

	// The active-tenant pointer only counts when it names one of the
	// user's current memberships; a dangling pointer reads as unset.
	if profile.ActiveTenantID != "" {
		for _, m := range memberships {
			if m.TenantID == profile.ActiveTenantID {
				snap.ActiveMembership = m
				break
			}
		}
	}

	if snap.ActiveMembership != nil && profile.ActiveContext != "" &&
		snap.ActiveMembership.AllowsContext(profile.ActiveContext) {
		snap.ActiveContext = profile.ActiveContext
	}

	return snap, nil
}

// SetActiveTenant switches the active membership pointer after verifying
// the identity actually holds a membership for the tenant.
func (s *Service) SetActiveTenant(ctx context.Context, identityID, tenantID string) (*access.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.SetActiveTenant")
	defer span.End()

	snap, err := s.Snapshot(ctx, identityID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, m := range snap.Memberships {
		if m.TenantID == tenantID {
			found = true
			break
		}
	}
	if !found {
		s.logger.Security().AuthzFailure(identityID, "session_set_active_tenant")
		return nil, ErrNoSuchMembership
	}

	if err := s.storage.SetActiveTenant(ctx, snap.Profile.ID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to persist active tenant: %w", err)
	}

	s.Invalidate(identityID)
	return s.refresh(ctx, identityID)
}

// SetActiveContext switches the operating context within the active
// membership.
func (s *Service) SetActiveContext(ctx context.Context, identityID string, c types.Context) (*access.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.SetActiveContext")
	defer span.End()

	snap, err := s.Snapshot(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if snap.ActiveMembership == nil || !snap.ActiveMembership.AllowsContext(c) {
		s.logger.Security().AuthzFailure(identityID, "session_set_active_context")
		return nil, ErrContextNotAllowed
	}

	if err := s.storage.SetActiveContext(ctx, snap.Profile.ID, c); err != nil {
		return nil, fmt.Errorf("failed to persist active context: %w", err)
	}

	s.Invalidate(identityID)
	return s.refresh(ctx, identityID)
}

// SignOut clears the persisted selection and drops the cached snapshot.
func (s *Service) SignOut(ctx context.Context, identityID string) error {
	ctx, span := s.tracer.Start(ctx, "session.Service.SignOut")
	defer span.End()

	profile, err := s.storage.GetProfileByIdentityID(ctx, identityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Nothing to clear; dropping the cache is enough.
			s.Invalidate(identityID)
			return nil
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if err := s.storage.ClearActiveSelection(ctx, profile.ID); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}

	s.Invalidate(identityID)
	return nil
}

// Invalidate drops the identity's cached snapshot and bumps its
// generation so any in-flight refresh becomes stale.
func (s *Service) Invalidate(identityID string) {
	s.bumpGeneration(identityID)
	s.cache.Remove(identityID)
}
