// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
)

func newTestService(store StorageInterface) *Service {
	return NewService(store, 64, time.Minute, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
}

func testProfile() *types.Profile {
	return &types.Profile{
		ID:           "profile-1",
		IdentityID:   "identity-1",
		Email:        "reader@example.com",
		PlatformRole: types.PlatformUser,
		Status:       types.StatusActive,
	}
}

func testMemberships() []*types.Membership {
	return []*types.Membership{
		{
			TenantID: "tenant-1", ProfileID: "profile-1", OrgRole: types.TenantAdmin,
			Status: types.StatusActive, AllowedContexts: []types.Context{types.ContextPublishing},
		},
		{
			TenantID: "tenant-2", ProfileID: "profile-1", OrgRole: types.Viewer,
			Status: types.StatusActive, AllowedContexts: []types.Context{types.ContextLicensing},
		},
	}
}

func TestService_Snapshot_CachesUntilInvalidated(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(testProfile(), nil).Times(1)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil).Times(1)

	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Snapshot(ctx, "identity-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := svc.Snapshot(ctx, "identity-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first != second {
		t.Error("second call did not come from the cache")
	}
	if len(first.Memberships) != 2 {
		t.Errorf("expected 2 memberships, got %d", len(first.Memberships))
	}
}

func TestService_Snapshot_NoProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(nil, storage.ErrNotFound)

	svc := newTestService(store)

	_, err := svc.Snapshot(context.Background(), "identity-1")
	if !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestService_Snapshot_ActiveSelection(t *testing.T) {
	testCases := []struct {
		name             string
		activeTenantID   string
		activeContext    types.Context
		expectMembership string
		expectContext    types.Context
	}{
		{
			name: "no selection",
		},
		{
			name:             "valid tenant and context",
			activeTenantID:   "tenant-1",
			activeContext:    types.ContextPublishing,
			expectMembership: "tenant-1",
			expectContext:    types.ContextPublishing,
		},
		{
			name:           "dangling tenant pointer reads as unset",
			activeTenantID: "tenant-gone",
			activeContext:  types.ContextPublishing,
		},
		{
			name:             "context outside allowed set is dropped",
			activeTenantID:   "tenant-1",
			activeContext:    types.ContextLicensing,
			expectMembership: "tenant-1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := NewMockStorageInterface(ctrl)

			profile := testProfile()
			profile.ActiveTenantID = tc.activeTenantID
			profile.ActiveContext = tc.activeContext

			store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(profile, nil)
			store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil)

			snap, err := newTestService(store).Snapshot(context.Background(), "identity-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if tc.expectMembership == "" {
				if snap.ActiveMembership != nil {
					t.Errorf("expected no active membership, got %q", snap.ActiveMembership.TenantID)
				}
			} else if snap.ActiveMembership == nil || snap.ActiveMembership.TenantID != tc.expectMembership {
				t.Errorf("active membership = %v, expected %q", snap.ActiveMembership, tc.expectMembership)
			}
			if snap.ActiveContext != tc.expectContext {
				t.Errorf("active context = %q, expected %q", snap.ActiveContext, tc.expectContext)
			}
		})
	}
}

func TestService_SetActiveTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	profile := testProfile()
	switched := testProfile()
	switched.ActiveTenantID = "tenant-2"

	gomock.InOrder(
		store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(profile, nil),
		store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil),
		store.EXPECT().SetActiveTenant(gomock.Any(), "profile-1", "tenant-2").Return(nil),
		store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(switched, nil),
		store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil),
	)

	svc := newTestService(store)

	snap, err := svc.SetActiveTenant(context.Background(), "identity-1", "tenant-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.ActiveMembership == nil || snap.ActiveMembership.TenantID != "tenant-2" {
		t.Errorf("active membership = %v, expected tenant-2", snap.ActiveMembership)
	}
	if snap.Generation != 1 {
		t.Errorf("generation = %d, expected 1 after one mutation", snap.Generation)
	}
}

func TestService_SetActiveTenant_NoMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(testProfile(), nil)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil)

	svc := newTestService(store)

	// No SetActiveTenant expectation: the verification failure must
	// happen before anything is persisted.
	_, err := svc.SetActiveTenant(context.Background(), "identity-1", "tenant-99")
	if !errors.Is(err, ErrNoSuchMembership) {
		t.Fatalf("expected ErrNoSuchMembership, got %v", err)
	}
}

func TestService_SetActiveContext_NotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	profile := testProfile()
	profile.ActiveTenantID = "tenant-1"

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(profile, nil)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil)

	svc := newTestService(store)

	// tenant-1 allows publishing only.
	_, err := svc.SetActiveContext(context.Background(), "identity-1", types.ContextLicensing)
	if !errors.Is(err, ErrContextNotAllowed) {
		t.Fatalf("expected ErrContextNotAllowed, got %v", err)
	}
}

func TestService_SetActiveContext_NoActiveTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(testProfile(), nil)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil)

	svc := newTestService(store)

	_, err := svc.SetActiveContext(context.Background(), "identity-1", types.ContextPublishing)
	if !errors.Is(err, ErrContextNotAllowed) {
		t.Fatalf("expected ErrContextNotAllowed, got %v", err)
	}
}

func TestService_SignOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	gomock.InOrder(
		store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(testProfile(), nil),
		store.EXPECT().ClearActiveSelection(gomock.Any(), "profile-1").Return(nil),
	)

	svc := newTestService(store)

	if err := svc.SignOut(context.Background(), "identity-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestService_SignOut_NoProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(nil, storage.ErrNotFound)

	svc := newTestService(store)

	if err := svc.SignOut(context.Background(), "identity-1"); err != nil {
		t.Fatalf("expected sign-out without profile to succeed, got %v", err)
	}
}

func TestService_MutationInvalidatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	profile := testProfile()
	switched := testProfile()
	switched.ActiveTenantID = "tenant-1"

	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(profile, nil)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil)
	store.EXPECT().SetActiveTenant(gomock.Any(), "profile-1", "tenant-1").Return(nil)
	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(switched, nil).Times(2)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil).Times(2)

	svc := newTestService(store)
	ctx := context.Background()

	before, err := svc.Snapshot(ctx, "identity-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := svc.SetActiveTenant(ctx, "identity-1", "tenant-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The pre-mutation snapshot carries a stale generation and may not
	// be served again.
	svc.cache.Remove("identity-1")
	after, err := svc.Snapshot(ctx, "identity-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if after.Generation <= before.Generation {
		t.Errorf("generation did not advance: before=%d after=%d", before.Generation, after.Generation)
	}
	if after.ActiveMembership == nil || after.ActiveMembership.TenantID != "tenant-1" {
		t.Errorf("post-mutation snapshot did not pick up the switch")
	}
}

func TestService_Snapshot_RefreshSupersededMidFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStorageInterface(ctrl)

	loading := make(chan struct{})
	release := make(chan struct{})

	gated := store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").
		DoAndReturn(func(ctx context.Context, identityID string) (*types.Profile, error) {
			close(loading)
			<-release
			return testProfile(), nil
		})
	store.EXPECT().GetProfileByIdentityID(gomock.Any(), "identity-1").Return(testProfile(), nil).After(gated)
	store.EXPECT().ListMembershipsByProfileID(gomock.Any(), "profile-1").Return(testMemberships(), nil).Times(2)

	svc := newTestService(store)

	done := make(chan *access.Snapshot, 1)
	go func() {
		snap, err := svc.Snapshot(context.Background(), "identity-1")
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		done <- snap
	}()

	// A mutation lands while the first load is still reading from
	// storage. Its result carries generation 0 and must not be cached
	// or returned.
	<-loading
	svc.Invalidate("identity-1")
	close(release)

	snap := <-done
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.Generation != svc.generation("identity-1") {
		t.Errorf("returned snapshot carries superseded generation %d", snap.Generation)
	}
	if cached, ok := svc.cache.Get("identity-1"); ok && cached.Generation != svc.generation("identity-1") {
		t.Errorf("superseded snapshot generation %d left in the cache", cached.Generation)
	}
}
