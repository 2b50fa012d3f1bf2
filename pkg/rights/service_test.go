// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rights

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
)

type serviceMocks struct {
	storage   *MockStorageInterface
	directory *MockDirectoryInterface
	sessions  *MockSessionInvalidator
}

func newTestRightsService(t *testing.T) (*Service, serviceMocks) {
	ctrl := gomock.NewController(t)
	m := serviceMocks{
		storage:   NewMockStorageInterface(ctrl),
		directory: NewMockDirectoryInterface(ctrl),
		sessions:  NewMockSessionInvalidator(ctrl),
	}
	svc := NewService(m.storage, m.directory, m.sessions, "24h", tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
	return svc, m
}

func TestService_ProvisionUser_ExistingIdentity(t *testing.T) {
	svc, m := newTestRightsService(t)

	m.directory.EXPECT().GetIdentityIDByEmail(gomock.Any(), "curator@example.com").Return("identity-1", nil)
	m.storage.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *types.Profile) (*types.Profile, error) {
			if p.IdentityID != "identity-1" || p.PlatformRole != types.PlatformUser || p.Status != types.StatusActive {
				t.Errorf("unexpected profile: %+v", p)
			}
			p.ID = "profile-1"
			return p, nil
		})
	m.directory.EXPECT().CreateRecoveryLink(gomock.Any(), "identity-1", "24h").Return("https://recover/abc", "", nil)

	profile, link, err := svc.ProvisionUser(context.Background(), "curator@example.com", types.PlatformUser)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile.ID != "profile-1" {
		t.Errorf("profile ID = %q", profile.ID)
	}
	if link != "https://recover/abc" {
		t.Errorf("link = %q", link)
	}
}

func TestService_ProvisionUser_NewIdentity(t *testing.T) {
	svc, m := newTestRightsService(t)

	gomock.InOrder(
		m.directory.EXPECT().GetIdentityIDByEmail(gomock.Any(), "new@example.com").Return("", nil),
		m.directory.EXPECT().CreateIdentity(gomock.Any(), "new@example.com").Return("identity-2", nil),
	)
	m.storage.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *types.Profile) (*types.Profile, error) {
			p.ID = "profile-2"
			return p, nil
		})
	m.directory.EXPECT().CreateRecoveryLink(gomock.Any(), "identity-2", "24h").Return("https://recover/def", "", nil)

	profile, _, err := svc.ProvisionUser(context.Background(), "new@example.com", types.ExternalAuditor)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile.IdentityID != "identity-2" {
		t.Errorf("identity ID = %q", profile.IdentityID)
	}
}

func TestService_ProvisionUser_RecoveryLinkFailureIsNonFatal(t *testing.T) {
	svc, m := newTestRightsService(t)

	m.directory.EXPECT().GetIdentityIDByEmail(gomock.Any(), "curator@example.com").Return("identity-1", nil)
	m.storage.EXPECT().CreateProfile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *types.Profile) (*types.Profile, error) {
			p.ID = "profile-1"
			return p, nil
		})
	m.directory.EXPECT().CreateRecoveryLink(gomock.Any(), "identity-1", "24h").Return("", "", errors.New("directory down"))

	profile, link, err := svc.ProvisionUser(context.Background(), "curator@example.com", types.PlatformUser)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile == nil || link != "" {
		t.Errorf("expected profile without link, got %v %q", profile, link)
	}
}

func TestService_SuspendUser(t *testing.T) {
	svc, m := newTestRightsService(t)

	gomock.InOrder(
		m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(
			&types.Profile{ID: "profile-1", IdentityID: "identity-1"}, nil),
		m.storage.EXPECT().UpdateProfileStatus(gomock.Any(), "profile-1", types.StatusSuspended).Return(nil),
		m.sessions.EXPECT().Invalidate("identity-1"),
	)

	if err := svc.SuspendUser(context.Background(), "profile-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestService_SuspendUser_NotFound(t *testing.T) {
	svc, m := newTestRightsService(t)

	m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(nil, storage.ErrNotFound)

	if err := svc.SuspendUser(context.Background(), "profile-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ReinstateUser(t *testing.T) {
	svc, m := newTestRightsService(t)

	gomock.InOrder(
		m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(
			&types.Profile{ID: "profile-1", IdentityID: "identity-1"}, nil),
		m.storage.EXPECT().UpdateProfileStatus(gomock.Any(), "profile-1", types.StatusActive).Return(nil),
		m.sessions.EXPECT().Invalidate("identity-1"),
	)

	if err := svc.ReinstateUser(context.Background(), "profile-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestService_ListMembers(t *testing.T) {
	svc, m := newTestRightsService(t)

	m.storage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(&types.Tenant{ID: "tenant-1"}, nil)
	m.storage.EXPECT().ListMembersByTenantID(gomock.Any(), "tenant-1", int64(0), int64(0)).Return([]*types.Membership{
		{TenantID: "tenant-1", ProfileID: "profile-1", OrgRole: types.TenantAdmin, Status: types.StatusActive},
	}, nil)
	m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(
		&types.Profile{ID: "profile-1", Email: "admin@example.com"}, nil)

	members, err := svc.ListMembers(context.Background(), "tenant-1", 0, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(members) != 1 || members[0].Email != "admin@example.com" || members[0].OrgRole != types.TenantAdmin {
		t.Errorf("members = %+v", members)
	}
}

func TestService_AddMember(t *testing.T) {
	svc, m := newTestRightsService(t)

	membership := &types.Membership{
		TenantID: "tenant-1", ProfileID: "profile-1", OrgRole: types.Viewer,
		Status: types.StatusActive, AllowedContexts: []types.Context{types.ContextPublishing},
	}

	m.storage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(&types.Tenant{ID: "tenant-1"}, nil)
	m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(
		&types.Profile{ID: "profile-1", IdentityID: "identity-1"}, nil)
	m.storage.EXPECT().AddMembership(gomock.Any(), membership).Return("membership-1", nil)
	m.sessions.EXPECT().Invalidate("identity-1")
	m.storage.EXPECT().GetMembership(gomock.Any(), "tenant-1", "profile-1").Return(membership, nil)

	got, err := svc.AddMember(context.Background(), membership)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != membership {
		t.Error("unexpected membership returned")
	}
}

func TestService_AddMember_Duplicate(t *testing.T) {
	svc, m := newTestRightsService(t)

	membership := &types.Membership{TenantID: "tenant-1", ProfileID: "profile-1", OrgRole: types.Viewer}

	m.storage.EXPECT().GetTenantByID(gomock.Any(), "tenant-1").Return(&types.Tenant{ID: "tenant-1"}, nil)
	m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(&types.Profile{ID: "profile-1"}, nil)
	m.storage.EXPECT().AddMembership(gomock.Any(), membership).Return("", storage.ErrDuplicateKey)

	if _, err := svc.AddMember(context.Background(), membership); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestService_UpdateMember(t *testing.T) {
	svc, m := newTestRightsService(t)

	membership := &types.Membership{TenantID: "tenant-1", ProfileID: "profile-1", OrgRole: types.TenantUser}
	paths := []string{"org_role"}

	gomock.InOrder(
		m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(
			&types.Profile{ID: "profile-1", IdentityID: "identity-1"}, nil),
		m.storage.EXPECT().UpdateMembership(gomock.Any(), membership, paths).Return(nil),
		m.sessions.EXPECT().Invalidate("identity-1"),
		m.storage.EXPECT().GetMembership(gomock.Any(), "tenant-1", "profile-1").Return(membership, nil),
	)

	if _, err := svc.UpdateMember(context.Background(), membership, paths); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestService_RemoveMember(t *testing.T) {
	svc, m := newTestRightsService(t)

	gomock.InOrder(
		m.storage.EXPECT().GetProfileByID(gomock.Any(), "profile-1").Return(
			&types.Profile{ID: "profile-1", IdentityID: "identity-1"}, nil),
		m.storage.EXPECT().RemoveMembership(gomock.Any(), "tenant-1", "profile-1").Return(nil),
		m.sessions.EXPECT().Invalidate("identity-1"),
	)

	if err := svc.RemoveMember(context.Background(), "tenant-1", "profile-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
