// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rights

import (
	"context"

	"github.com/canonical/rights-portal/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package rights -destination ./mock_interfaces.go -source=./interfaces.go

// StorageInterface is the subset of internal/storage the rights admin
// surface needs.
type StorageInterface interface {
	CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*types.Profile, error)
	GetProfileByIdentityID(ctx context.Context, identityID string) (*types.Profile, error)
	UpdateProfileStatus(ctx context.Context, id string, status types.AccountStatus) error

	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)

	AddMembership(ctx context.Context, m *types.Membership) (string, error)
	GetMembership(ctx context.Context, tenantID, profileID string) (*types.Membership, error)
	ListMembersByTenantID(ctx context.Context, tenantID string, page, size int64) ([]*types.Membership, error)
	UpdateMembership(ctx context.Context, m *types.Membership, paths []string) error
	RemoveMembership(ctx context.Context, tenantID, profileID string) error
}

// DirectoryInterface is the subset of the identity directory client used
// when provisioning users.
type DirectoryInterface interface {
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
	CreateIdentity(ctx context.Context, email string) (string, error)
	CreateRecoveryLink(ctx context.Context, identityID string, expiresIn string) (string, string, error)
}

// SessionInvalidator drops cached session state for an identity whose
// rights just changed, so the next request re-derives its snapshot.
type SessionInvalidator interface {
	Invalidate(identityID string)
}

type ServiceInterface interface {
	ProvisionUser(ctx context.Context, email string, role types.PlatformRole) (*types.Profile, string, error)
	SuspendUser(ctx context.Context, profileID string) error
	ReinstateUser(ctx context.Context, profileID string) error

	ListMembers(ctx context.Context, tenantID string, page, size int64) ([]*types.TenantMember, error)
	AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error)
	UpdateMember(ctx context.Context, m *types.Membership, paths []string) (*types.Membership, error)
	RemoveMember(ctx context.Context, tenantID, profileID string) error
}
