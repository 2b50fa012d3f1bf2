// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/rights-portal/internal/types"
)

type StorageInterface interface {
	CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*types.Profile, error)
	GetProfileByIdentityID(ctx context.Context, identityID string) (*types.Profile, error)
	UpdateProfileStatus(ctx context.Context, id string, status types.AccountStatus) error
	SetActiveTenant(ctx context.Context, profileID, tenantID string) error
	SetActiveContext(ctx context.Context, profileID string, c types.Context) error
	ClearActiveSelection(ctx context.Context, profileID string) error

	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenants(ctx context.Context) ([]*types.Tenant, error)

	AddMembership(ctx context.Context, m *types.Membership) (string, error)
	GetMembership(ctx context.Context, tenantID, profileID string) (*types.Membership, error)
	ListMembershipsByProfileID(ctx context.Context, profileID string) ([]*types.Membership, error)
	ListMembersByTenantID(ctx context.Context, tenantID string, page, size int64) ([]*types.Membership, error)
	UpdateMembership(ctx context.Context, m *types.Membership, paths []string) error
	RemoveMembership(ctx context.Context, tenantID, profileID string) error
}
