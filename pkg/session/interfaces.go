// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package session -destination ./mock_interfaces.go -source=./interfaces.go

type ServiceInterface interface {
	Snapshot(ctx context.Context, identityID string) (*access.Snapshot, error)
	SetActiveTenant(ctx context.Context, identityID, tenantID string) (*access.Snapshot, error)
	SetActiveContext(ctx context.Context, identityID string, c types.Context) (*access.Snapshot, error)
	SignOut(ctx context.Context, identityID string) error
}

// StorageInterface is the subset of internal/storage the session provider needs.
type StorageInterface interface {
	GetProfileByIdentityID(ctx context.Context, identityID string) (*types.Profile, error)
	ListMembershipsByProfileID(ctx context.Context, profileID string) ([]*types.Membership, error)
	SetActiveTenant(ctx context.Context, profileID, tenantID string) error
	SetActiveContext(ctx context.Context, profileID string, c types.Context) error
	ClearActiveSelection(ctx context.Context, profileID string) error
}
