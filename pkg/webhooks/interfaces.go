// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/rights-portal/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_interfaces.go -source=./interfaces.go

// StorageInterface is the subset of internal/storage the webhook
// handlers need.
type StorageInterface interface {
	CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
	GetProfileByIdentityID(ctx context.Context, identityID string) (*types.Profile, error)
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	AddMembership(ctx context.Context, m *types.Membership) (string, error)
	SetActiveTenant(ctx context.Context, profileID, tenantID string) error
	SetActiveContext(ctx context.Context, profileID string, c types.Context) error
}

type ServiceInterface interface {
	HandleRegistration(ctx context.Context, identityID, email string) error
	HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error)
}
