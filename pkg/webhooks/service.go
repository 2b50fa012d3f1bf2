// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// HandleRegistration provisions the portal state for a freshly
// registered identity: a profile, a personal tenant, and an admin
// membership scoped to the publishing context. The new tenant is also
// selected as the active one so the first request lands on a surface.
func (s *Service) HandleRegistration(ctx context.Context, identityID, email string) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	s.logger.Debugf("handling registration for identity %s with email %s", identityID, email)

	if identityID == "" || email == "" {
		return fmt.Errorf("identity ID or email is empty")
	}

	profile, err := s.storage.CreateProfile(ctx, &types.Profile{
		IdentityID:   identityID,
		Email:        email,
		PlatformRole: types.PlatformUser,
		Status:       types.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	tenant, err := s.storage.CreateTenant(ctx, &types.Tenant{
		Name: fmt.Sprintf("%s's Org", email),
	})
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	_, err = s.storage.AddMembership(ctx, &types.Membership{
		TenantID:        tenant.ID,
		ProfileID:       profile.ID,
		OrgRole:         types.TenantAdmin,
		Status:          types.StatusActive,
		AllowedContexts: []types.Context{types.ContextPublishing},
	})
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}

	if err := s.storage.SetActiveTenant(ctx, profile.ID, tenant.ID); err != nil {
		return fmt.Errorf("failed to set active tenant: %w", err)
	}
	if err := s.storage.SetActiveContext(ctx, profile.ID, types.ContextPublishing); err != nil {
		return fmt.Errorf("failed to set active context: %w", err)
	}

	s.logger.Infof("provisioned tenant %s for user %s", tenant.ID, profile.ID)
	return nil
}

// HandleTokenHook enriches the tokens Hydra is about to issue with the
// subject's platform role and active tenant. Unknown subjects get their
// tokens back untouched; the portal treats them as profileless.
func (s *Service) HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleTokenHook")
	defer span.End()

	resp := &TokenHookResponse{
		Session: TokenHookSession{
			AccessToken: map[string]interface{}{},
			IDToken:     map[string]interface{}{},
		},
	}

	subject := ""
	if req.Session != nil && req.Session.DefaultSession != nil {
		subject = req.Session.Subject
		if subject == "" && req.Session.Claims != nil {
			subject = req.Session.Claims.Subject
		}
	}
	if subject == "" {
		return resp, nil
	}

	profile, err := s.storage.GetProfileByIdentityID(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	claims := map[string]interface{}{
		"platform_role": string(profile.PlatformRole),
		"profile_id":    profile.ID,
	}
	if profile.ActiveTenantID != "" {
		claims["active_tenant_id"] = profile.ActiveTenantID
	}

	for k, v := range claims {
		resp.Session.AccessToken[k] = v
		resp.Session.IDToken[k] = v
	}

	return resp, nil
}
