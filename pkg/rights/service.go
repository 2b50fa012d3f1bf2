// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rights

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

// Service performs the administrative rights mutations: provisioning
// users in the identity directory, managing tenant memberships, and
// suspending accounts. Every mutation that touches an existing user
// invalidates that user's cached session so the change takes effect on
// their next request.
type Service struct {
	storage   StorageInterface
	directory DirectoryInterface
	sessions  SessionInvalidator

	invitationLifetime string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	directory DirectoryInterface,
	sessions SessionInvalidator,
	invitationLifetime string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:            storage,
		directory:          directory,
		sessions:           sessions,
		invitationLifetime: invitationLifetime,
		tracer:             tracer,
		monitor:            monitor,
		logger:             logger,
	}
}

// ProvisionUser creates the directory identity if needed, creates the
// profile, and returns it together with a recovery link the new user
// can use to set credentials.
func (s *Service) ProvisionUser(ctx context.Context, email string, role types.PlatformRole) (*types.Profile, string, error) {
	ctx, span := s.tracer.Start(ctx, "rights.Service.ProvisionUser")
	defer span.End()

	identityID, err := s.directory.GetIdentityIDByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up identity: %w", err)
	}

	if identityID == "" {
		identityID, err = s.directory.CreateIdentity(ctx, email)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create identity: %w", err)
		}
	}

	profile, err := s.storage.CreateProfile(ctx, &types.Profile{
		IdentityID:   identityID,
		Email:        email,
		PlatformRole: role,
		Status:       types.StatusActive,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create profile: %w", err)
	}

	link, _, err := s.directory.CreateRecoveryLink(ctx, identityID, s.invitationLifetime)
	if err != nil {
		// The profile exists; the admin can re-issue the link.
		s.logger.Errorf("failed to create recovery link for %s: %v", identityID, err)
		return profile, "", nil
	}

	s.logger.Infof("provisioned user %s as %s", profile.ID, role)
	return profile, link, nil
}

// SuspendUser marks the profile suspended. The resolver denies every
// permission for a non-active profile, so the suspension is total.
func (s *Service) SuspendUser(ctx context.Context, profileID string) error {
	ctx, span := s.tracer.Start(ctx, "rights.Service.SuspendUser")
	defer span.End()

	return s.setProfileStatus(ctx, profileID, types.StatusSuspended)
}

// ReinstateUser returns a suspended profile to active.
func (s *Service) ReinstateUser(ctx context.Context, profileID string) error {
	ctx, span := s.tracer.Start(ctx, "rights.Service.ReinstateUser")
	defer span.End()

	return s.setProfileStatus(ctx, profileID, types.StatusActive)
}

func (s *Service) setProfileStatus(ctx context.Context, profileID string, status types.AccountStatus) error {
	profile, err := s.storage.GetProfileByID(ctx, profileID)
	if err != nil {
		return err
	}

	if err := s.storage.UpdateProfileStatus(ctx, profileID, status); err != nil {
		return fmt.Errorf("failed to update profile status: %w", err)
	}

	s.sessions.Invalidate(profile.IdentityID)
	s.logger.Infof("profile %s status set to %s", profileID, status)
	return nil
}

// ListMembers returns the tenant's roster with each member's email
// resolved from their profile.
func (s *Service) ListMembers(ctx context.Context, tenantID string, page, size int64) ([]*types.TenantMember, error) {
	ctx, span := s.tracer.Start(ctx, "rights.Service.ListMembers")
	defer span.End()

	if _, err := s.storage.GetTenantByID(ctx, tenantID); err != nil {
		return nil, err
	}

	memberships, err := s.storage.ListMembersByTenantID(ctx, tenantID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]*types.TenantMember, 0, len(memberships))
	for _, m := range memberships {
		member := &types.TenantMember{
			UserID:          m.ProfileID,
			OrgRole:         m.OrgRole,
			Status:          m.Status,
			AllowedContexts: m.AllowedContexts,
		}
		if profile, err := s.storage.GetProfileByID(ctx, m.ProfileID); err == nil {
			member.Email = profile.Email
		}
		members = append(members, member)
	}

	return members, nil
}

// AddMember grants a profile membership in a tenant.
func (s *Service) AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "rights.Service.AddMember")
	defer span.End()

	if _, err := s.storage.GetTenantByID(ctx, m.TenantID); err != nil {
		return nil, err
	}
	profile, err := s.storage.GetProfileByID(ctx, m.ProfileID)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.AddMembership(ctx, m); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add membership: %w", err)
	}

	s.sessions.Invalidate(profile.IdentityID)
	return s.storage.GetMembership(ctx, m.TenantID, m.ProfileID)
}

// UpdateMember applies a partial membership update. paths names the
// fields to change: org_role, status, allowed_contexts.
func (s *Service) UpdateMember(ctx context.Context, m *types.Membership, paths []string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "rights.Service.UpdateMember")
	defer span.End()

	profile, err := s.storage.GetProfileByID(ctx, m.ProfileID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.UpdateMembership(ctx, m, paths); err != nil {
		return nil, err
	}

	s.sessions.Invalidate(profile.IdentityID)
	return s.storage.GetMembership(ctx, m.TenantID, m.ProfileID)
}

// RemoveMember revokes a profile's membership in a tenant.
func (s *Service) RemoveMember(ctx context.Context, tenantID, profileID string) error {
	ctx, span := s.tracer.Start(ctx, "rights.Service.RemoveMember")
	defer span.End()

	profile, err := s.storage.GetProfileByID(ctx, profileID)
	if err != nil {
		return err
	}

	if err := s.storage.RemoveMembership(ctx, tenantID, profileID); err != nil {
		return err
	}

	s.sessions.Invalidate(profile.IdentityID)
	return nil
}
