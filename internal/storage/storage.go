// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/rights-portal/internal/db"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

const profileColumns = "id, identity_id, email, platform_role, status, active_tenant_id, active_context, created_at, updated_at"

func scanProfile(row sq.RowScanner) (*types.Profile, error) {
	var p types.Profile
	var activeTenant, activeContext sql.NullString

	err := row.Scan(&p.ID, &p.IdentityID, &p.Email, &p.PlatformRole, &p.Status, &activeTenant, &activeContext, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.ActiveTenantID = activeTenant.String
	p.ActiveContext = types.Context(activeContext.String)
	return &p, nil
}

func (s *Storage) CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateProfile")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile ID: %w", err)
	}

	row := s.db.Statement(ctx).
		Insert("profiles").
		Columns("id", "identity_id", "email", "platform_role", "status").
		Values(id.String(), p.IdentityID, p.Email, p.PlatformRole, p.Status).
		Suffix("RETURNING " + profileColumns).
		QueryRowContext(ctx)

	created, err := scanProfile(row)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, WrapDuplicateKeyError(err, "profile already exists for identity")
		}
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	return created, nil
}

func (s *Storage) GetProfileByID(ctx context.Context, id string) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProfileByID")
	defer span.End()

	return s.getProfile(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetProfileByIdentityID(ctx context.Context, identityID string) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProfileByIdentityID")
	defer span.End()

	return s.getProfile(ctx, sq.Eq{"identity_id": identityID})
}

func (s *Storage) getProfile(ctx context.Context, where sq.Eq) (*types.Profile, error) {
	row := s.db.Statement(ctx).
		Select(profileColumns).
		From("profiles").
		Where(where).
		QueryRowContext(ctx)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

func (s *Storage) UpdateProfileStatus(ctx context.Context, id string, status types.AccountStatus) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateProfileStatus")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("profiles").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update profile status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SetActiveTenant records the active membership pointer. The membership is
// validated by the caller; an empty tenantID clears the pointer.
func (s *Storage) SetActiveTenant(ctx context.Context, profileID, tenantID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetActiveTenant")
	defer span.End()

	var value interface{}
	if tenantID != "" {
		value = tenantID
	}

	res, err := s.db.Statement(ctx).
		Update("profiles").
		Set("active_tenant_id", value).
		Set("active_context", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": profileID}).
		ExecContext(ctx)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return WrapForeignKeyError(err, "active tenant does not exist")
		}
		return fmt.Errorf("failed to set active tenant: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) SetActiveContext(ctx context.Context, profileID string, c types.Context) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetActiveContext")
	defer span.End()

	var value interface{}
	if c != "" {
		value = string(c)
	}

	res, err := s.db.Statement(ctx).
		Update("profiles").
		Set("active_context", value).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": profileID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to set active context: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) ClearActiveSelection(ctx context.Context, profileID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.ClearActiveSelection")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Update("profiles").
		Set("active_tenant_id", nil).
		Set("active_context", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": profileID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to clear active selection: %w", err)
	}
	return nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTenant")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
	}

	var newTenant types.Tenant
	err = s.db.Statement(ctx).
		Insert("tenants").
		Columns("id", "name", "enabled").
		Values(id.String(), t.Name, t.Enabled).
		Suffix("RETURNING id, name, created_at, enabled").
		QueryRowContext(ctx).
		Scan(&newTenant.ID, &newTenant.Name, &newTenant.CreatedAt, &newTenant.Enabled)

	if err != nil {
		return nil, fmt.Errorf("failed to insert tenant: %w", err)
	}

	return &newTenant, nil
}

func (s *Storage) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetTenantByID")
	defer span.End()

	var t types.Tenant
	err := s.db.Statement(ctx).
		Select("id", "name", "created_at", "enabled").
		From("tenants").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&t.ID, &t.Name, &t.CreatedAt, &t.Enabled)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

func (s *Storage) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListTenants")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "name", "created_at", "enabled").
		From("tenants").
		OrderBy("created_at").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*types.Tenant
	for rows.Next() {
		var t types.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tenants, nil
}

const membershipColumns = "id, tenant_id, profile_id, org_role, status, allowed_contexts, created_at"

func scanMembership(row sq.RowScanner) (*types.Membership, error) {
	var m types.Membership
	var contexts contextList

	err := row.Scan(&m.ID, &m.TenantID, &m.ProfileID, &m.OrgRole, &m.Status, &contexts, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.AllowedContexts = contexts
	return &m, nil
}

func (s *Storage) AddMembership(ctx context.Context, m *types.Membership) (string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.AddMembership")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate membership ID: %w", err)
	}

	_, err = s.db.Statement(ctx).
		Insert("memberships").
		Columns("id", "tenant_id", "profile_id", "org_role", "status", "allowed_contexts").
		Values(id.String(), m.TenantID, m.ProfileID, m.OrgRole, m.Status, contextList(m.AllowedContexts)).
		ExecContext(ctx)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return "", ErrDuplicateKey
		}
		if IsForeignKeyViolation(err) {
			return "", ErrForeignKeyViolation
		}
		return "", fmt.Errorf("failed to add membership: %w", err)
	}

	return id.String(), nil
}

func (s *Storage) GetMembership(ctx context.Context, tenantID, profileID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	row := s.db.Statement(ctx).
		Select(membershipColumns).
		From("memberships").
		Where(sq.Eq{"tenant_id": tenantID, "profile_id": profileID}).
		QueryRowContext(ctx)

	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

func (s *Storage) ListMembershipsByProfileID(ctx context.Context, profileID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembershipsByProfileID")
	defer span.End()

	return s.listMemberships(ctx, sq.Eq{"m.profile_id": profileID}, 0, 0)
}

func (s *Storage) ListMembersByTenantID(ctx context.Context, tenantID string, page, size int64) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembersByTenantID")
	defer span.End()

	pageSize := db.PageSize(size)

	return s.listMemberships(ctx, sq.Eq{"m.tenant_id": tenantID}, pageSize, db.Offset(page, pageSize))
}

func (s *Storage) listMemberships(ctx context.Context, where sq.Eq, limit, offset uint64) ([]*types.Membership, error) {
	// Memberships of disabled tenants are filtered here so the session
	// layer never sees them.
	stmt := s.db.Statement(ctx).
		Select("m.id", "m.tenant_id", "m.profile_id", "m.org_role", "m.status", "m.allowed_contexts", "m.created_at").
		From("memberships m").
		Join("tenants t ON t.id = m.tenant_id").
		Where(where).
		Where(sq.Eq{"t.enabled": true}).
		OrderBy("m.created_at")

	if limit > 0 {
		stmt = stmt.Limit(limit).Offset(offset)
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*types.Membership
	for rows.Next() {
		var m types.Membership
		var contexts contextList
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProfileID, &m.OrgRole, &m.Status, &contexts, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.AllowedContexts = contexts
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

// UpdateMembership updates the fields named in paths, following PATCH
// semantics. Supported paths: org_role, status, allowed_contexts.
func (s *Storage) UpdateMembership(ctx context.Context, m *types.Membership, paths []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMembership")
	defer span.End()

	if len(paths) == 0 {
		return nil
	}

	updateMap := make(map[string]interface{})
	for _, p := range paths {
		switch p {
		case "org_role":
			updateMap["org_role"] = m.OrgRole
		case "status":
			updateMap["status"] = m.Status
		case "allowed_contexts":
			updateMap["allowed_contexts"] = contextList(m.AllowedContexts)
		}
	}

	if len(updateMap) == 0 {
		return nil
	}

	res, err := s.db.Statement(ctx).
		Update("memberships").
		SetMap(updateMap).
		Where(sq.Eq{"tenant_id": m.TenantID, "profile_id": m.ProfileID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) RemoveMembership(ctx context.Context, tenantID, profileID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveMembership")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("memberships").
		Where(sq.Eq{"tenant_id": tenantID, "profile_id": profileID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return nil
}
