// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// PlatformRole is the platform-wide role attached to a profile.
type PlatformRole string

const (
	PlatformAdmin   PlatformRole = "platform_admin"
	PlatformUser    PlatformRole = "platform_user"
	ExternalAuditor PlatformRole = "external_auditor"
)

func (r PlatformRole) Valid() bool {
	switch r {
	case PlatformAdmin, PlatformUser, ExternalAuditor:
		return true
	}
	return false
}

// OrgRole is the tenant-scoped role a membership carries.
type OrgRole string

const (
	TenantAdmin OrgRole = "tenant_admin"
	TenantUser  OrgRole = "tenant_user"
	Viewer      OrgRole = "viewer"
)

func (r OrgRole) Valid() bool {
	switch r {
	case TenantAdmin, TenantUser, Viewer:
		return true
	}
	return false
}

// AccountStatus applies to both profiles and memberships. Anything other
// than StatusActive blocks access.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusPending   AccountStatus = "pending"
	StatusSuspended AccountStatus = "suspended"
	StatusRevoked   AccountStatus = "revoked"
	StatusDenied    AccountStatus = "denied"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusSuspended, StatusRevoked, StatusDenied:
		return true
	}
	return false
}

// Context is an operating mode within a tenant. A membership may only use
// modules whose context appears in its allowed set.
type Context string

const (
	ContextPublishing Context = "publishing"
	ContextLicensing  Context = "licensing"
)

func (c Context) Valid() bool {
	switch c {
	case ContextPublishing, ContextLicensing:
		return true
	}
	return false
}

type Profile struct {
	ID             string        `db:"id"`
	IdentityID     string        `db:"identity_id"`
	Email          string        `db:"email"`
	PlatformRole   PlatformRole  `db:"platform_role"`
	Status         AccountStatus `db:"status"`
	ActiveTenantID string        `db:"active_tenant_id"`
	ActiveContext  Context       `db:"active_context"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

type Tenant struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	Enabled   bool      `db:"enabled"`
}

type Membership struct {
	ID              string        `db:"id"`
	TenantID        string        `db:"tenant_id"`
	ProfileID       string        `db:"profile_id"`
	OrgRole         OrgRole       `db:"org_role"`
	Status          AccountStatus `db:"status"`
	AllowedContexts []Context     `db:"allowed_contexts"`
	CreatedAt       time.Time     `db:"created_at"`
}

// AllowsContext reports whether the membership's context grants include c.
func (m *Membership) AllowsContext(c Context) bool {
	for _, ac := range m.AllowedContexts {
		if ac == c {
			return true
		}
	}
	return false
}

type TenantMember struct {
	UserID          string
	Email           string
	OrgRole         OrgRole
	Status          AccountStatus
	AllowedContexts []Context
}
