// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"slices"

	"github.com/canonical/rights-portal/internal/types"
)

// Snapshot is the read-only session state a Resolver evaluates against.
// It is assembled by the session provider; the resolver never mutates it.
type Snapshot struct {
	Profile          *types.Profile
	Memberships      []*types.Membership
	ActiveMembership *types.Membership
	ActiveContext    types.Context

	// Generation increases with every session mutation. Consumers caching
	// decisions key them on (identity, generation); stale generations lose.
	Generation uint64
}

// Resolver answers permission, context, and module-visibility queries for
// one snapshot. All queries are pure: identical snapshots yield identical
// answers, and no query ever fails or performs I/O.
type Resolver struct {
	snapshot *Snapshot
	registry *Registry

	profileActive    bool
	membershipActive bool
	platformAdmin    bool
	orgAdmin         bool
	member           bool
	viewer           bool
}

// NewResolver derives the role tiers once up front. A nil snapshot behaves
// like a signed-out session: every query denies.
func NewResolver(snapshot *Snapshot, registry *Registry) *Resolver {
	r := &Resolver{snapshot: snapshot, registry: registry}
	if registry == nil {
		r.registry = DefaultRegistry()
	}
	if snapshot == nil || snapshot.Profile == nil {
		return r
	}

	r.profileActive = snapshot.Profile.Status == types.StatusActive
	r.platformAdmin = r.profileActive && snapshot.Profile.PlatformRole == types.PlatformAdmin

	m := snapshot.ActiveMembership
	if !r.profileActive || m == nil || m.Status != types.StatusActive {
		return r
	}

	r.membershipActive = true
	switch m.OrgRole {
	case types.TenantAdmin:
		r.orgAdmin = true
	case types.TenantUser:
		r.member = true
	case types.Viewer:
		r.viewer = true
	}

	return r
}

// HasPermission reports whether the session holds the permission.
// Platform admins pass unconditionally. Every other caller is checked
// against the rule table; a permission the table does not know is denied.
func (r *Resolver) HasPermission(p Permission) bool {
	if r.platformAdmin {
		return true
	}

	rl, ok := ruleTable[p]
	if !ok {
		// Unknown token. Deny rather than guess.
		return false
	}

	if r.profileActive && r.snapshot.Profile != nil &&
		slices.Contains(rl.platformRoles, r.snapshot.Profile.PlatformRole) {
		return true
	}

	if !r.membershipActive {
		return false
	}

	tierOK := (rl.orgAdmin && r.orgAdmin) || (rl.member && r.member) || (rl.viewer && r.viewer)
	if !tierOK {
		return false
	}

	if rl.requiredContext != "" && !r.snapshot.ActiveMembership.AllowsContext(rl.requiredContext) {
		return false
	}

	return true
}

// HasAnyPermission is a logical OR over HasPermission.
func (r *Resolver) HasAnyPermission(ps ...Permission) bool {
	for _, p := range ps {
		if r.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is a logical AND over HasPermission.
func (r *Resolver) HasAllPermissions(ps ...Permission) bool {
	for _, p := range ps {
		if !r.HasPermission(p) {
			return false
		}
	}
	return true
}

// CanAccessContext reports whether the active membership may operate in
// the given context. Platform admins are not exempt from context
// switching rules here; contexts shape the surface, not the privilege.
func (r *Resolver) CanAccessContext(c types.Context) bool {
	if !r.membershipActive {
		return false
	}
	return r.snapshot.ActiveMembership.AllowsContext(c)
}

// ShouldRenderSurface documents render-or-omit intent at call sites.
// A denied surface is omitted entirely, never rendered disabled.
func (r *Resolver) ShouldRenderSurface(p Permission) bool {
	return r.HasPermission(p)
}

// ShouldRenderNavItem is ShouldRenderSurface for navigation entries.
func (r *Resolver) ShouldRenderNavItem(p Permission) bool {
	return r.HasPermission(p)
}

// VisibleModules returns the modules this session may enter, in the
// registry's declaration order.
func (r *Resolver) VisibleModules() []Module {
	var visible []Module
	for _, m := range r.registry.Modules() {
		if r.HasPermission(m.RequiredPermission) {
			visible = append(visible, m)
		}
	}
	return visible
}

// HomeRoute is the route prefix of the first module visible to the
// session, used to route a denied but legitimate user somewhere useful.
// Returns false when nothing at all is visible.
func (r *Resolver) HomeRoute() (string, bool) {
	for _, m := range r.registry.Modules() {
		if r.HasPermission(m.RequiredPermission) {
			return m.RoutePrefix, true
		}
	}
	return "", false
}
