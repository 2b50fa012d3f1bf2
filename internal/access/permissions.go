// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"github.com/canonical/rights-portal/internal/types"
)

// Permission is a namespaced capability token. Permissions are evaluated,
// never stored; the rule table below is the single source of truth.
type Permission string

const (
	PermPortalView        Permission = "portal.view"
	PermPortalManage      Permission = "portal.manage"
	PermRecordsView       Permission = "records.view"
	PermRecordsEdit       Permission = "records.edit"
	PermPublishingView    Permission = "publishing.view"
	PermPublishingManage  Permission = "publishing.manage"
	PermLicensingView     Permission = "licensing.view"
	PermLicensingManage   Permission = "licensing.manage"
	PermLicensingApprove  Permission = "licensing.approve"
	PermAdminView         Permission = "admin.view"
	PermAdminMembers      Permission = "admin.members"
	PermAuditView         Permission = "audit.view"
	PermPlatformAdmin     Permission = "platform.admin"
	PermSupportWorkstation Permission = "support.workstation"
)

// rule describes who may hold a permission. A zero rule denies every
// non-platform-admin caller; platform admins bypass the table entirely.
type rule struct {
	// org-role tiers of the active membership that satisfy the rule
	orgAdmin bool
	member   bool
	viewer   bool

	// requiredContext, when set, must additionally appear in the active
	// membership's allowed contexts
	requiredContext types.Context

	// platformRoles grant the permission from the profile alone, without
	// any tenant membership
	platformRoles []types.PlatformRole
}

// ruleTable drives HasPermission. Permissions absent from the table are
// denied for everyone except platform admins.
var ruleTable = map[Permission]rule{
	PermPortalView:  {orgAdmin: true, member: true, viewer: true},
	PermPortalManage: {orgAdmin: true},

	PermRecordsView: {orgAdmin: true, member: true, viewer: true},
	PermRecordsEdit: {orgAdmin: true, member: true, requiredContext: types.ContextPublishing},

	PermPublishingView:   {orgAdmin: true, member: true, viewer: true, requiredContext: types.ContextPublishing},
	PermPublishingManage: {orgAdmin: true, requiredContext: types.ContextPublishing},

	PermLicensingView:   {orgAdmin: true, requiredContext: types.ContextLicensing},
	PermLicensingManage: {orgAdmin: true, requiredContext: types.ContextLicensing},

	// Approval authority is reserved to platform admins. The empty rule is
	// intentional: no tier or context combination grants it.
	PermLicensingApprove: {},

	PermAdminView:    {orgAdmin: true},
	PermAdminMembers: {orgAdmin: true},

	// External auditors read audit trails without holding any membership.
	PermAuditView: {platformRoles: []types.PlatformRole{types.ExternalAuditor}},

	// Platform-only surfaces. Granted solely through the bypass.
	PermPlatformAdmin:      {},
	PermSupportWorkstation: {},
}
