// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rights

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
	"github.com/canonical/rights-portal/pkg/authentication"
	"github.com/canonical/rights-portal/pkg/session"
)

func newRightsServer(service ServiceInterface) *chi.Mux {
	mux := chi.NewMux()
	api := NewAPI(service, access.DefaultRegistry(), tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
	api.RegisterEndpoints(mux)
	return mux
}

func platformAdminSnapshot() *access.Snapshot {
	return &access.Snapshot{
		Profile: &types.Profile{
			ID: "admin-profile", IdentityID: "admin-identity",
			PlatformRole: types.PlatformAdmin, Status: types.StatusActive,
		},
	}
}

func tenantAdminSnapshot(tenantID string) *access.Snapshot {
	m := &types.Membership{
		TenantID: tenantID, OrgRole: types.TenantAdmin, Status: types.StatusActive,
		AllowedContexts: []types.Context{types.ContextPublishing},
	}
	return &access.Snapshot{
		Profile: &types.Profile{
			ID: "org-profile", IdentityID: "org-identity",
			PlatformRole: types.PlatformUser, Status: types.StatusActive,
		},
		Memberships:      []*types.Membership{m},
		ActiveMembership: m,
	}
}

func requestAs(method, target, body string, snap *access.Snapshot) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.Background()
	if snap != nil {
		ctx = authentication.WithUserID(ctx, snap.Profile.IdentityID)
		ctx = session.WithSnapshot(ctx, snap)
	}
	return r.WithContext(ctx)
}

func TestProvisionUserHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockServiceInterface(ctrl)

	service.EXPECT().ProvisionUser(gomock.Any(), "curator@example.com", types.PlatformUser).Return(
		&types.Profile{ID: "profile-1", Email: "curator@example.com", PlatformRole: types.PlatformUser, Status: types.StatusActive},
		"https://recover/abc", nil,
	)

	mux := newRightsServer(service)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, requestAs(http.MethodPost, "/api/v0/rights/users",
		`{"email": "curator@example.com", "platform_role": "platform_user"}`, platformAdminSnapshot()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProvisionUserHandler_BadRequest(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing email", `{"platform_role": "platform_user"}`},
		{"bad email", `{"email": "not-an-email", "platform_role": "platform_user"}`},
		{"unknown role", `{"email": "a@example.com", "platform_role": "emperor"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mux := newRightsServer(NewMockServiceInterface(ctrl))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, requestAs(http.MethodPost, "/api/v0/rights/users", tc.body, platformAdminSnapshot()))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestProvisionUserHandler_RequiresPlatformAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No service expectations: authorization fails first.
	mux := newRightsServer(NewMockServiceInterface(ctrl))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, requestAs(http.MethodPost, "/api/v0/rights/users",
		`{"email": "a@example.com", "platform_role": "platform_user"}`, tenantAdminSnapshot("tenant-1")))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSuspendUserHandler(t *testing.T) {
	testCases := []struct {
		name         string
		serviceErr   error
		expectedCode int
	}{
		{"success", nil, http.StatusNoContent},
		{"not found", storage.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := NewMockServiceInterface(ctrl)
			service.EXPECT().SuspendUser(gomock.Any(), "profile-1").Return(tc.serviceErr)

			mux := newRightsServer(service)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, requestAs(http.MethodPost, "/api/v0/rights/users/profile-1/suspend", "", platformAdminSnapshot()))

			if rec.Code != tc.expectedCode {
				t.Fatalf("expected %d, got %d", tc.expectedCode, rec.Code)
			}
		})
	}
}

func TestListMembersHandler_TenantScope(t *testing.T) {
	testCases := []struct {
		name         string
		snapshot     *access.Snapshot
		expectCall   bool
		expectedCode int
	}{
		{
			name:         "platform admin any tenant",
			snapshot:     platformAdminSnapshot(),
			expectCall:   true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "tenant admin own tenant",
			snapshot:     tenantAdminSnapshot("tenant-1"),
			expectCall:   true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "tenant admin other tenant",
			snapshot:     tenantAdminSnapshot("tenant-2"),
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "unauthenticated",
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := NewMockServiceInterface(ctrl)
			if tc.expectCall {
				service.EXPECT().ListMembers(gomock.Any(), "tenant-1", int64(0), int64(0)).Return([]*types.TenantMember{}, nil)
			}

			mux := newRightsServer(service)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, requestAs(http.MethodGet, "/api/v0/rights/tenants/tenant-1/members", "", tc.snapshot))

			if rec.Code != tc.expectedCode {
				t.Fatalf("expected %d, got %d: %s", tc.expectedCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAddMemberHandler(t *testing.T) {
	profileID := "2b3f4b6d-3a0e-4f25-9f07-9aa875f13f9e"

	ctrl := gomock.NewController(t)
	service := NewMockServiceInterface(ctrl)

	service.EXPECT().AddMember(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m *types.Membership) (*types.Membership, error) {
			if m.TenantID != "tenant-1" || m.ProfileID != profileID || m.OrgRole != types.Viewer {
				t.Errorf("unexpected membership: %+v", m)
			}
			if len(m.AllowedContexts) != 1 || m.AllowedContexts[0] != types.ContextLicensing {
				t.Errorf("unexpected contexts: %v", m.AllowedContexts)
			}
			return m, nil
		})

	mux := newRightsServer(service)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, requestAs(http.MethodPost, "/api/v0/rights/tenants/tenant-1/members",
		`{"profile_id": "`+profileID+`", "org_role": "viewer", "allowed_contexts": ["licensing"]}`,
		tenantAdminSnapshot("tenant-1")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateMemberHandler_Paths(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		expectedPaths []string
	}{
		{"role only", `{"org_role": "tenant_user"}`, []string{"org_role"}},
		{"status only", `{"status": "suspended"}`, []string{"status"}},
		{"contexts only", `{"allowed_contexts": ["publishing"]}`, []string{"allowed_contexts"}},
		{
			"all fields",
			`{"org_role": "viewer", "status": "active", "allowed_contexts": []}`,
			[]string{"org_role", "status", "allowed_contexts"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := NewMockServiceInterface(ctrl)

			service.EXPECT().UpdateMember(gomock.Any(), gomock.Any(), tc.expectedPaths).Return(&types.Membership{}, nil)

			mux := newRightsServer(service)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, requestAs(http.MethodPatch, "/api/v0/rights/tenants/tenant-1/members/profile-1",
				tc.body, platformAdminSnapshot()))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateMemberHandler_NothingToUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	mux := newRightsServer(NewMockServiceInterface(ctrl))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, requestAs(http.MethodPatch, "/api/v0/rights/tenants/tenant-1/members/profile-1",
		`{}`, platformAdminSnapshot()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemoveMemberHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockServiceInterface(ctrl)

	service.EXPECT().RemoveMember(gomock.Any(), "tenant-1", "profile-1").Return(nil)

	mux := newRightsServer(service)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, requestAs(http.MethodDelete, "/api/v0/rights/tenants/tenant-1/members/profile-1",
		"", tenantAdminSnapshot("tenant-1")))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
