// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
	"github.com/canonical/rights-portal/pkg/authentication"
	"github.com/canonical/rights-portal/pkg/session"
)

var testConfig = Config{
	SignInURL:      "/signin",
	AccessErrorURL: "/access-error",
	RestrictedURL:  "/restricted",
}

func newTestGuard() *Guard {
	return New(testConfig, nil, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func requestWith(t *testing.T, target string, identityID string, snap *access.Snapshot) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := context.Background()
	if identityID != "" {
		ctx = authentication.WithUserID(ctx, identityID)
	}
	if snap != nil {
		ctx = session.WithSnapshot(ctx, snap)
	}
	return r.WithContext(ctx)
}

func snapshotWith(profile *types.Profile, m *types.Membership) *access.Snapshot {
	snap := &access.Snapshot{Profile: profile}
	if m != nil {
		snap.Memberships = []*types.Membership{m}
		snap.ActiveMembership = m
	}
	return snap
}

func activeProfile(role types.PlatformRole) *types.Profile {
	return &types.Profile{ID: "p-1", IdentityID: "id-1", PlatformRole: role, Status: types.StatusActive}
}

func TestGuard_RequireAuthenticated_RedirectsAnonymous(t *testing.T) {
	g := newTestGuard()

	called := false
	handler := g.RequireAuthenticated()(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWith(t, "/licensing/requests?page=2", "", nil))

	if called {
		t.Error("handler ran for anonymous request")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	expected := "/signin?return_to=%2Flicensing%2Frequests%3Fpage%3D2"
	if loc != expected {
		t.Errorf("redirect = %q, expected %q", loc, expected)
	}
}

func TestGuard_RequirePermission_States(t *testing.T) {
	suspended := activeProfile(types.PlatformUser)
	suspended.Status = types.StatusSuspended

	licensingAdmin := &types.Membership{
		TenantID: "t-1", OrgRole: types.TenantAdmin, Status: types.StatusActive,
		AllowedContexts: []types.Context{types.ContextLicensing},
	}

	testCases := []struct {
		name         string
		identity     string
		snapshot     *access.Snapshot
		expectedCode int
		expectedLoc  string
		expectPass   bool
	}{
		{
			name:         "anonymous to sign in",
			expectedCode: http.StatusSeeOther,
			expectedLoc:  "/signin?return_to=%2Flicensing",
		},
		{
			name:         "no profile to access error",
			identity:     "id-1",
			expectedCode: http.StatusSeeOther,
			expectedLoc:  "/access-error",
		},
		{
			name:         "suspended to access error",
			identity:     "id-1",
			snapshot:     snapshotWith(suspended, licensingAdmin),
			expectedCode: http.StatusSeeOther,
			expectedLoc:  "/access-error",
		},
		{
			name:         "forbidden to restricted",
			identity:     "id-1",
			snapshot:     snapshotWith(activeProfile(types.PlatformUser), nil),
			expectedCode: http.StatusSeeOther,
			expectedLoc:  "/restricted",
		},
		{
			name:       "authorized passes",
			identity:   "id-1",
			snapshot:   snapshotWith(activeProfile(types.PlatformUser), licensingAdmin),
			expectPass: true,
		},
	}

	g := newTestGuard()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := g.RequirePermission(access.PermLicensingView)(okHandler(&called))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWith(t, "/licensing", tc.identity, tc.snapshot))

			if tc.expectPass {
				if !called {
					t.Error("handler did not run for authorized request")
				}
				return
			}

			if called {
				t.Error("handler ran despite denial")
			}
			if rec.Code != tc.expectedCode {
				t.Fatalf("expected %d, got %d", tc.expectedCode, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tc.expectedLoc {
				t.Errorf("redirect = %q, expected %q", loc, tc.expectedLoc)
			}
		})
	}
}

func TestGuard_RequireRoleHome_RedirectsToOwnHome(t *testing.T) {
	// A tenant admin with publishing-only context asking for a
	// licensing-gated surface lands on their own home route, not a
	// generic error page.
	publishingAdmin := &types.Membership{
		TenantID: "t-1", OrgRole: types.TenantAdmin, Status: types.StatusActive,
		AllowedContexts: []types.Context{types.ContextPublishing},
	}

	g := newTestGuard()
	called := false
	handler := g.RequireRoleHome(access.PermLicensingView)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWith(t, "/licensing", "id-1", snapshotWith(activeProfile(types.PlatformUser), publishingAdmin)))

	if called {
		t.Error("handler ran despite denial")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/portal" {
		t.Errorf("redirect = %q, expected own home /portal", loc)
	}
}

func TestGuard_RequireRoleHome_NoVisibleModules(t *testing.T) {
	g := newTestGuard()
	called := false
	handler := g.RequireRoleHome(access.PermLicensingView)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWith(t, "/licensing", "id-1", snapshotWith(activeProfile(types.PlatformUser), nil)))

	if loc := rec.Header().Get("Location"); loc != "/access-error" {
		t.Errorf("redirect = %q, expected /access-error", loc)
	}
}

func TestGuard_AccountStatesAreIndistinguishable(t *testing.T) {
	// No profile, suspended, revoked, and denied must all produce the
	// exact same response so the surface cannot enumerate account states.
	states := map[string]*access.Snapshot{
		"no profile": nil,
	}
	for _, status := range []types.AccountStatus{types.StatusPending, types.StatusSuspended, types.StatusRevoked, types.StatusDenied} {
		p := activeProfile(types.PlatformAdmin)
		p.Status = status
		states[string(status)] = snapshotWith(p, nil)
	}

	g := newTestGuard()

	var codes []int
	var locations []string
	for name, snap := range states {
		t.Run(name, func(t *testing.T) {
			called := false
			handler := g.RequirePermission(access.PermPortalView)(okHandler(&called))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWith(t, "/portal", "id-1", snap))

			codes = append(codes, rec.Code)
			locations = append(locations, rec.Header().Get("Location"))
		})
	}

	for i := 1; i < len(codes); i++ {
		if codes[i] != codes[0] || locations[i] != locations[0] {
			t.Errorf("account states produce distinguishable responses: %v %v", codes, locations)
		}
	}
}

func TestGuard_Idempotence(t *testing.T) {
	g := newTestGuard()
	snap := snapshotWith(activeProfile(types.PlatformUser), &types.Membership{
		TenantID: "t-1", OrgRole: types.Viewer, Status: types.StatusActive,
	})

	handler := g.RequirePermission(access.PermAdminView)(okHandler(new(bool)))

	var first *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWith(t, "/admin", "id-1", snap))
		if first == nil {
			first = rec
			continue
		}
		if rec.Code != first.Code || rec.Header().Get("Location") != first.Header().Get("Location") {
			t.Fatalf("guard decision changed between identical renders")
		}
	}
}

func TestGuard_RequireContext(t *testing.T) {
	m := &types.Membership{
		TenantID: "t-1", OrgRole: types.TenantUser, Status: types.StatusActive,
		AllowedContexts: []types.Context{types.ContextPublishing},
	}

	g := newTestGuard()

	t.Run("allowed", func(t *testing.T) {
		called := false
		handler := g.RequireContext(types.ContextPublishing)(okHandler(&called))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWith(t, "/publishing", "id-1", snapshotWith(activeProfile(types.PlatformUser), m)))
		if !called {
			t.Error("handler did not run")
		}
	})

	t.Run("not allowed", func(t *testing.T) {
		called := false
		handler := g.RequireContext(types.ContextLicensing)(okHandler(&called))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWith(t, "/licensing", "id-1", snapshotWith(activeProfile(types.PlatformUser), m)))
		if called {
			t.Error("handler ran despite context denial")
		}
		if loc := rec.Header().Get("Location"); loc != "/restricted" {
			t.Errorf("redirect = %q, expected /restricted", loc)
		}
	})
}
