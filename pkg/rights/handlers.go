// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package rights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/storage"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
	"github.com/canonical/rights-portal/pkg/authentication"
	"github.com/canonical/rights-portal/pkg/session"
)

type API struct {
	service  ServiceInterface
	registry *access.Registry
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, registry *access.Registry, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:  service,
		registry: registry,
		validate: validator.New(),
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/rights/users", a.provisionUser)
	mux.Post("/api/v0/rights/users/{id}/suspend", a.suspendUser)
	mux.Post("/api/v0/rights/users/{id}/reinstate", a.reinstateUser)

	mux.Get("/api/v0/rights/tenants/{id}/members", a.listMembers)
	mux.Post("/api/v0/rights/tenants/{id}/members", a.addMember)
	mux.Patch("/api/v0/rights/tenants/{id}/members/{userID}", a.updateMember)
	mux.Delete("/api/v0/rights/tenants/{id}/members/{userID}", a.removeMember)
}

// authorizePlatform admits platform admins only.
func (a *API) authorizePlatform(w http.ResponseWriter, r *http.Request) bool {
	resolver, ok := a.resolver(w, r)
	if !ok {
		return false
	}
	if !resolver.HasPermission(access.PermPlatformAdmin) {
		a.deny(w, r)
		return false
	}
	return true
}

// authorizeTenant admits platform admins, and tenant admins acting on
// their own active tenant.
func (a *API) authorizeTenant(w http.ResponseWriter, r *http.Request, tenantID string) bool {
	resolver, ok := a.resolver(w, r)
	if !ok {
		return false
	}
	if resolver.HasPermission(access.PermPlatformAdmin) {
		return true
	}
	snap, _ := session.SnapshotFromContext(r.Context())
	if snap != nil && snap.ActiveMembership != nil && snap.ActiveMembership.TenantID == tenantID &&
		resolver.HasPermission(access.PermAdminMembers) {
		return true
	}
	a.deny(w, r)
	return false
}

func (a *API) resolver(w http.ResponseWriter, r *http.Request) (*access.Resolver, bool) {
	if id, ok := authentication.GetUserID(r.Context()); !ok || id == "" {
		errorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return nil, false
	}
	snap, _ := session.SnapshotFromContext(r.Context())
	return access.NewResolver(snap, a.registry), true
}

func (a *API) deny(w http.ResponseWriter, r *http.Request) {
	if id, ok := authentication.GetUserID(r.Context()); ok {
		a.logger.Security().AuthzFailure(id, "rights_admin_api")
	}
	errorResponse(w, http.StatusForbidden, "forbidden")
}

type provisionUserRequest struct {
	Email        string `json:"email" validate:"required,email"`
	PlatformRole string `json:"platform_role" validate:"required"`
}

type provisionUserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PlatformRole string `json:"platform_role"`
	Status       string `json:"status"`
	RecoveryLink string `json:"recovery_link,omitempty"`
}

type memberResponse struct {
	UserID          string   `json:"user_id"`
	Email           string   `json:"email,omitempty"`
	OrgRole         string   `json:"org_role"`
	Status          string   `json:"status"`
	AllowedContexts []string `json:"allowed_contexts"`
}

type addMemberRequest struct {
	ProfileID       string   `json:"profile_id" validate:"required,uuid"`
	OrgRole         string   `json:"org_role" validate:"required"`
	AllowedContexts []string `json:"allowed_contexts"`
}

type updateMemberRequest struct {
	OrgRole         *string   `json:"org_role,omitempty"`
	Status          *string   `json:"status,omitempty"`
	AllowedContexts *[]string `json:"allowed_contexts,omitempty"`
}

func (a *API) provisionUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rights.API.provisionUser")
	defer span.End()
	r = r.WithContext(ctx)

	if !a.authorizePlatform(w, r) {
		return
	}

	var req provisionUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, "email and platform_role are required")
		return
	}
	role := types.PlatformRole(req.PlatformRole)
	if !role.Valid() {
		errorResponse(w, http.StatusBadRequest, "unknown platform role")
		return
	}

	profile, link, err := a.service.ProvisionUser(ctx, req.Email, role)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			errorResponse(w, http.StatusConflict, "profile already exists")
			return
		}
		a.logger.Errorf("failed to provision user: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to provision user")
		return
	}

	jsonResponse(w, http.StatusCreated, provisionUserResponse{
		ID:           profile.ID,
		Email:        profile.Email,
		PlatformRole: string(profile.PlatformRole),
		Status:       string(profile.Status),
		RecoveryLink: link,
	})
}

func (a *API) suspendUser(w http.ResponseWriter, r *http.Request) {
	a.setUserStatus(w, r, "rights.API.suspendUser", a.service.SuspendUser)
}

func (a *API) reinstateUser(w http.ResponseWriter, r *http.Request) {
	a.setUserStatus(w, r, "rights.API.reinstateUser", a.service.ReinstateUser)
}

func (a *API) setUserStatus(w http.ResponseWriter, r *http.Request, spanName string, apply func(ctx context.Context, profileID string) error) {
	ctx, span := a.tracer.Start(r.Context(), spanName)
	defer span.End()
	r = r.WithContext(ctx)

	if !a.authorizePlatform(w, r) {
		return
	}

	if err := apply(ctx, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "profile not found")
			return
		}
		a.logger.Errorf("failed to update profile status: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to update profile status")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rights.API.listMembers")
	defer span.End()
	r = r.WithContext(ctx)

	tenantID := chi.URLParam(r, "id")
	if !a.authorizeTenant(w, r, tenantID) {
		return
	}

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	size, _ := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)

	members, err := a.service.ListMembers(ctx, tenantID, page, size)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "tenant not found")
			return
		}
		a.logger.Errorf("failed to list members: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse{
			UserID:          m.UserID,
			Email:           m.Email,
			OrgRole:         string(m.OrgRole),
			Status:          string(m.Status),
			AllowedContexts: contextStrings(m.AllowedContexts),
		})
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (a *API) addMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rights.API.addMember")
	defer span.End()
	r = r.WithContext(ctx)

	tenantID := chi.URLParam(r, "id")
	if !a.authorizeTenant(w, r, tenantID) {
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, "profile_id must be a UUID and org_role is required")
		return
	}
	role := types.OrgRole(req.OrgRole)
	if !role.Valid() {
		errorResponse(w, http.StatusBadRequest, "unknown org role")
		return
	}
	contexts, ok := parseContexts(req.AllowedContexts)
	if !ok {
		errorResponse(w, http.StatusBadRequest, "unknown context")
		return
	}

	membership, err := a.service.AddMember(ctx, &types.Membership{
		TenantID:        tenantID,
		ProfileID:       req.ProfileID,
		OrgRole:         role,
		Status:          types.StatusActive,
		AllowedContexts: contexts,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			errorResponse(w, http.StatusNotFound, "tenant or profile not found")
		case errors.Is(err, storage.ErrDuplicateKey):
			errorResponse(w, http.StatusConflict, "membership already exists")
		default:
			a.logger.Errorf("failed to add member: %v", err)
			errorResponse(w, http.StatusInternalServerError, "failed to add member")
		}
		return
	}

	jsonResponse(w, http.StatusCreated, membershipResponse(membership))
}

func (a *API) updateMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rights.API.updateMember")
	defer span.End()
	r = r.WithContext(ctx)

	tenantID := chi.URLParam(r, "id")
	if !a.authorizeTenant(w, r, tenantID) {
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m := &types.Membership{
		TenantID:  tenantID,
		ProfileID: chi.URLParam(r, "userID"),
	}
	paths := make([]string, 0, 3)

	if req.OrgRole != nil {
		role := types.OrgRole(*req.OrgRole)
		if !role.Valid() {
			errorResponse(w, http.StatusBadRequest, "unknown org role")
			return
		}
		m.OrgRole = role
		paths = append(paths, "org_role")
	}
	if req.Status != nil {
		status := types.AccountStatus(*req.Status)
		if !status.Valid() {
			errorResponse(w, http.StatusBadRequest, "unknown status")
			return
		}
		m.Status = status
		paths = append(paths, "status")
	}
	if req.AllowedContexts != nil {
		contexts, ok := parseContexts(*req.AllowedContexts)
		if !ok {
			errorResponse(w, http.StatusBadRequest, "unknown context")
			return
		}
		m.AllowedContexts = contexts
		paths = append(paths, "allowed_contexts")
	}
	if len(paths) == 0 {
		errorResponse(w, http.StatusBadRequest, "nothing to update")
		return
	}

	membership, err := a.service.UpdateMember(ctx, m, paths)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "membership not found")
			return
		}
		a.logger.Errorf("failed to update member: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	jsonResponse(w, http.StatusOK, membershipResponse(membership))
}

func (a *API) removeMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "rights.API.removeMember")
	defer span.End()
	r = r.WithContext(ctx)

	tenantID := chi.URLParam(r, "id")
	if !a.authorizeTenant(w, r, tenantID) {
		return
	}

	if err := a.service.RemoveMember(ctx, tenantID, chi.URLParam(r, "userID")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "membership not found")
			return
		}
		a.logger.Errorf("failed to remove member: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func membershipResponse(m *types.Membership) memberResponse {
	return memberResponse{
		UserID:          m.ProfileID,
		OrgRole:         string(m.OrgRole),
		Status:          string(m.Status),
		AllowedContexts: contextStrings(m.AllowedContexts),
	}
}

func contextStrings(cs []types.Context) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func parseContexts(raw []string) ([]types.Context, bool) {
	out := make([]types.Context, 0, len(raw))
	for _, s := range raw {
		c := types.Context(s)
		if !c.Valid() {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}

func jsonResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]interface{}{
		"status":  status,
		"message": message,
	})
}
