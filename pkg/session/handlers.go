// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
	"github.com/canonical/rights-portal/pkg/authentication"
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
	mux.Get("/api/v0/session", a.getSession)
	mux.Post("/api/v0/session/tenant", a.setActiveTenant)
	mux.Post("/api/v0/session/context", a.setActiveContext)
	mux.Delete("/api/v0/session", a.signOut)
}

type membershipResponse struct {
	TenantID        string   `json:"tenant_id"`
	OrgRole         string   `json:"org_role"`
	Status          string   `json:"status"`
	AllowedContexts []string `json:"allowed_contexts"`
}

type moduleResponse struct {
	Name        string `json:"name"`
	RoutePrefix string `json:"route_prefix"`
	NavLabel    string `json:"nav_label"`
}

type sessionResponse struct {
	Email          string               `json:"email"`
	PlatformRole   string               `json:"platform_role"`
	Status         string               `json:"status"`
	ActiveTenantID string               `json:"active_tenant_id,omitempty"`
	ActiveContext  string               `json:"active_context,omitempty"`
	Memberships    []membershipResponse `json:"memberships"`
	VisibleModules []moduleResponse     `json:"visible_modules"`
}

type setTenantRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
}

type setContextRequest struct {
	Context string `json:"context" validate:"required"`
}

func (a *API) sessionResponse(snap *access.Snapshot) *sessionResponse {
	resp := &sessionResponse{
		Email:          snap.Profile.Email,
		PlatformRole:   string(snap.Profile.PlatformRole),
		Status:         string(snap.Profile.Status),
		ActiveContext:  string(snap.ActiveContext),
		Memberships:    []membershipResponse{},
		VisibleModules: []moduleResponse{},
	}
	if snap.ActiveMembership != nil {
		resp.ActiveTenantID = snap.ActiveMembership.TenantID
	}

	for _, m := range snap.Memberships {
		contexts := make([]string, len(m.AllowedContexts))
		for i, c := range m.AllowedContexts {
			contexts[i] = string(c)
		}
		resp.Memberships = append(resp.Memberships, membershipResponse{
			TenantID:        m.TenantID,
			OrgRole:         string(m.OrgRole),
			Status:          string(m.Status),
			AllowedContexts: contexts,
		})
	}

	resolver := access.NewResolver(snap, a.registry)
	for _, m := range resolver.VisibleModules() {
		resp.VisibleModules = append(resp.VisibleModules, moduleResponse{
			Name:        m.Name,
			RoutePrefix: m.RoutePrefix,
			NavLabel:    m.NavLabel,
		})
	}

	return resp
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.getSession")
	defer span.End()

	identityID, ok := authentication.GetUserID(ctx)
	if !ok || identityID == "" {
		errorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	snap, err := a.service.Snapshot(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			errorResponse(w, http.StatusForbidden, "access error")
			return
		}
		a.logger.Errorf("failed to load session: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	jsonResponse(w, http.StatusOK, a.sessionResponse(snap))
}

func (a *API) setActiveTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.setActiveTenant")
	defer span.End()

	identityID, ok := authentication.GetUserID(ctx)
	if !ok || identityID == "" {
		errorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req setTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, "tenant_id must be a UUID")
		return
	}

	snap, err := a.service.SetActiveTenant(ctx, identityID, req.TenantID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProfile):
			errorResponse(w, http.StatusForbidden, "access error")
		case errors.Is(err, ErrNoSuchMembership):
			errorResponse(w, http.StatusConflict, "no membership for tenant")
		default:
			a.logger.Errorf("failed to set active tenant: %v", err)
			errorResponse(w, http.StatusInternalServerError, "failed to switch tenant")
		}
		return
	}

	jsonResponse(w, http.StatusOK, a.sessionResponse(snap))
}

func (a *API) setActiveContext(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.setActiveContext")
	defer span.End()

	identityID, ok := authentication.GetUserID(ctx)
	if !ok || identityID == "" {
		errorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req setContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := types.Context(req.Context)
	if !c.Valid() {
		errorResponse(w, http.StatusBadRequest, "unknown context")
		return
	}

	snap, err := a.service.SetActiveContext(ctx, identityID, c)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProfile):
			errorResponse(w, http.StatusForbidden, "access error")
		case errors.Is(err, ErrContextNotAllowed):
			errorResponse(w, http.StatusConflict, "context not allowed")
		default:
			a.logger.Errorf("failed to set active context: %v", err)
			errorResponse(w, http.StatusInternalServerError, "failed to switch context")
		}
		return
	}

	jsonResponse(w, http.StatusOK, a.sessionResponse(snap))
}

func (a *API) signOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.signOut")
	defer span.End()

	identityID, ok := authentication.GetUserID(ctx)
	if !ok || identityID == "" {
		errorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := a.service.SignOut(ctx, identityID); err != nil {
		a.logger.Errorf("failed to sign out: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to sign out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
