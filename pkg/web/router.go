// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/db"
	"github.com/canonical/rights-portal/internal/identity"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/pkg/guard"
	"github.com/canonical/rights-portal/pkg/metrics"
	"github.com/canonical/rights-portal/pkg/rights"
	"github.com/canonical/rights-portal/pkg/session"
	"github.com/canonical/rights-portal/pkg/status"
	"github.com/canonical/rights-portal/pkg/webhooks"
)

// RouterConfig carries the pieces the router assembles. APIAuth is the
// identity-establishing middleware for the JSON APIs; the module
// surfaces always trust the proxy header and let the guards redirect.
type RouterConfig struct {
	Sessions    session.ServiceInterface
	Rights      rights.ServiceInterface
	Hooks       webhooks.ServiceInterface
	Registry    *access.Registry
	Guard       guard.Config
	DB          db.DBClientInterface
	APIAuth     func(http.Handler) http.Handler
	CORSOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.CORSOrigins),
	)
	router.Use(middlewares...)

	registry := cfg.Registry
	if registry == nil {
		registry = access.DefaultRegistry()
	}

	identityMdw := identity.NewMiddleware(tracer, monitor, logger)
	sessionMdw := session.NewMiddleware(cfg.Sessions, tracer, monitor, logger)
	guards := guard.New(cfg.Guard, registry, tracer, monitor, logger)

	// Unauthenticated endpoints. The webhooks are called by the identity
	// stack, not by users.
	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)
	webhooks.NewAPI(cfg.Hooks).RegisterEndpoints(router)

	// Guarded module surfaces, one subtree per module.
	for _, m := range registry.Modules() {
		router.Mount(m.RoutePrefix, moduleRouter(m, registry, identityMdw, sessionMdw, guards))
	}

	// JSON APIs.
	api := chi.NewMux()
	apiAuth := cfg.APIAuth
	if apiAuth == nil {
		apiAuth = identityMdw.HTTPMiddleware
	}
	api.Use(apiAuth, sessionMdw.Resolve)
	if cfg.DB != nil {
		// Mutating API requests run in a single transaction, rolled back
		// on any response >= 400.
		api.Use(db.TransactionMiddleware(cfg.DB, logger))
	}
	session.NewAPI(cfg.Sessions, registry, tracer, monitor, logger).RegisterEndpoints(api)
	rights.NewAPI(cfg.Rights, registry, tracer, monitor, logger).RegisterEndpoints(api)
	router.Mount("/", api)

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

// moduleRouter serves a module's surface behind the role-home guard: a
// denied visitor is sent to their own home route, never to a bare error.
func moduleRouter(
	m access.Module,
	registry *access.Registry,
	identityMdw *identity.Middleware,
	sessionMdw *session.Middleware,
	guards *guard.Guard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		identityMdw.HTTPMiddleware,
		sessionMdw.Resolve,
		guards.RequireAuthenticated(),
		guards.RequireRoleHome(m.RequiredPermission),
	)

	serve := moduleSurface(m, registry)
	r.Get("/", serve)
	r.Get("/*", serve)
	return r
}

// moduleSurface answers with the module descriptor and the session's
// navigation, which the frontend renders. Surfaces the session cannot
// see are omitted entirely.
func moduleSurface(m access.Module, registry *access.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type navItem struct {
			Name        string `json:"name"`
			RoutePrefix string `json:"route_prefix"`
			NavLabel    string `json:"nav_label"`
		}

		nav := []navItem{}
		if snap, ok := session.SnapshotFromContext(r.Context()); ok {
			resolver := access.NewResolver(snap, registry)
			for _, vm := range resolver.VisibleModules() {
				nav = append(nav, navItem{Name: vm.Name, RoutePrefix: vm.RoutePrefix, NavLabel: vm.NavLabel})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"module":     m.Name,
			"nav_label":  m.NavLabel,
			"navigation": nav,
		})
	}
}
