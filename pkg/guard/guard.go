// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package guard gates page subtrees on the session snapshot resolved
// upstream. Guards are deterministic and side-effect-free: identical
// snapshots always produce identical routing decisions, and every denial
// is a redirect with no detail about which rule failed.
package guard

import (
	"context"
	"net/http"
	"net/url"

	"github.com/canonical/rights-portal/internal/access"
	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/internal/types"
	"github.com/canonical/rights-portal/pkg/authentication"
	"github.com/canonical/rights-portal/pkg/session"
)

// Config carries the redirect surfaces. All three have sensible defaults
// from the environment spec.
type Config struct {
	SignInURL      string
	AccessErrorURL string
	RestrictedURL  string
}

type Guard struct {
	cfg      Config
	registry *access.Registry

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func New(cfg Config, registry *access.Registry, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Guard {
	if registry == nil {
		registry = access.DefaultRegistry()
	}
	return &Guard{
		cfg:      cfg,
		registry: registry,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// RequireAuthenticated redirects anonymous requests to sign-in, carrying
// the originally requested location for the post-login return.
func (g *Guard) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "guard.Guard.RequireAuthenticated")
			defer span.End()

			if id, ok := authentication.GetUserID(ctx); !ok || id == "" {
				g.redirectToSignIn(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a capability inside a module. Account-state
// failures land on the generic access-error surface; a valid but
// insufficient session lands on the restricted surface, which offers a
// request-access affordance.
func (g *Guard) RequirePermission(p access.Permission) func(http.Handler) http.Handler {
	return g.require(p, func(w http.ResponseWriter, r *http.Request, _ *access.Resolver) {
		http.Redirect(w, r, g.cfg.RestrictedURL, http.StatusSeeOther)
	})
}

// RequireRoleHome gates a role-scoped surface. A legitimate user who
// lacks it is routed to their own home surface rather than an error
// page, so a licensing-gated route sends a publishing-only admin to
// their publishing home.
func (g *Guard) RequireRoleHome(p access.Permission) func(http.Handler) http.Handler {
	return g.require(p, func(w http.ResponseWriter, r *http.Request, resolver *access.Resolver) {
		if home, ok := resolver.HomeRoute(); ok {
			http.Redirect(w, r, home, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, g.cfg.AccessErrorURL, http.StatusSeeOther)
	})
}

// RequireContext gates a subtree on the active operating context.
func (g *Guard) RequireContext(c types.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "guard.Guard.RequireContext")
			defer span.End()

			resolver, state := g.resolve(ctx)
			switch state {
			case stateUnauthenticated:
				g.redirectToSignIn(w, r)
			case stateAccountError:
				http.Redirect(w, r, g.cfg.AccessErrorURL, http.StatusSeeOther)
			default:
				if !resolver.CanAccessContext(c) {
					http.Redirect(w, r, g.cfg.RestrictedURL, http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

type guardState int

const (
	stateUnauthenticated guardState = iota
	stateAccountError
	stateResolved
)

// resolve classifies the request's session. The no-profile and inactive
// cases collapse into one state so user-visible behavior cannot be used
// to enumerate account states.
func (g *Guard) resolve(ctx context.Context) (*access.Resolver, guardState) {
	id, ok := authentication.GetUserID(ctx)
	if !ok || id == "" {
		return nil, stateUnauthenticated
	}

	snap, ok := session.SnapshotFromContext(ctx)
	if !ok || snap.Profile == nil {
		g.logger.Security().AccountStateDenied(id)
		return nil, stateAccountError
	}
	if snap.Profile.Status != types.StatusActive {
		g.logger.Security().AccountStateDenied(id)
		return nil, stateAccountError
	}

	return access.NewResolver(snap, g.registry), stateResolved
}

func (g *Guard) require(p access.Permission, onForbidden func(http.ResponseWriter, *http.Request, *access.Resolver)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "guard.Guard.require")
			defer span.End()

			resolver, state := g.resolve(ctx)
			switch state {
			case stateUnauthenticated:
				g.redirectToSignIn(w, r)
			case stateAccountError:
				http.Redirect(w, r, g.cfg.AccessErrorURL, http.StatusSeeOther)
			default:
				if !resolver.HasPermission(p) {
					if id, ok := authentication.GetUserID(ctx); ok {
						g.logger.Security().AuthzFailure(id, string(p))
					}
					onForbidden(w, r, resolver)
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func (g *Guard) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	target := g.cfg.SignInURL + "?return_to=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}
