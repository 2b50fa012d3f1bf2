// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"errors"
	"net/http"

	"github.com/canonical/rights-portal/internal/logging"
	"github.com/canonical/rights-portal/internal/monitoring"
	"github.com/canonical/rights-portal/internal/tracing"
	"github.com/canonical/rights-portal/pkg/authentication"
)

type Middleware struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		service: service,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// Resolve attaches the session snapshot for the authenticated identity to
// the request context. Requests without an identity, or without a profile,
// pass through untouched; downstream guards decide what that means.
func (m *Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "session.Middleware.Resolve")
		defer span.End()

		identityID, ok := authentication.GetUserID(ctx)
		if !ok || identityID == "" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		snap, err := m.service.Snapshot(ctx, identityID)
		if err != nil {
			if !errors.Is(err, ErrNoProfile) {
				m.logger.Errorf("failed to resolve session for request: %v", err)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSnapshot(ctx, snap)))
	})
}
