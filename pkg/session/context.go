// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"

	"github.com/canonical/rights-portal/internal/access"
)

type contextKey struct{}

var snapshotContextKey = contextKey{}

// WithSnapshot returns a context carrying the resolved session snapshot.
func WithSnapshot(ctx context.Context, snap *access.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey, snap)
}

// SnapshotFromContext retrieves the session snapshot, if one was resolved.
func SnapshotFromContext(ctx context.Context) (*access.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey).(*access.Snapshot)
	return snap, ok
}
