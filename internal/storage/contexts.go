// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/canonical/rights-portal/internal/types"
)

// contextList maps the allowed_contexts text[] column onto the closed
// Context enum. Values never contain commas, quotes, or braces, so the
// array literal can be split naively.
type contextList []types.Context

func (c *contextList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into contextList", src)
	}

	raw = strings.Trim(raw, "{}")
	if raw == "" {
		*c = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(contextList, 0, len(parts))
	for _, p := range parts {
		out = append(out, types.Context(strings.TrimSpace(p)))
	}
	*c = out
	return nil
}

func (c contextList) Value() (driver.Value, error) {
	if len(c) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = string(v)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}
