// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry_UniqueNamesAndPrefixes(t *testing.T) {
	registry := DefaultRegistry()

	names := make(map[string]bool)
	prefixes := make(map[string]bool)
	for _, m := range registry.Modules() {
		if names[m.Name] {
			t.Errorf("duplicate module name %q", m.Name)
		}
		if prefixes[m.RoutePrefix] {
			t.Errorf("duplicate route prefix %q", m.RoutePrefix)
		}
		names[m.Name] = true
		prefixes[m.RoutePrefix] = true

		if m.RequiredPermission == "" {
			t.Errorf("module %q has no required permission", m.Name)
		}
	}
}

func TestNewRegistryFromFile(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name        string
		content     string
		expectErr   bool
		checkLabels map[string]string
	}{
		{
			name:        "relabel",
			content:     "modules:\n  - name: licensing\n    nav_label: Licences\n",
			checkLabels: map[string]string{"licensing": "Licences", "portal": "Portal"},
		},
		{
			name:      "unknown module",
			content:   "modules:\n  - name: nonexistent\n    nav_label: Nope\n",
			expectErr: true,
		},
		{
			name:      "malformed yaml",
			content:   "modules: [\n",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatal(err)
			}

			registry, err := NewRegistryFromFile(path)
			if tc.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for name, label := range tc.checkLabels {
				m, ok := registry.Lookup(name)
				if !ok {
					t.Fatalf("module %q missing", name)
				}
				if m.NavLabel != label {
					t.Errorf("module %q label = %q, expected %q", name, m.NavLabel, label)
				}
			}
		})
	}
}

func TestNewRegistryFromFile_MissingFile(t *testing.T) {
	if _, err := NewRegistryFromFile("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRegistryOverlayCannotChangeGating(t *testing.T) {
	// Overlay entries only carry labels; prefixes and permissions stay
	// compiled in even when the overlay is applied.
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	content := "modules:\n  - name: console\n    nav_label: Ops Console\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	registry, err := NewRegistryFromFile(path)
	if err != nil {
		t.Fatal(err)
	}

	m, _ := registry.Lookup("console")
	if m.RoutePrefix != "/console" || m.RequiredPermission != PermPlatformAdmin {
		t.Errorf("overlay changed gating: %+v", m)
	}
}
