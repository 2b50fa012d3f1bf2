// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Module is one top-level application area, gated by a single permission.
type Module struct {
	Name               string     `yaml:"name"`
	RoutePrefix        string     `yaml:"-"`
	NavLabel           string     `yaml:"nav_label"`
	RequiredPermission Permission `yaml:"-"`
}

// defaultModules is the compiled-in module table. Declaration order is
// navigation order.
var defaultModules = []Module{
	{Name: "portal", RoutePrefix: "/portal", NavLabel: "Portal", RequiredPermission: PermPortalView},
	{Name: "records", RoutePrefix: "/records", NavLabel: "Rights Records", RequiredPermission: PermRecordsView},
	{Name: "publishing", RoutePrefix: "/publishing", NavLabel: "Publishing", RequiredPermission: PermPublishingView},
	{Name: "licensing", RoutePrefix: "/licensing", NavLabel: "Licensing", RequiredPermission: PermLicensingView},
	{Name: "admin", RoutePrefix: "/admin", NavLabel: "Administration", RequiredPermission: PermAdminView},
	{Name: "audit", RoutePrefix: "/audit", NavLabel: "Audit", RequiredPermission: PermAuditView},
	{Name: "console", RoutePrefix: "/console", NavLabel: "System Console", RequiredPermission: PermPlatformAdmin},
	{Name: "support", RoutePrefix: "/support", NavLabel: "Help Workstation", RequiredPermission: PermSupportWorkstation},
}

// Registry holds the module table. Route prefixes and gating permissions
// are compiled in; an overlay file may only adjust navigation labels.
type Registry struct {
	modules []Module
}

func (r *Registry) Modules() []Module {
	return r.modules
}

// Lookup finds a module by name.
func (r *Registry) Lookup(name string) (Module, bool) {
	for _, m := range r.modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

func DefaultRegistry() *Registry {
	ms := make([]Module, len(defaultModules))
	copy(ms, defaultModules)
	return &Registry{modules: ms}
}

type overlayFile struct {
	Modules []struct {
		Name     string `yaml:"name"`
		NavLabel string `yaml:"nav_label"`
	} `yaml:"modules"`
}

// NewRegistryFromFile builds the default registry with nav labels
// overridden from a YAML overlay. An overlay entry naming an unknown
// module is an error so typos do not silently drop relabels.
func NewRegistryFromFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module overlay: %w", err)
	}

	var overlay overlayFile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse module overlay: %w", err)
	}

	registry := DefaultRegistry()
	for _, o := range overlay.Modules {
		found := false
		for i := range registry.modules {
			if registry.modules[i].Name == o.Name {
				if o.NavLabel != "" {
					registry.modules[i].NavLabel = o.NavLabel
				}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("module overlay references unknown module %q", o.Name)
		}
	}

	return registry, nil
}
