// Package modules exposes the installed/enabled module registry the
// exclusion UI draws its candidates from.
package modules

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Module describes one installed site module.
type Module struct {
	Name    string `yaml:"name" json:"name"`
	Title   string `yaml:"title" json:"title"`
	Version string `yaml:"version" json:"version"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// Lister provides the enabled modules available for exclusion.
type Lister interface {
	// Enabled returns every enabled module, in manifest order.
	Enabled(ctx context.Context) ([]Module, error)
}

// Registry is a manifest-backed Lister. The manifest is a YAML file listing
// the modules deployed on the site; it is maintained by the deploy pipeline,
// not by this service.
type Registry struct {
	manifestPath string
}

// NewRegistry creates a registry reading from the given manifest path.
func NewRegistry(manifestPath string) *Registry {
	return &Registry{manifestPath: manifestPath}
}

// Enabled returns the enabled modules from the manifest.
func (r *Registry) Enabled(_ context.Context) ([]Module, error) {
	data, err := os.ReadFile(r.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading module manifest: %w", err)
	}

	var manifest struct {
		Modules []Module `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing module manifest: %w", err)
	}

	enabled := make([]Module, 0, len(manifest.Modules))
	for _, m := range manifest.Modules {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled, nil
}
