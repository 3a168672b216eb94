package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// projectConfig is the shape of velox.yaml, the optional per-project
// file: import search paths beyond the running script's own directory,
// and the subset of registered hooks a script is allowed to call (an
// empty list means "no restriction").
type projectConfig struct {
	ImportPaths []string `yaml:"importPaths"`
	Hooks       []string `yaml:"hooks"`
}

// loadProjectConfig reads path if it exists, returning a zero-value
// projectConfig (no restrictions, no extra search paths) if it doesn't —
// velox.yaml is optional.
func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// allows reports whether hookName may be called, per Hooks: an empty list
// permits everything, matching "no velox.yaml" behavior.
func (c projectConfig) allows(hookName string) bool {
	if len(c.Hooks) == 0 {
		return true
	}
	for _, h := range c.Hooks {
		if h == hookName {
			return true
		}
	}
	return false
}
