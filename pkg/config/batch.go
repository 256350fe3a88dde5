// Package config loads the portless.yaml batch file, letting a user
// declare several named commands to launch together in one call to
// `portless batch`.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BatchConfig is the top-level shape of a portless.yaml file.
type BatchConfig struct {
	Services map[string]ServiceConfig `yaml:"services"`
}

// ServiceConfig describes one entry of a batch run: the command to
// launch and, optionally, the hostname to register it under (defaulting
// to the map key when empty).
type ServiceConfig struct {
	Cmd  string `yaml:"cmd"`
	Name string `yaml:"name"`
}

// LoadBatch reads and parses a portless.yaml batch file from path.
func LoadBatch(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg BatchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(cfg.Services) == 0 {
		return nil, fmt.Errorf("config: %s declares no services", path)
	}

	for key, svc := range cfg.Services {
		if svc.Cmd == "" {
			return nil, fmt.Errorf("config: service %q has no cmd", key)
		}
		if svc.Name == "" {
			svc.Name = key
			cfg.Services[key] = svc
		}
	}

	return &cfg, nil
}
