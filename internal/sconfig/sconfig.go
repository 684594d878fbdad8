// Package sconfig loads the sidecar `.sisyphus/config.yaml` file (§6):
// named environment profiles plus a global variable set, injected into a
// case that omits its own `config.environment`.
package sconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

// Profile is one named environment: a base URL plus its own variables,
// injected at vars.LayerEnvironment.
type Profile struct {
	BaseURL   string         `yaml:"base_url"`
	Variables map[string]any `yaml:"variables,omitempty"`
}

// Config is the sidecar file's top-level shape.
type Config struct {
	Profiles      map[string]Profile `yaml:"profiles,omitempty"`
	ActiveProfile string             `yaml:"active_profile,omitempty"`
	Variables     map[string]any     `yaml:"variables,omitempty"`
}

// Load reads and parses path. A missing file is not an error — the
// caller runs with no sidecar config when none exists (the CLI only
// looks for one at a default location).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, &errs.EngineError{Kind: errs.FileNotFound, Message: "sidecar config could not be read", Detail: err.Error()}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errs.EngineError{Kind: errs.YAMLParseError, Message: "failed to parse sidecar config", Detail: err.Error()}
	}
	return &cfg, nil
}

// ActiveEnvironment resolves profileOverride (falling back to
// cfg.ActiveProfile) into a scenario.Environment, merging the config's
// global variables with the profile's; a profile variable overrides a
// global one of the same name. It returns nil, nil when no
// profile is active and none was requested — the case's own environment
// (if any) then stands alone.
func (c *Config) ActiveEnvironment(profileOverride string) (*scenario.Environment, error) {
	name := c.ActiveProfile
	if profileOverride != "" {
		name = profileOverride
	}
	if name == "" {
		return nil, nil
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q is not defined in the sidecar config", name)
	}

	vars := make(map[string]any, len(c.Variables)+len(profile.Variables))
	for k, v := range c.Variables {
		vars[k] = v
	}
	for k, v := range profile.Variables {
		vars[k] = v
	}

	return &scenario.Environment{Name: name, BaseURL: profile.BaseURL, Variables: vars}, nil
}

// ApplyDefaults injects the active environment into cs.Config when the
// case did not declare its own — "when the scenario omits
// config.environment, the active profile's base_url and variables are
// injected" (§6).
func (c *Config) ApplyDefaults(cs *scenario.Case, profileOverride string) error {
	if cs.Config.Environment != nil {
		return nil
	}
	env, err := c.ActiveEnvironment(profileOverride)
	if err != nil {
		return err
	}
	cs.Config.Environment = env
	return nil
}
