package config

import (
	"github.com/fnkit/fnkit/backend"
	"github.com/fnkit/fnkit/logger"
	"github.com/fnkit/fnkit/validation"
)

// BackendSettings tunes one registered backend. Nil fields leave the
// registry value untouched.
type BackendSettings struct {
	Threshold *int  `yaml:"threshold" mapstructure:"threshold" validate:"omitempty,min=0"`
	Enabled   *bool `yaml:"enabled" mapstructure:"enabled"`
}

// Config is the full engine configuration.
type Config struct {
	Logging  logger.Config              `yaml:"logging" mapstructure:"logging"`
	Backends map[string]BackendSettings `yaml:"backends" mapstructure:"backends" validate:"dive"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()
}

// Validate checks field constraints and the logging section.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return validation.Struct(c)
}

// Apply pushes the backend settings into a registry. Unknown backend names
// and negative thresholds surface as configuration errors.
func (c *Config) Apply(reg *backend.Registry) error {
	for name, s := range c.Backends {
		if s.Threshold != nil {
			if err := reg.SetThreshold(name, *s.Threshold); err != nil {
				return err
			}
		}
		if s.Enabled == nil {
			continue
		}
		var err error
		if *s.Enabled {
			err = reg.Enable(name)
		} else {
			err = reg.Disable(name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
