package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/imdario/mergo"
)

var validate = validator.New()

// Load reads the YAML file at path and fills unset fields from Default.
// An empty path yields the defaults alone.
func Load(path string) (Config, error) {
	var (
		cfg      Config
		explicit explicitZeros
	)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &explicit); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return cfg, fmt.Errorf("merge defaults: %w", err)
	}
	explicit.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// explicitZeros captures fields where a written zero means "off" rather than
// "unset". mergo cannot tell the two apart.
type explicitZeros struct {
	Schedule struct {
		Stagger *time.Duration `yaml:"stagger"`
	} `yaml:"schedule"`
}

func (e explicitZeros) apply(cfg *Config) {
	if e.Schedule.Stagger != nil {
		cfg.Schedule.Stagger = *e.Schedule.Stagger
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	return nil
}
