// Package config loads the pattern engine configuration from patterns.yaml
// and PATTERNS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/canvas-infra/patterns/internal/layout"
	"github.com/canvas-infra/patterns/internal/workspace"
)

// EnvPrefix prefixes every environment override, e.g. PATTERNS_DEPLOY_LAYOUT.
const EnvPrefix = "PATTERNS"

// Config holds the configuration for the pattern engine.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=json text"`
	} `mapstructure:"log"`
	Deploy struct {
		Layout              string  `mapstructure:"layout" validate:"omitempty,oneof=grid hierarchical circular"`
		Naming              string  `mapstructure:"naming" validate:"oneof=preserve prefix increment"`
		Prefix              string  `mapstructure:"prefix"`
		AutoLayout          bool    `mapstructure:"auto_layout"`
		CheckConflicts      bool    `mapstructure:"check_conflicts"`
		Validate            bool    `mapstructure:"validate"`
		ValidateConnections bool    `mapstructure:"validate_connections"`
		PreserveExisting    bool    `mapstructure:"preserve_existing"`
		SpacingX            float64 `mapstructure:"spacing_x" validate:"gte=0"`
		SpacingY            float64 `mapstructure:"spacing_y" validate:"gte=0"`
	} `mapstructure:"deploy"`
	Batch struct {
		Mode        string `mapstructure:"mode" validate:"oneof=sequential parallel"`
		MaxParallel int    `mapstructure:"max_parallel" validate:"gte=0"`
		Snapshot    bool   `mapstructure:"snapshot"`
	} `mapstructure:"batch"`
	Library struct {
		Builtins bool     `mapstructure:"builtins"`
		Paths    []string `mapstructure:"paths"`
	} `mapstructure:"library"`
	Export struct {
		Provider string `mapstructure:"provider" validate:"oneof=aws azure gcp"`
	} `mapstructure:"export"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("deploy.layout", "")
	v.SetDefault("deploy.naming", string(workspace.NamingPreserve))
	v.SetDefault("deploy.prefix", "")
	v.SetDefault("deploy.auto_layout", false)
	v.SetDefault("deploy.check_conflicts", true)
	v.SetDefault("deploy.validate", true)
	v.SetDefault("deploy.validate_connections", true)
	v.SetDefault("deploy.preserve_existing", true)
	v.SetDefault("deploy.spacing_x", layout.DefaultSpacing.X)
	v.SetDefault("deploy.spacing_y", layout.DefaultSpacing.Y)
	v.SetDefault("batch.mode", string(workspace.BatchSequential))
	v.SetDefault("batch.max_parallel", 0)
	v.SetDefault("batch.snapshot", true)
	v.SetDefault("library.builtins", true)
	v.SetDefault("library.paths", []string{})
	v.SetDefault("export.provider", "aws")
}

// Load reads the configuration. An empty path searches patterns.yaml in the
// working directory and ./config; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("patterns")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Export.Provider = strings.ToLower(cfg.Export.Provider)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// DeployOptions maps the deploy section onto workspace options.
func (c *Config) DeployOptions() workspace.DeployOptions {
	d := c.Deploy
	opts := workspace.DeployOptions{
		Validate:            d.Validate,
		CheckConflicts:      d.CheckConflicts,
		ValidateConnections: d.ValidateConnections,
		PreserveExisting:    d.PreserveExisting,
		Naming:              workspace.NamingStrategy(d.Naming),
		Prefix:              d.Prefix,
		AutoLayout:          d.AutoLayout,
		Layout:              d.Layout,
	}
	if d.SpacingX > 0 || d.SpacingY > 0 {
		opts.Spacing = &layout.Spacing{X: d.SpacingX, Y: d.SpacingY}
	}
	return opts
}

// BatchOptions maps the batch section onto workspace options.
func (c *Config) BatchOptions() workspace.BatchOptions {
	return workspace.BatchOptions{
		Mode:        workspace.BatchMode(c.Batch.Mode),
		Snapshot:    c.Batch.Snapshot,
		MaxParallel: c.Batch.MaxParallel,
		Deploy:      c.DeployOptions(),
	}
}
