package config

import (
	"fmt"
)

const (
	DefaultSeparator      = "\t"
	DefaultComment        = "#"
	DefaultPartitionLimit = 100
	DefaultExprMaxSteps   = 1_000_000
)

// Config is the complete tabletool configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Table         TableConfig     `yaml:"table" mapstructure:"table"`
	Telemetry     TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// TableConfig holds the defaults operators fall back to when their own
// arguments leave a setting open.
type TableConfig struct {
	Separator string `yaml:"separator" mapstructure:"separator"`
	Comment   string `yaml:"comment" mapstructure:"comment"`
	// Null is the sentinel for "no value" in outer joins and absent keys.
	Null           string `yaml:"null_string" mapstructure:"null_string"`
	PartitionLimit int    `yaml:"partition_limit" mapstructure:"partition_limit"`
	ExprMaxSteps   uint64 `yaml:"expr_max_steps" mapstructure:"expr_max_steps"`
}

// TelemetryConfig configures OpenTelemetry export. Nothing is exported
// unless Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

// Enabled reports whether an exporter endpoint is configured.
func (t TelemetryConfig) Enabled() bool { return t.Endpoint != "" }

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Table.Separator == "" {
		c.Table.Separator = DefaultSeparator
	}
	if c.Table.Comment == "" {
		c.Table.Comment = DefaultComment
	}
	if c.Table.PartitionLimit == 0 {
		c.Table.PartitionLimit = DefaultPartitionLimit
	}
	if c.Table.ExprMaxSteps == 0 {
		c.Table.ExprMaxSteps = DefaultExprMaxSteps
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
}

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.Table.PartitionLimit < -1 {
		return fmt.Errorf("table.partition_limit must be -1 (unlimited) or positive (got: %d)", c.Table.PartitionLimit)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0, 1] (got: %g)", c.Telemetry.SampleRatio)
	}
	return nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load resolves, reads and validates the tabletool configuration.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := LoadConfig(AppName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
