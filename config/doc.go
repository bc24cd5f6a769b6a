// Package config loads tabletool configuration.
//
// Values come from a YAML file (explicit path, ./tabletool.yml,
// ./config/tabletool.yml or the user config directory), then from
// TABLETOOL_* environment variables, optionally supplied through a .env
// file. Nested keys are separated by underscores:
//
//	TABLETOOL_TABLE_SEPARATOR=","      -> table.separator
//	TABLETOOL_LOGGING_LEVEL=debug      -> logging.level
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("pipeline.yml"))
package config
