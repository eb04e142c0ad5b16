// Package config loads fnkit engine configuration from files and
// environment variables.
//
// It uses Viper to read an optional fnkit.yml, layers FNKIT_* environment
// variables (and a .env file when present) on top, validates the result,
// and applies backend settings to a registry:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Apply(backend.Default()); err != nil { ... }
//
// Environment variables override file values, e.g. FNKIT_LOGGING_LEVEL=debug
// or FNKIT_BACKENDS_NATIVE_THRESHOLD=1024.
package config
