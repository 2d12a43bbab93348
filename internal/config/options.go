package config

import (
	"fmt"
	"strings"
)

// Defaults for unset keys
const (
	DefaultBackend   = "auto"
	DefaultStore     = "file"
	DefaultKeyLabel  = "keychain"
	DefaultAuthLabel = "biometric"
	DefaultSensor    = "auto"
	DefaultFallback  = "auto"
)

// Choices maps keys with a closed value set to their valid values.
// Keys not listed accept any value.
var Choices = map[string][]string{
	"backend":        {"auto", "keyring", "file", "memory"},
	"store":          {"file", "sqlite", "memory"},
	"sensor":         {"auto", "fprintd", "none"},
	"fallback":       {"auto", "request", "never"},
	"default_output": {"auto", "json", "plain", "rich"},
}

// Validate checks value against the choices for key
func Validate(key, value string) error {
	valid, ok := Choices[key]
	if !ok {
		if value == "" && (key == "key_label" || key == "auth_label") {
			return fmt.Errorf("%s must not be empty", key)
		}
		return nil
	}
	for _, v := range valid {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (valid: %s)", key, value, strings.Join(valid, ", "))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// BackendKind returns the keystore backend, defaulting to auto
func (c *Config) BackendKind() string { return orDefault(c.Backend, DefaultBackend) }

// StoreKind returns the secret store backend, defaulting to file
func (c *Config) StoreKind() string { return orDefault(c.Store, DefaultStore) }

// SecretLabel returns the keystore label secrets are sealed under
func (c *Config) SecretLabel() string { return orDefault(c.KeyLabel, DefaultKeyLabel) }

// BindingLabel returns the keystore label that binds auth challenges
func (c *Config) BindingLabel() string { return orDefault(c.AuthLabel, DefaultAuthLabel) }

// SensorKind returns the fingerprint sensor setting
func (c *Config) SensorKind() string { return orDefault(c.Sensor, DefaultSensor) }

// FallbackPolicy returns the device-credential fallback policy
func (c *Config) FallbackPolicy() string { return orDefault(c.Fallback, DefaultFallback) }
