package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "auto", cfg.BackendKind())
	assert.Equal(t, "file", cfg.StoreKind())
	assert.Equal(t, "keychain", cfg.SecretLabel())
	assert.Equal(t, "biometric", cfg.BindingLabel())
	assert.Equal(t, "auto", cfg.SensorKind())
	assert.Equal(t, "auto", cfg.FallbackPolicy())
}

func TestLoadJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	data := `{
		// comments and trailing commas are fine
		backend: "file",
		store: "sqlite",
		key_label: "vault",
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.BackendKind())
	assert.Equal(t, "sqlite", cfg.StoreKind())
	assert.Equal(t, "vault", cfg.SecretLabel())
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte("{backend: "), 0600))

	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestSetGetUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json5")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	require.NoError(t, cfg.Set("store", "sqlite"))
	got, err := cfg.Get("store")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", reloaded.Store)

	require.NoError(t, reloaded.Unset("store"))
	assert.Equal(t, "file", reloaded.StoreKind())

	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Empty(t, again.Store)
}

func TestSetValidates(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	err = cfg.Set("backend", "tpm")
	assert.ErrorContains(t, err, "invalid backend")
	assert.Empty(t, cfg.Backend)

	assert.Error(t, cfg.Set("key_label", ""))
	assert.NoError(t, cfg.Set("key_label", "door"))
}

func TestUnknownKey(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	_, err = cfg.Get("region")
	assert.ErrorContains(t, err, "unknown config key")
	assert.Error(t, cfg.Set("region", "us"))
	assert.Error(t, cfg.Unset("region"))
	_, err = cfg.Get("path")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{
		"auth_label", "backend", "default_output", "fallback", "key_label", "sensor", "store",
	}, Keys())
}

func TestValidate(t *testing.T) {
	for key, values := range Choices {
		for _, v := range values {
			assert.NoError(t, Validate(key, v), key+"="+v)
		}
		assert.Error(t, Validate(key, "bogus"), key)
	}
	assert.NoError(t, Validate("key_label", "anything"))
}
