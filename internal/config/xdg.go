package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the XDG directories
const AppName = "dataprotect"

// ConfigDir returns the XDG-compliant config directory
// Typically ~/.config/dataprotect/ on Linux
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json5")
}

// DataDir returns the XDG-compliant data directory
// Typically ~/.local/share/dataprotect/ on Linux; holds the key file
// keyring and the secret store
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
