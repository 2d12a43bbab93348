package keystore

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
)

// Backend kinds accepted by OpenSystem.
const (
	KindAuto    = "auto"
	KindKeyring = "keyring"
	KindFile    = "file"
	KindMemory  = "memory"
)

// PasswordEnv supplies the file keyring password without prompting.
const PasswordEnv = "DPROT_KEYRING_PASSWORD"

// OpenSystem returns the Backend for kind, rooted at dir.
//
// "auto" uses the native OS keyring, except under WSL or without a display
// server where the keyring's encrypted-file backend is used instead. If the
// native keyring cannot be opened "auto" also falls back to the file backend.
func OpenSystem(kind, dir string, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch kind {
	case KindMemory:
		logger.Warn("using in-memory keystore, keys will not persist")
		return NewMemoryBackend(), nil
	case KindFile:
		return openFile(dir, logger)
	case KindKeyring:
		return openNative(dir, logger)
	case KindAuto, "":
		if IsWSL() || IsHeadless() {
			logger.Info("detected WSL/headless environment, using encrypted file keystore")
			return openFile(dir, logger)
		}
		b, err := openNative(dir, logger)
		if err != nil {
			logger.Warn("keyring unavailable, falling back to encrypted file keystore", zap.Error(err))
			return openFile(dir, logger)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown keystore backend: %s", kind)
	}
}

func openFile(dir string, logger *zap.Logger) (Backend, error) {
	password := keyring.TerminalPrompt
	if p := os.Getenv(PasswordEnv); p != "" {
		password = keyring.FixedStringPrompt(p)
	}
	return OpenKeyring(KeyringConfig{
		Backends: []keyring.BackendType{keyring.FileBackend},
		Dir:      dir,
		Password: password,
	}, logger)
}

func openNative(dir string, logger *zap.Logger) (Backend, error) {
	native := nativeBackends()
	if len(native) == 0 {
		return nil, fmt.Errorf("open keyring: %w", keyring.ErrNoAvailImpl)
	}
	return OpenKeyring(KeyringConfig{Backends: native, Dir: dir}, logger)
}

func nativeBackends() []keyring.BackendType {
	var native []keyring.BackendType
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			native = append(native, b)
		}
	}
	return native
}

// IsWSL returns true if running under Windows Subsystem for Linux.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// IsHeadless returns true if running in a headless environment (no display server).
// Only applicable on Linux; macOS and Windows are assumed to have GUI.
func IsHeadless() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
