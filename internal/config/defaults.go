package config

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultStoreDir is the conventional password store location, relative to
// the user's home directory.
const defaultStoreDir = "~/.password-store"

// defaultConfig returns the built-in fallback values merged underneath the
// environment by [Load]. Audit stays zero: the journal is opt-in.
func defaultConfig() *Config {
	return &Config{
		Store: Store{
			Dir:   defaultStoreDir,
			Umask: "077",
		},
		GPG: GPG{
			Binary: "gpg",
		},
		Clipboard: Clipboard{
			ClipTime: 45,
		},
	}
}

// expandTilde replaces a leading "~" path component with the current user's
// home directory. Paths not starting with "~" are returned unchanged.
func expandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
