package config

import "errors"

// Validation errors returned by [Config.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStoreConfigs indicates invalid store location settings
	// (for example, an umask that is not an octal mode).
	ErrInvalidStoreConfigs = errors.New("invalid store configuration")
	// ErrInvalidGPGConfigs indicates invalid gpg delegation settings
	// (for example, an empty binary name).
	ErrInvalidGPGConfigs = errors.New("invalid gpg configuration")
	// ErrInvalidClipboardConfigs indicates invalid clipboard settings
	// (for example, a non-positive clip time).
	ErrInvalidClipboardConfigs = errors.New("invalid clipboard configuration")
)
