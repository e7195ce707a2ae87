// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"io/fs"
	"strconv"
)

// Config is the top-level configuration container for the password store
// library. It aggregates all sub-configurations and is populated by merging
// environment variables with built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type Config struct {
	// Store holds the on-disk location and permission settings of the
	// password store itself.
	Store Store `envPrefix:"PASSWORD_STORE_"`

	// GPG holds settings for the external gpg binary used to decrypt and
	// encrypt store entries.
	GPG GPG `envPrefix:"PASSWORD_STORE_GPG_"`

	// Clipboard holds settings for the transient clipboard copy helper.
	Clipboard Clipboard `envPrefix:"PASSWORD_STORE_"`

	// Audit holds settings for the optional operation journal.
	Audit Audit `envPrefix:"PASSWORD_STORE_AUDIT_"`
}

// Store holds the location and permission settings of the password store.
type Store struct {
	// Dir is the root directory of the password store. A leading "~" is
	// expanded to the current user's home directory during [Load].
	// Env: PASSWORD_STORE_DIR
	Dir string `env:"DIR"`

	// Umask is the octal permission mask applied to files the library
	// creates inside the store (e.g. "077" keeps ciphertext private to the
	// owner).
	// Env: PASSWORD_STORE_UMASK
	Umask string `env:"UMASK"`
}

// ParseUmask interprets the Umask field as an octal permission mask.
// Returns a wrapped [ErrInvalidStoreConfigs] if the value is not a valid
// octal mode.
func (s Store) ParseUmask() (fs.FileMode, error) {
	mask, err := strconv.ParseUint(s.Umask, 8, 32)
	if err != nil || mask > 0o777 {
		return 0, fmt.Errorf("%w: umask %q is not an octal mode", ErrInvalidStoreConfigs, s.Umask)
	}

	return fs.FileMode(mask), nil
}

// GPG holds settings for the external gpg binary.
type GPG struct {
	// Binary is the name or path of the gpg executable to invoke.
	// Env: PASSWORD_STORE_GPG_BINARY
	Binary string `env:"BINARY"`

	// Opts carries extra command-line options appended to every gpg
	// invocation, whitespace-separated (e.g. "--homedir /tmp/gnupg").
	// Env: PASSWORD_STORE_GPG_OPTS
	Opts string `env:"OPTS"`
}

// Clipboard holds settings for the transient clipboard copy helper.
type Clipboard struct {
	// ClipTime is the number of seconds a copied secret stays on the
	// clipboard before it is cleared again.
	// Env: PASSWORD_STORE_CLIP_TIME
	ClipTime int `env:"CLIP_TIME"`
}

// Audit holds settings for the optional operation journal.
type Audit struct {
	// Path is the location of the SQLite journal database. An empty path
	// disables audit recording entirely.
	// Env: PASSWORD_STORE_AUDIT_LOG
	Path string `env:"LOG"`
}

// Load assembles and validates the library configuration from all available
// sources in the following priority order (earlier sources win for non-zero
// fields):
//  1. Environment variables
//  2. Built-in defaults
//
// The environment is re-read on every call; callers must not cache the
// result across operations that should observe environment changes.
//
// Returns a fully populated *Config or an error if a source fails to parse
// or the merged result fails validation.
func Load() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withDefaults().
		build()
}
