// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks that the final merged [Config] satisfies all library
// invariants before it is handed to callers.
//
// Returns nil if the configuration is valid, or a descriptive error
// wrapping one of the sentinel validation errors otherwise.
func (cfg *Config) validate() error {
	if _, err := cfg.Store.ParseUmask(); err != nil {
		return err
	}

	if cfg.GPG.Binary == "" {
		return fmt.Errorf("%w: gpg binary name is empty", ErrInvalidGPGConfigs)
	}

	if cfg.Clipboard.ClipTime <= 0 {
		return fmt.Errorf("%w: clip time %d is not positive", ErrInvalidClipboardConfigs, cfg.Clipboard.ClipTime)
	}

	return nil
}
