// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package passstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MKhiriev/go-pass-store/audit"
	"github.com/MKhiriev/go-pass-store/crypto"
	"github.com/MKhiriev/go-pass-store/internal/config"
	"github.com/MKhiriev/go-pass-store/internal/logger"
	"github.com/MKhiriev/go-pass-store/models"
)

// Store provides access to one password store rooted at a fixed directory.
// It composes the tree walk, recipient resolution, and file-handle
// acquisition behind a single facade, and tracks open write handles so that
// each path has at most one writer at a time.
//
// A Store is safe for concurrent use; the handles it produces are not.
type Store struct {
	root   string
	umask  fs.FileMode
	engine crypto.Engine
	log    *logger.Logger
	rec    audit.Recorder

	mu      sync.Mutex
	writers map[models.StorePath]string // path -> id of the open write handle
}

// Option customizes a Store during [Open] or [OpenAt].
type Option func(*Store)

// WithEngine replaces the default gpg delegation engine, e.g. with a
// [crypto.Keychain] for gpg-less environments.
func WithEngine(e crypto.Engine) Option {
	return func(s *Store) { s.engine = e }
}

// WithLogger attaches a logger; without it the store is silent.
func WithLogger(zl zerolog.Logger) Option {
	return func(s *Store) { s.log = &logger.Logger{Logger: zl} }
}

// WithRecorder replaces the audit recorder the environment configured
// (PASSWORD_STORE_AUDIT_LOG). Use [audit.Nop] to force auditing off.
func WithRecorder(r audit.Recorder) Option {
	return func(s *Store) { s.rec = r }
}

// Open resolves the store root from the environment (PASSWORD_STORE_DIR if
// set, ~/.password-store otherwise) and opens the store found there. Fails
// with [ErrStoreNotFound] when the root does not exist or is not a
// directory.
func Open(ctx context.Context, opts ...Option) (*Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return open(ctx, cfg, cfg.Store.Dir, opts)
}

// OpenAt opens the store rooted at dir, ignoring PASSWORD_STORE_DIR. All
// remaining settings (gpg binary, umask, audit journal) still come from the
// environment.
func OpenAt(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return open(ctx, cfg, dir, opts)
}

func open(ctx context.Context, cfg *config.Config, root string, opts []Option) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, root)
	}

	umask, err := cfg.Store.ParseUmask()
	if err != nil {
		return nil, err
	}

	s := &Store{
		root:    filepath.Clean(root),
		umask:   umask,
		log:     logger.Nop(),
		writers: make(map[models.StorePath]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine = crypto.NewGPG(cfg.GPG.Binary, cfg.GPG.Opts)
	}
	if s.rec == nil {
		s.rec = audit.Nop()
		if cfg.Audit.Path != "" {
			// Journal trouble must not block store access.
			ledger, err := audit.Open(ctx, cfg.Audit.Path)
			if err != nil {
				s.log.Warn().Err(err).Str("path", cfg.Audit.Path).Msg("audit journal unavailable, continuing without")
			} else {
				s.rec = ledger
			}
		}
	}

	s.log.Debug().Str("root", s.root).Msg("store opened")
	return s, nil
}

// Root returns the absolute directory this store is bound to.
func (s *Store) Root() string { return s.root }

// Recorder returns the audit recorder the store journals to, so adjacent
// components (the clipboard copier, for one) can share the journal.
func (s *Store) Recorder() audit.Recorder { return s.rec }

// Close releases resources held by the store itself (the audit journal).
// Handles already produced stay usable; they carry their own references.
func (s *Store) Close() error {
	return s.rec.Close()
}

// acquireWriter claims the per-path writer slot for the handle id.
func (s *Store) acquireWriter(p models.StorePath, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if holder, open := s.writers[p]; open {
		return fmt.Errorf("%w: %s (handle %s)", ErrAlreadyOpenForWrite, p, holder)
	}
	s.writers[p] = id
	return nil
}

// releaseWriter frees the per-path writer slot, but only for the handle
// that holds it: a stale release must not evict a newer handle.
func (s *Store) releaseWriter(p models.StorePath, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writers[p] == id {
		delete(s.writers, p)
	}
}

// absPath maps a logical path onto the filesystem below the store root.
func (s *Store) absPath(p models.StorePath) string {
	if p.IsRoot() {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(p.String()))
}

// cipherPath locates the on-disk ciphertext of the file entry at p.
func (s *Store) cipherPath(p models.StorePath) string {
	return s.absPath(p) + cipherExt
}

// record journals one finished operation. Recording is best-effort: a
// journal failure is logged and otherwise ignored, store operations never
// fail because auditing failed.
func (s *Store) record(ctx context.Context, op string, path models.StorePath, handleID string, opErr error) {
	e := audit.NewEvent(op, path.String(), handleID, opErr)
	if err := s.rec.Record(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("op", op).Str("path", e.Path).Msg("audit record failed")
	}
}

// newID mints a time-sortable handle identifier, falling back to a random
// UUID if the v7 generator fails.
func newID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
