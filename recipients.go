package passstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-pass-store/audit"
	"github.com/MKhiriev/go-pass-store/models"
)

// Recipients resolves the recipient set governing path: the declaration in
// the nearest enclosing directory that has one, walking from the entry's
// own directory up to the store root. Levels are never merged. path may
// name a file, a directory, or the root; it does not have to exist yet, so
// callers can ask where a new entry would be encrypted to before creating
// it.
//
// A present-but-empty declaration is authoritative and fails with
// [ErrNoRecipients] rather than deferring to an ancestor, as does a store
// with no declaration at all on the walked-up chain.
func (s *Store) Recipients(ctx context.Context, path string) (models.RecipientSet, error) {
	p, err := models.ParseStorePath(path)
	if err != nil {
		return nil, err
	}

	set, err := s.resolveRecipients(p)
	s.record(ctx, audit.OpRecipients, p, "", err)
	if err != nil {
		s.log.Error().Err(err).Str("path", p.String()).Msg("recipient resolution failed")
		return nil, err
	}

	s.log.Debug().Str("path", p.String()).Str("recipients", set.String()).Msg("recipients resolved")
	return set, nil
}

// resolveRecipients performs the nearest-ancestor walk for p, re-reading
// declaration files from disk on every call so that concurrent re-keying is
// picked up immediately.
func (s *Store) resolveRecipients(p models.StorePath) (models.RecipientSet, error) {
	// A file's governing directory is its parent; for a path that is (or
	// would be) a directory the walk starts at the path itself.
	dir := p
	if info, err := os.Stat(s.absPath(p)); err != nil || !info.IsDir() {
		dir = p.Parent()
	}

	for {
		declPath := filepath.Join(s.absPath(dir), gpgIDName)
		data, err := os.ReadFile(declPath)
		switch {
		case err == nil:
			set := models.ParseRecipientSet(data)
			if set.IsEmpty() {
				// The declaration's presence is what counts: an empty
				// one terminates the walk instead of falling through.
				return nil, fmt.Errorf("%w: %s declares none", ErrNoRecipients, declPath)
			}
			return set, nil
		case errors.Is(err, fs.ErrNotExist):
			// No declaration at this level, keep climbing.
		default:
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}

		if dir.IsRoot() {
			return nil, fmt.Errorf("%w: no declaration between %q and the store root", ErrNoRecipients, p.String())
		}
		dir = dir.Parent()
	}
}
