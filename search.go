package passstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/MKhiriev/go-pass-store/audit"
	"github.com/MKhiriev/go-pass-store/models"
)

// Find returns the logical paths of every file whose path matches the glob
// pattern, in sorted order. Patterns use doublestar syntax, so "web/**"
// matches the whole subtree while "*/github" matches one level down. An
// unparsable pattern fails with [ErrInvalidPath].
func (s *Store) Find(ctx context.Context, pattern string) (matches []models.StorePath, err error) {
	defer func() { s.record(ctx, audit.OpFind, models.StorePath(pattern), "", err) }()

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: bad glob pattern %q", ErrInvalidPath, pattern)
	}

	paths, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		// Pattern validity was checked up front, Match cannot fail here.
		if ok, _ := doublestar.Match(pattern, p.String()); ok {
			matches = append(matches, p)
		}
	}

	s.log.Debug().Str("pattern", pattern).Int("matches", len(matches)).Msg("find completed")
	return matches, nil
}

// Search decrypts every file in the store and returns the sorted paths of
// those whose plaintext contains needle. The first file that fails to
// decrypt aborts the search; partial results are never returned.
//
// The needle never reaches logs or the audit journal.
func (s *Store) Search(ctx context.Context, needle []byte) (matches []models.StorePath, err error) {
	defer func() { s.record(ctx, audit.OpSearch, "", "", err) }()

	paths, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		ok, err := s.contains(ctx, p, needle)
		if err != nil {
			s.log.Error().Err(err).Str("path", p.String()).Msg("search aborted")
			return nil, err
		}
		if ok {
			matches = append(matches, p)
		}
	}

	s.log.Debug().Int("matches", len(matches)).Msg("search completed")
	return matches, nil
}

// contains decrypts the file at p through a short-lived read handle and
// reports whether its plaintext contains needle.
func (s *Store) contains(ctx context.Context, p models.StorePath, needle []byte) (bool, error) {
	ref, err := s.fileRef(p)
	if err != nil {
		return false, err
	}

	h := ref.OpenRead(ctx)
	defer h.Close()

	plaintext, err := h.Plaintext(ctx)
	if err != nil {
		return false, err
	}
	return bytes.Contains(plaintext, needle), nil
}
