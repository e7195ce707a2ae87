package passstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/go-pass-store/audit"
	"github.com/MKhiriev/go-pass-store/models"
)

const (
	// cipherExt is the on-disk extension of encrypted entries. Logical
	// paths never carry it: secrets/github on disk is secrets/github.gpg.
	cipherExt = ".gpg"

	// gpgIDName is the per-directory file declaring which recipients
	// govern the subtree below it.
	gpgIDName = ".gpg-id"
)

// List returns the logical path of every encrypted file in the store,
// sorted lexicographically by full path. Metadata (.gpg-id, .git and other
// dotfiles) never appears. Each call re-walks the directory tree.
func (s *Store) List(ctx context.Context) (paths []models.StorePath, err error) {
	defer func() { s.record(ctx, audit.OpList, "", "", err) }()

	root, err := s.tree()
	if err != nil {
		s.log.Error().Err(err).Msg("list failed")
		return nil, err
	}

	paths = root.Files()
	s.log.Debug().Int("entries", len(paths)).Msg("store listed")
	return paths, nil
}

// Retrieve looks up the entry at path: a [*models.File] for an encrypted
// file, a [*models.Directory] with its full subtree for a directory, and
// the whole tree for the root path "". A name backed by both a file and a
// directory fails with [ErrAmbiguousName]; a name backed by neither fails
// with [ErrEntryNotFound].
func (s *Store) Retrieve(ctx context.Context, path string) (models.Entry, error) {
	p, err := models.ParseStorePath(path)
	if err != nil {
		return nil, err
	}

	entry, err := s.retrieve(p)
	s.record(ctx, audit.OpRetrieve, p, "", err)
	if err != nil {
		s.log.Error().Err(err).Str("path", p.String()).Msg("retrieve failed")
	}
	return entry, err
}

func (s *Store) retrieve(p models.StorePath) (models.Entry, error) {
	if p.IsRoot() {
		return s.tree()
	}

	cipherInfo, cipherErr := os.Stat(s.cipherPath(p))
	dirInfo, dirErr := os.Stat(s.absPath(p))
	isFile := cipherErr == nil && cipherInfo.Mode().IsRegular()
	isDir := dirErr == nil && dirInfo.IsDir()

	switch {
	case isFile && isDir:
		return nil, fmt.Errorf("%w: %s names both an entry and a directory", ErrAmbiguousName, p)
	case isFile:
		return models.NewFile(p, s.cipherPath(p)), nil
	case isDir:
		return s.buildTree(s.absPath(p), p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, p)
	}
}

// tree materializes the whole store as an entry graph rooted at "".
func (s *Store) tree() (*models.Directory, error) {
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, s.root)
	}

	return s.buildTree(s.root, "")
}

// buildTree walks the directory at dir, corresponding to the logical path
// at, into a Directory with its subtree fully materialized. Dot-entries
// (the governing file, version-control metadata) and files without the
// ciphertext extension are invisible to the logical tree.
func (s *Store) buildTree(dir string, at models.StorePath) (*models.Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraversal, err)
	}

	var children []models.Entry
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		switch {
		case entry.IsDir():
			child, err := s.buildTree(filepath.Join(dir, name), at.Join(name))
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case !entry.Type().IsRegular():
			// Sockets, devices, dangling symlinks.
			continue
		case strings.HasSuffix(name, cipherExt):
			logical := strings.TrimSuffix(name, cipherExt)
			children = append(children, models.NewFile(at.Join(logical), filepath.Join(dir, name)))
		}
	}

	return models.NewDirectory(at, children), nil
}
