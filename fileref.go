package passstore

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-pass-store/models"
)

// FileRef is a resolved reference to one encrypted file: the logical path
// plus the store it belongs to. It is the gateway to content access; a
// FileRef produces read and write handles and answers which recipients
// currently govern the file. Obtain one from [Store.FileRef].
type FileRef struct {
	store *Store
	file  *models.File
}

// FileRef resolves path to an encrypted file of the store. Directories do
// not produce refs; a path backed only by a directory fails with
// [ErrEntryNotFound] just like a path backed by nothing.
func (s *Store) FileRef(path string) (*FileRef, error) {
	p, err := models.ParseStorePath(path)
	if err != nil {
		return nil, err
	}

	return s.fileRef(p)
}

func (s *Store) fileRef(p models.StorePath) (*FileRef, error) {
	if p.IsRoot() {
		return nil, fmt.Errorf("%w: the store root is not a file", ErrEntryNotFound)
	}

	cipherPath := s.cipherPath(p)
	info, err := os.Stat(cipherPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, p)
	}

	return &FileRef{store: s, file: models.NewFile(p, cipherPath)}, nil
}

// Path returns the logical path the ref points at.
func (r *FileRef) Path() models.StorePath { return r.file.Path() }

// Recipients resolves the recipient set currently governing the file. The
// governing declaration is re-read from disk on every call.
func (r *FileRef) Recipients() (models.RecipientSet, error) {
	return r.store.resolveRecipients(r.file.Path())
}

// OpenRead opens a read handle on the file. Any number of read handles may
// be open on the same path at once.
func (r *FileRef) OpenRead(ctx context.Context) *ReadHandle {
	return r.store.newReadHandle(ctx, r)
}

// OpenWrite opens the file for writing. At most one write handle may be
// open per path; a second open fails with [ErrAlreadyOpenForWrite] until
// the first is closed.
func (r *FileRef) OpenWrite(ctx context.Context) (*WriteHandle, error) {
	return r.store.newWriteHandle(ctx, r)
}
