package passstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-pass-store/audit"
	"github.com/MKhiriev/go-pass-store/models"
)

// HandleState describes where a handle stands between the on-disk
// ciphertext and its in-memory plaintext.
type HandleState int

const (
	// HandleClosed: no plaintext materialized yet. The first Plaintext
	// call decrypts; SetPlaintext skips decryption entirely.
	HandleClosed HandleState = iota

	// HandleClean: plaintext cached and in agreement with disk.
	HandleClean

	// HandleDirty: plaintext modified and not yet written back.
	HandleDirty

	// HandleFailed: an unrecoverable crypto or I/O error occurred. The
	// error is sticky; raw ciphertext access still works.
	HandleFailed
)

func (st HandleState) String() string {
	switch st {
	case HandleClosed:
		return "closed"
	case HandleClean:
		return "clean"
	case HandleDirty:
		return "dirty"
	case HandleFailed:
		return "failed"
	default:
		return fmt.Sprintf("HandleState(%d)", int(st))
	}
}

// ReadHandle is a scoped read session on one encrypted file. Decryption is
// lazy: nothing touches the crypto engine until the first Plaintext call,
// and the result is cached for the handle's lifetime. Raw ciphertext stays
// accessible throughout, even when decryption fails.
//
// A ReadHandle is not safe for concurrent use.
type ReadHandle struct {
	id      string
	ref     *FileRef
	openCtx context.Context

	state    HandleState
	buf      []byte
	err      error // first unrecoverable failure, sticky
	released bool
}

// OpenRead opens a read handle on the encrypted file at path. Any number
// of read handles may be open on the same path at once.
func (s *Store) OpenRead(ctx context.Context, path string) (*ReadHandle, error) {
	ref, err := s.FileRef(path)
	if err != nil {
		return nil, err
	}

	return s.newReadHandle(ctx, ref), nil
}

func (s *Store) newReadHandle(ctx context.Context, ref *FileRef) *ReadHandle {
	h := &ReadHandle{id: newID(), ref: ref, openCtx: ctx, state: HandleClosed}
	s.record(ctx, audit.OpOpenRead, ref.Path(), h.id, nil)
	s.log.Debug().Str("path", ref.Path().String()).Str("handle", h.id).Msg("read handle opened")
	return h
}

// ID returns the handle's unique identifier, the one its audit events
// carry.
func (h *ReadHandle) ID() string { return h.id }

// Path returns the logical path of the file the handle is bound to.
func (h *ReadHandle) Path() models.StorePath { return h.ref.file.Path() }

// State reports the handle's synchronization state.
func (h *ReadHandle) State() HandleState { return h.state }

// Plaintext returns the decrypted content, reading and decrypting the
// on-disk ciphertext on first access and serving the cached buffer after.
// The returned slice is shared with the handle: it is valid until Close
// and must not be modified.
func (h *ReadHandle) Plaintext(ctx context.Context) ([]byte, error) {
	if h.released {
		return nil, fmt.Errorf("%w: handle %s", os.ErrClosed, h.id)
	}
	if h.err != nil {
		return nil, h.err
	}
	if h.state == HandleClosed {
		if err := h.load(ctx); err != nil {
			return nil, err
		}
	}

	return h.buf, nil
}

// load materializes the plaintext cache. Failures are terminal for the
// handle's decrypted view, raw ciphertext access stays available.
func (h *ReadHandle) load(ctx context.Context) error {
	ciphertext, err := h.Ciphertext()
	if err != nil {
		h.fail(err)
		return err
	}

	plaintext, err := h.ref.store.engine.Decrypt(ctx, ciphertext)
	if err != nil {
		h.ref.store.log.Error().Err(err).Str("path", h.ref.file.Path().String()).Str("handle", h.id).Msg("decrypt failed")
		h.fail(err)
		return err
	}

	h.buf = plaintext
	h.state = HandleClean
	return nil
}

// Ciphertext returns the raw on-disk bytes without decrypting. It re-reads
// the file on every call and works in every handle state short of released,
// including HandleFailed.
func (h *ReadHandle) Ciphertext() ([]byte, error) {
	if h.released {
		return nil, fmt.Errorf("%w: handle %s", os.ErrClosed, h.id)
	}

	data, err := os.ReadFile(h.ref.file.CipherPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return data, nil
}

// Close releases the handle and wipes the cached plaintext. Closing an
// already-closed handle is a no-op.
func (h *ReadHandle) Close() error {
	if h.released {
		return nil
	}

	h.released = true
	wipe(h.buf)
	h.buf = nil
	h.ref.store.record(h.openCtx, audit.OpClose, h.ref.file.Path(), h.id, nil)
	return nil
}

func (h *ReadHandle) fail(err error) {
	h.state = HandleFailed
	h.err = err
}

// WriteHandle extends [ReadHandle] with plaintext replacement and
// write-back. The store admits one write handle per path at a time; the
// slot is freed on Close, which also flushes unsynced content.
type WriteHandle struct {
	ReadHandle
}

// OpenWrite opens the encrypted file at path for writing. Fails with
// [ErrAlreadyOpenForWrite] while another write handle on the same path is
// open. The context is retained for the implicit flush in Close.
func (s *Store) OpenWrite(ctx context.Context, path string) (*WriteHandle, error) {
	ref, err := s.FileRef(path)
	if err != nil {
		return nil, err
	}

	return s.newWriteHandle(ctx, ref)
}

func (s *Store) newWriteHandle(ctx context.Context, ref *FileRef) (*WriteHandle, error) {
	id := newID()
	if err := s.acquireWriter(ref.Path(), id); err != nil {
		s.log.Error().Err(err).Str("path", ref.Path().String()).Msg("write handle refused")
		return nil, err
	}

	h := &WriteHandle{ReadHandle{id: id, ref: ref, openCtx: ctx, state: HandleClosed}}
	s.record(ctx, audit.OpOpenWrite, ref.Path(), id, nil)
	s.log.Debug().Str("path", ref.Path().String()).Str("handle", id).Msg("write handle opened")
	return h, nil
}

// SetPlaintext replaces the handle's plaintext with a copy of p and marks
// the handle dirty. The previous ciphertext is never decrypted for a
// handle that only ever overwrites.
func (h *WriteHandle) SetPlaintext(p []byte) error {
	if h.released {
		return fmt.Errorf("%w: handle %s", os.ErrClosed, h.id)
	}
	if h.err != nil {
		return h.err
	}

	wipe(h.buf)
	h.buf = bytes.Clone(p)
	h.state = HandleDirty
	return nil
}

// Sync writes dirty plaintext back to disk. The recipient set is resolved
// fresh from the governing declaration, the plaintext is encrypted for it,
// and the ciphertext file is replaced atomically, so a reader observes
// either the old bytes or the new ones and nothing in between. Clean
// handles return immediately.
//
// A recipient-resolution failure leaves the handle dirty; fixing the
// declaration and calling Sync again is legitimate. Encryption and I/O
// failures are terminal, and an encryption failure leaves the on-disk
// ciphertext untouched.
func (h *WriteHandle) Sync(ctx context.Context) error {
	if h.released {
		return fmt.Errorf("%w: handle %s", os.ErrClosed, h.id)
	}
	if h.err != nil {
		return h.err
	}
	if h.state != HandleDirty {
		return nil
	}

	err := h.flush(ctx)
	h.ref.store.record(ctx, audit.OpSync, h.ref.file.Path(), h.id, err)
	return err
}

func (h *WriteHandle) flush(ctx context.Context) error {
	store := h.ref.store
	path := h.ref.file.Path()

	recipients, err := store.resolveRecipients(path)
	if err != nil {
		store.log.Error().Err(err).Str("path", path.String()).Str("handle", h.id).Msg("sync failed, handle stays dirty")
		return err
	}

	ciphertext, err := store.engine.Encrypt(ctx, h.buf, recipients)
	if err != nil {
		store.log.Error().Err(err).Str("path", path.String()).Str("handle", h.id).Msg("encrypt failed")
		h.fail(err)
		return err
	}

	if err := store.replaceCiphertext(h.ref.file.CipherPath(), ciphertext); err != nil {
		store.log.Error().Err(err).Str("path", path.String()).Str("handle", h.id).Msg("ciphertext replace failed")
		h.fail(err)
		return err
	}

	h.state = HandleClean
	store.log.Debug().Str("path", path.String()).Str("handle", h.id).Str("recipients", recipients.String()).Msg("synced")
	return nil
}

// Close flushes a dirty handle using the context it was opened with, frees
// the per-path writer slot, and wipes the plaintext. The flush outcome is
// returned, never dropped; a handle that already failed returns its sticky
// error once more so an unflushed write cannot pass silently.
func (h *WriteHandle) Close() error {
	if h.released {
		return nil
	}

	var syncErr error
	switch {
	case h.state == HandleDirty:
		syncErr = h.Sync(h.openCtx)
	case h.err != nil:
		syncErr = h.err
	}

	h.released = true
	wipe(h.buf)
	h.buf = nil
	h.ref.store.releaseWriter(h.ref.file.Path(), h.id)
	h.ref.store.record(h.openCtx, audit.OpClose, h.ref.file.Path(), h.id, syncErr)
	return syncErr
}

// replaceCiphertext atomically replaces the file at path with data: the
// bytes land in a temp file in the same directory which is then renamed
// over the target. A crash mid-write leaves the original intact.
func (s *Store) replaceCiphertext(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename succeeded

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Chmod(0o666 &^ s.umask); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}

// wipe zeroes b so released handles do not keep plaintext around.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
