package passstore

import (
	"errors"

	"github.com/MKhiriev/go-pass-store/crypto"
	"github.com/MKhiriev/go-pass-store/models"
)

// Sentinel errors returned by store operations to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrStoreNotFound is returned when the resolved store root does not
	// exist or is not a directory.
	ErrStoreNotFound = errors.New("password store not found")

	// ErrEntryNotFound is returned when a path does not resolve to any
	// entry of the store tree.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrAmbiguousName is returned when a path resolves to both a
	// directory and an encrypted file of the same logical name, so the
	// store cannot tell which entry is meant.
	ErrAmbiguousName = errors.New("ambiguous entry name")

	// ErrTraversal is returned when a directory inside the store cannot
	// be read during the tree walk. Unreadable directories propagate;
	// they are never silently skipped.
	ErrTraversal = errors.New("store traversal failed")

	// ErrNoRecipients is returned when recipient resolution reaches the
	// store root without finding a governing declaration, or finds one
	// that declares no recipients at all. A write is never performed
	// against an empty recipient set.
	ErrNoRecipients = errors.New("no recipients configured")

	// ErrAlreadyOpenForWrite is returned when a second write handle is
	// requested for a path whose first write handle is still open.
	ErrAlreadyOpenForWrite = errors.New("entry already open for write")

	// ErrIO is returned (wrapping the underlying cause) when a filesystem
	// operation on store content fails.
	ErrIO = errors.New("i/o failure")
)

// Aliases re-exported so callers can match every store error kind through
// this package alone.
var (
	// ErrInvalidPath is returned when a raw path is absolute or would
	// escape the store root. Defined in [models.ErrInvalidPath].
	ErrInvalidPath = models.ErrInvalidPath

	// ErrDecryptionFailed mirrors [crypto.ErrDecryptionFailed].
	ErrDecryptionFailed = crypto.ErrDecryptionFailed

	// ErrEncryptionFailed mirrors [crypto.ErrEncryptionFailed].
	ErrEncryptionFailed = crypto.ErrEncryptionFailed

	// ErrUnknownRecipient mirrors [crypto.ErrUnknownRecipient].
	ErrUnknownRecipient = crypto.ErrUnknownRecipient
)
