package crypto

import (
	"context"

	"github.com/MKhiriev/go-pass-store/models"
)

//go:generate mockgen -source=interfaces.go -destination=../internal/mock/crypto_engine_mock.go -package=mock

// Engine encrypts and decrypts store entries. It knows nothing about the
// store layout, file handles, or recipient resolution; it only transforms
// bytes for a given recipient set.
type Engine interface {
	// Decrypt recovers the plaintext of a single encrypted entry.
	// Failures (missing private key, corrupted ciphertext, wrong format)
	// are reported as [ErrDecryptionFailed].
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Encrypt produces ciphertext readable by every recipient in the set.
	// The recipient set must not be empty. A recipient the engine has no
	// key for is reported as [ErrUnknownRecipient]; other failures as
	// [ErrEncryptionFailed].
	Encrypt(ctx context.Context, plaintext []byte, recipients models.RecipientSet) ([]byte, error)
}
