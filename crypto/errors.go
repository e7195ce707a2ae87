package crypto

import "errors"

// Sentinel errors reported by [Engine] implementations. Callers match them
// with [errors.Is]; concrete engines wrap them with the underlying cause.
var (
	// ErrDecryptionFailed indicates that ciphertext could not be turned
	// back into plaintext: no usable private key, an authentication-tag
	// mismatch, or input that is not a message of the engine's format.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEncryptionFailed indicates that plaintext could not be encrypted
	// for the requested recipient set.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrUnknownRecipient indicates that the engine holds no key material
	// for one of the requested recipients.
	ErrUnknownRecipient = errors.New("unknown recipient")
)
