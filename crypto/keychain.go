// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/MKhiriev/go-pass-store/models"
)

// envelopeVersion is the format version written into every envelope. Bumped
// whenever the envelope layout changes incompatibly.
const envelopeVersion = 1

// envelope is the serialized form of a Keychain-encrypted entry.
//
// Payload holds the entry plaintext sealed with a per-file data-encryption
// key (DEK); Wraps holds that DEK sealed once per recipient with the
// recipient's key-encryption key (KEK). Any single recipient key is enough
// to unwrap the DEK and read the payload. Both blobs are nonce ‖ ciphertext;
// encoding/json renders []byte as base64.
type envelope struct {
	Version int               `json:"v"`
	Payload []byte            `json:"payload"`
	Wraps   map[string][]byte `json:"wraps"`
}

// Keychain is a self-contained multi-recipient [Engine] built on
// AES-256-GCM. Recipient identifiers map to 32-byte KEKs held in an
// in-memory keyring; KEKs are registered directly with [Keychain.AddKey] or
// derived from a passphrase with [Keychain.DeriveKey].
//
// A Keychain is safe for concurrent use.
type Keychain struct {
	mu   sync.RWMutex
	keys map[string][]byte

	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewKeychain constructs an empty Keychain with the Argon2id parameters
// recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewKeychain() *Keychain {
	return &Keychain{
		keys:         make(map[string][]byte),
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
}

// AddKey registers the 32-byte key for the given recipient identifier,
// replacing any key previously held for it. The key slice is copied.
func (k *Keychain) AddKey(id string, key []byte) error {
	if id == "" {
		return fmt.Errorf("empty recipient id")
	}
	if len(key) != 32 {
		return fmt.Errorf("key for %q is %d bytes, want 32", id, len(key))
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[id] = bytes.Clone(key)
	return nil
}

// DeriveKey derives a 256-bit recipient key from passphrase and salt using
// Argon2id with the parameters stored in the receiver. The derivation is
// deterministic: the same passphrase and salt always yield the same key.
func (k *Keychain) DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		k.argonTime,
		k.argonMemory,
		k.argonThreads,
		k.argonKeyLen,
	)
}

// GenerateSalt reads 16 random bytes from the OS CSPRNG for use with
// [Keychain.DeriveKey]. Salts are not secret and may be stored openly.
func (k *Keychain) GenerateSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Encrypt implements [Engine]. It generates a fresh DEK, seals plaintext
// with it, wraps the DEK once per recipient, and serializes the result as a
// JSON envelope. Every recipient must be present in the keyring; a missing
// one fails the whole operation before any ciphertext is produced.
func (k *Keychain) Encrypt(ctx context.Context, plaintext []byte, recipients models.RecipientSet) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if recipients.IsEmpty() {
		return nil, fmt.Errorf("%w: empty recipient set", ErrEncryptionFailed)
	}

	keks := make(map[string][]byte, len(recipients))
	k.mu.RLock()
	for _, id := range recipients {
		kek, ok := k.keys[id]
		if !ok {
			k.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownRecipient, id)
		}
		keks[id] = kek
	}
	k.mu.RUnlock()

	dek := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, dek); err != nil {
		return nil, fmt.Errorf("%w: generate data key: %w", ErrEncryptionFailed, err)
	}

	payload, err := seal(dek, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: seal payload: %w", ErrEncryptionFailed, err)
	}

	wraps := make(map[string][]byte, len(keks))
	for id, kek := range keks {
		wrapped, err := seal(kek, dek)
		if err != nil {
			return nil, fmt.Errorf("%w: wrap data key for %q: %w", ErrEncryptionFailed, id, err)
		}
		wraps[id] = wrapped
	}

	blob, err := json.Marshal(envelope{Version: envelopeVersion, Payload: payload, Wraps: wraps})
	if err != nil {
		return nil, fmt.Errorf("%w: encode envelope: %w", ErrEncryptionFailed, err)
	}

	return blob, nil
}

// Decrypt implements [Engine]. It parses the envelope, unwraps the DEK with
// the first keyring key that matches one of the envelope's recipients, and
// opens the payload. Wrap entries the keyring has no key for are skipped;
// if none can be unwrapped the error names the envelope's recipients so the
// caller can see which keys would have worked.
func (k *Keychain) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(ciphertext, &env); err != nil {
		return nil, fmt.Errorf("%w: not a keychain envelope: %w", ErrDecryptionFailed, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrDecryptionFailed, env.Version)
	}

	type candidate struct {
		kek     []byte
		wrapped []byte
	}
	var candidates []candidate
	k.mu.RLock()
	for id, wrapped := range env.Wraps {
		if kek, ok := k.keys[id]; ok {
			candidates = append(candidates, candidate{kek: kek, wrapped: wrapped})
		}
	}
	k.mu.RUnlock()

	for _, c := range candidates {
		dek, err := open(c.kek, c.wrapped)
		if err != nil {
			// Wrong or rotated key for this recipient; try the next one.
			continue
		}
		plaintext, err := open(dek, env.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: payload authentication failed", ErrDecryptionFailed)
		}
		return plaintext, nil
	}

	return nil, fmt.Errorf("%w: no usable key for recipients %s", ErrDecryptionFailed, envelopeRecipients(env))
}

// envelopeRecipients lists the recipients an envelope was encrypted for, in
// sorted order so error messages are deterministic.
func envelopeRecipients(env envelope) models.RecipientSet {
	ids := make([]string, 0, len(env.Wraps))
	for id := range env.Wraps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return models.RecipientSet(ids)
}

// seal encrypts plaintext with a 32-byte key using AES-256-GCM. A random
// 12-byte nonce is prepended to the ciphertext so that the decryption side
// can locate it: blob = nonce ‖ ciphertext.
func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return append(nonce, gcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// open reverses [seal]: it splits the blob into nonce and ciphertext and
// decrypts with the given key, verifying the authentication tag.
func open(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
