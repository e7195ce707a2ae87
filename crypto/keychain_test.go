package crypto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MKhiriev/go-pass-store/models"
)

func testKeychain(t *testing.T, ids ...string) *Keychain {
	t.Helper()
	kc := NewKeychain()
	for i, id := range ids {
		key := bytes.Repeat([]byte{byte(i + 1)}, 32)
		if err := kc.AddKey(id, key); err != nil {
			t.Fatalf("AddKey(%q) error: %v", id, err)
		}
	}
	return kc
}

func TestKeychain_EncryptDecryptRoundTrip(t *testing.T) {
	kc := testKeychain(t, "K1")
	plaintext := []byte("correct horse battery staple\n")

	blob, err := kc.Encrypt(context.Background(), plaintext, models.RecipientSet{"K1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if bytes.Contains(blob, plaintext) {
		t.Fatalf("ciphertext contains the plaintext")
	}

	got, err := kc.Decrypt(context.Background(), blob)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round-trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestKeychain_AnySingleRecipientCanDecrypt(t *testing.T) {
	kc := testKeychain(t, "K1", "K2")

	blob, err := kc.Encrypt(context.Background(), []byte("shared"), models.RecipientSet{"K1", "K2"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	// A keychain holding only K2's key must still be able to read the entry.
	solo := NewKeychain()
	if err := solo.AddKey("K2", bytes.Repeat([]byte{0x02}, 32)); err != nil {
		t.Fatalf("AddKey error: %v", err)
	}

	got, err := solo.Decrypt(context.Background(), blob)
	if err != nil {
		t.Fatalf("Decrypt with single recipient key error: %v", err)
	}
	if string(got) != "shared" {
		t.Fatalf("plaintext = %q, want %q", got, "shared")
	}
}

func TestKeychain_EncryptUnknownRecipient(t *testing.T) {
	kc := testKeychain(t, "K1")

	_, err := kc.Encrypt(context.Background(), []byte("data"), models.RecipientSet{"K1", "K9"})
	if !errors.Is(err, ErrUnknownRecipient) {
		t.Fatalf("error = %v, want ErrUnknownRecipient", err)
	}
}

func TestKeychain_EncryptEmptyRecipients(t *testing.T) {
	kc := testKeychain(t, "K1")

	_, err := kc.Encrypt(context.Background(), []byte("data"), nil)
	if !errors.Is(err, ErrEncryptionFailed) {
		t.Fatalf("error = %v, want ErrEncryptionFailed", err)
	}
}

func TestKeychain_DecryptWithoutUsableKey(t *testing.T) {
	sender := testKeychain(t, "K1")
	blob, err := sender.Encrypt(context.Background(), []byte("data"), models.RecipientSet{"K1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	stranger := testKeychain(t, "K9")
	_, err = stranger.Decrypt(context.Background(), blob)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("error = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeychain_DecryptRejectsGarbage(t *testing.T) {
	kc := testKeychain(t, "K1")

	_, err := kc.Decrypt(context.Background(), []byte("not an envelope"))
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("error = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeychain_DecryptRejectsTamperedPayload(t *testing.T) {
	kc := testKeychain(t, "K1")
	blob, err := kc.Encrypt(context.Background(), []byte("data"), models.RecipientSet{"K1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	env.Payload[len(env.Payload)-1] ^= 0xFF
	tampered, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal tampered envelope: %v", err)
	}

	_, err = kc.Decrypt(context.Background(), tampered)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("error = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeychain_DecryptRejectsUnsupportedVersion(t *testing.T) {
	kc := testKeychain(t, "K1")
	blob, err := kc.Encrypt(context.Background(), []byte("data"), models.RecipientSet{"K1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	env.Version = 99
	bumped, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal bumped envelope: %v", err)
	}

	_, err = kc.Decrypt(context.Background(), bumped)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("error = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeychain_AddKeyValidatesLength(t *testing.T) {
	kc := NewKeychain()

	if err := kc.AddKey("K1", []byte("short")); err == nil {
		t.Fatalf("expected error for short key")
	}
	if err := kc.AddKey("", bytes.Repeat([]byte{0x01}, 32)); err == nil {
		t.Fatalf("expected error for empty recipient id")
	}
}

func TestKeychain_AddKeyCopiesKey(t *testing.T) {
	kc := NewKeychain()
	key := bytes.Repeat([]byte{0x01}, 32)
	if err := kc.AddKey("K1", key); err != nil {
		t.Fatalf("AddKey error: %v", err)
	}

	blob, err := kc.Encrypt(context.Background(), []byte("data"), models.RecipientSet{"K1"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	// Mutating the caller's slice must not corrupt the keyring.
	for i := range key {
		key[i] = 0xFF
	}

	if _, err := kc.Decrypt(context.Background(), blob); err != nil {
		t.Fatalf("Decrypt after caller mutation error: %v", err)
	}
}

func TestKeychain_DeriveKeyDeterministicForSameInputs(t *testing.T) {
	kc := NewKeychain()

	passphrase := "correct horse battery staple"
	salt := bytes.Repeat([]byte{0xAB}, 16)

	k1 := kc.DeriveKey(passphrase, salt)
	k2 := kc.DeriveKey(passphrase, salt)

	if len(k1) != 32 {
		t.Fatalf("derived key length = %d, want 32", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected derived keys to match for same passphrase+salt")
	}
}

func TestKeychain_DeriveKeyDifferentSaltProducesDifferentKey(t *testing.T) {
	kc := NewKeychain()

	passphrase := "same passphrase"
	salt1 := bytes.Repeat([]byte{0x01}, 16)
	salt2 := bytes.Repeat([]byte{0x02}, 16)

	if bytes.Equal(kc.DeriveKey(passphrase, salt1), kc.DeriveKey(passphrase, salt2)) {
		t.Fatalf("expected different keys for different salts")
	}
}

func TestKeychain_GenerateSaltLengthAndRandomness(t *testing.T) {
	kc := NewKeychain()

	s1, err := kc.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}
	s2, err := kc.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}

	if len(s1) != 16 {
		t.Fatalf("salt length = %d, want 16", len(s1))
	}
	if bytes.Equal(s1, s2) {
		t.Fatalf("expected salts to differ, but they are equal")
	}
}

func TestKeychain_DerivedKeyFeedsAddKey(t *testing.T) {
	kc := NewKeychain()
	salt := bytes.Repeat([]byte{0x42}, 16)
	if err := kc.AddKey("alice@example.org", kc.DeriveKey("passphrase", salt)); err != nil {
		t.Fatalf("AddKey with derived key error: %v", err)
	}

	blob, err := kc.Encrypt(context.Background(), []byte("data"), models.RecipientSet{"alice@example.org"})
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	// A second keychain deriving the same key from the same passphrase and
	// salt must be able to read the entry.
	other := NewKeychain()
	if err := other.AddKey("alice@example.org", other.DeriveKey("passphrase", salt)); err != nil {
		t.Fatalf("AddKey error: %v", err)
	}
	got, err := other.Decrypt(context.Background(), blob)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if string(got) != "data" {
		t.Fatalf("plaintext = %q, want %q", got, "data")
	}
}

func TestKeychain_EncryptHonorsCancelledContext(t *testing.T) {
	kc := testKeychain(t, "K1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := kc.Encrypt(ctx, []byte("data"), models.RecipientSet{"K1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
