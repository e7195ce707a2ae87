// Package crypto defines the encryption boundary of the password store.
//
// The store core never touches key material itself: it hands ciphertext and
// plaintext across the [Engine] interface together with the recipient set
// resolved for the entry being written. Two engines are provided:
//
//   - [GPG] delegates to the system gpg binary, matching the classic
//     password-store layout where every entry is an OpenPGP message
//     encrypted to the keys named by the governing .gpg-id file.
//   - [Keychain] is a self-contained multi-recipient engine built on
//     AES-256-GCM with per-file data keys wrapped for each recipient. It
//     serves tests and environments without a gpg installation.
package crypto
